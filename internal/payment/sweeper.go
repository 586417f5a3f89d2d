package payment

import (
	"context"
	"time"

	"bellafatia-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiredOrderFinder lists pending PIX orders whose window has passed.
type ExpiredOrderFinder interface {
	FindExpiredPending(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// ExpirySweeper is the server-side safety net behind client polling: when a
// customer abandons the status page, their stale pending orders still get
// expired.
type ExpirySweeper struct {
	finder     ExpiredOrderFinder
	reconciler *Reconciler
	interval   time.Duration
}

func NewExpirySweeper(finder ExpiredOrderFinder, reconciler *Reconciler, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		finder:     finder,
		reconciler: reconciler,
		interval:   interval,
	}
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.L().Info("expiry sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			logger.L().Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				logger.L().Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) error {
	ids, err := s.finder.FindExpiredPending(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	logger.L().Info("expiring stale pending orders", zap.Int("count", len(ids)))

	for _, id := range ids {
		// CheckStatus applies the same guarded expiration the polling path
		// uses; a webhook racing the sweep simply wins.
		if _, err := s.reconciler.CheckStatus(ctx, id); err != nil {
			logger.L().Error("failed to expire order",
				zap.String("order_id", id.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}
