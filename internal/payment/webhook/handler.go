package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"bellafatia-be/internal/logger"
	"bellafatia-be/internal/metrics"
	"bellafatia-be/internal/order"
	"bellafatia-be/internal/payment"
	"bellafatia-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler applies the guarded transition for a gateway-reported status.
type Reconciler interface {
	ApplyGatewayStatus(ctx context.Context, orderID uuid.UUID, txn *payment.Transaction) (order.Status, error)
}

type Handler struct {
	Reconciler Reconciler
	Gateway    payment.Gateway
	Metrics    *metrics.Payment
}

func NewWebhookHandler(rec Reconciler, gateway payment.Gateway, m *metrics.Payment) *Handler {
	return &Handler{
		Reconciler: rec,
		Gateway:    gateway,
		Metrics:    m,
	}
}

// notification is the minimal shape of a Mercado Pago webhook body. Only the
// transaction id is taken from it; the status is always re-fetched.
type notification struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// PixWebhookHandler handles payment notifications. The body is treated as a
// trigger only: the authoritative charge record is fetched back from the
// gateway before any transition, which is the defense against spoofed or
// partial notifications. Deliveries are at-least-once; duplicates resolve
// into no-ops downstream.
func (h *Handler) PixWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)
	h.Metrics.WebhooksReceived.Inc()

	if err := h.Gateway.VerifyNotification(r); err != nil {
		utils.WriteJSONError(w, "invalid notification token", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if n.Type != "payment" || n.Data.ID.String() == "" {
		// Not a payment event; acknowledge and move on.
		utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	log = log.With(zap.String("transaction_id", n.Data.ID.String()))
	log.Info("payment notification received")

	txn, err := h.Gateway.GetPayment(ctx, n.Data.ID.String())
	if err != nil {
		// Non-success response makes the gateway redeliver later.
		h.Metrics.GatewayFailures.Inc()
		log.Error("failed to fetch transaction", zap.Error(err))
		utils.WriteJSONError(w, "failed to fetch payment", http.StatusBadGateway)
		return
	}

	orderID, err := uuid.Parse(txn.ExternalReference)
	if err != nil {
		log.Error("notification carries no usable order reference",
			zap.String("external_reference", txn.ExternalReference),
		)
		utils.WriteJSONError(w, "order reference missing", http.StatusBadRequest)
		return
	}

	if _, err := h.Reconciler.ApplyGatewayStatus(ctx, orderID, txn); err != nil {
		log.Error("failed to reconcile order", zap.Error(err))
		utils.WriteJSONError(w, "failed to update order", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
