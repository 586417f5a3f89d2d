package customer

import (
	"context"
	"strings"

	"bellafatia-be/internal/auth"
	"bellafatia-be/internal/logger"
	"bellafatia-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, email, password string) (string, *auth.Session, error)
	Login(ctx context.Context, email, password string) (string, *auth.Session, error)
	Profile(ctx context.Context, sess *auth.Session) (*Customer, error)
	UpdateProfile(ctx context.Context, sess *auth.Session, p Profile) error
}

type service struct {
	repo     Repository
	sessions *auth.Manager
}

func NewService(repo Repository, sessions *auth.Manager) Service {
	return &service{repo: repo, sessions: sessions}
}

func (s *service) Register(ctx context.Context, email, password string) (string, *auth.Session, error) {
	log := logger.FromCtx(ctx)

	if !utils.IsEmail(email) {
		return "", nil, ErrInvalidEmail
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	c, err := s.repo.Create(ctx, email, hashed)
	if err != nil {
		if strings.Contains(err.Error(), "customers_email_key") {
			return "", nil, ErrEmailExists
		}
		log.Error("failed to create customer", zap.String("email", email), zap.Error(err))
		return "", nil, err
	}

	token, sess, err := s.sessions.Issue(c.ID, c.Email)
	if err != nil {
		log.Error("failed to issue session", zap.Uint("customer_id", c.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("customer registered", zap.Uint("customer_id", c.ID))
	return token, sess, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *auth.Session, error) {
	c, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !CheckPasswordHash(password, c.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	return s.sessions.Issue(c.ID, c.Email)
}

func (s *service) Profile(ctx context.Context, sess *auth.Session) (*Customer, error) {
	return s.repo.GetByID(ctx, sess.CustomerID)
}

func (s *service) UpdateProfile(ctx context.Context, sess *auth.Session, p Profile) error {
	if p.Phone != "" && !utils.IsPhoneBR(p.Phone) {
		return ErrInvalidPhone
	}
	return s.repo.UpdateProfile(ctx, sess.CustomerID, p)
}
