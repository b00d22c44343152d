// internal/service/session_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/repository"

	"github.com/google/uuid"
)

// SessionService インターフェース
type SessionService interface {
	CreateSession(ctx context.Context) (*model.Session, error)
	// VerifySession は middleware.SessionVerifier の実装です
	VerifySession(ctx context.Context, sessionID uuid.UUID) error
}

type sessionService struct {
	sessionRepo repository.SessionRepository
}

func NewSessionService(sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{sessionRepo: sessionRepo}
}

func (s *sessionService) CreateSession(ctx context.Context) (*model.Session, error) {
	logger := middleware.GetLogger(ctx)

	session := &model.Session{
		SessionID: uuid.New(),
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		logger.Error("Failed to create session", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "セッションの作成に失敗しました。", "", err)
	}

	logger.Info("Session created", "session_id", session.SessionID.String())
	return session, nil
}

func (s *sessionService) VerifySession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.sessionRepo.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrSessionNotFound
		}
		return err
	}
	return nil
}
