// internal/repository/session_repository.go
package repository

import (
	"context"
	"sync"

	"github.com/AlandersondePaula/estudo-cnu/internal/model"

	"github.com/google/uuid"
)

// SessionRepository は発行済みセッションのレジストリです。
// 永続化は非ゴールのため、プロセス内のメモリにのみ保持します。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	Find(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
}

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*model.Session
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[uuid.UUID]*model.Session),
	}
}

func (r *memorySessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.SessionID] = session
	return nil
}

func (r *memorySessionRepository) Find(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return session, nil
}
