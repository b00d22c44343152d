// internal/repository/progress_repository.go
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/AlandersondePaula/estudo-cnu/internal/model"

	"github.com/google/uuid"
)

// ProgressRepository はセッションごとの進捗状態を保持します。
// 状態の寿命は1セッションで、永続化はバックアップの
// エクスポート/インポート以外に存在しません (メモリのみ)。
type ProgressRepository interface {
	// GetOrCreate は状態を返します。未初期化なら既定値で生成します
	// (遅延初期化)。生成以外では LastAccess を含め状態に触れません。
	GetOrCreate(ctx context.Context, sessionID uuid.UUID) (*model.ProgressState, error)
	// Replace は状態を丸ごと差し替えます (インポート・完全リセット用)。
	Replace(ctx context.Context, sessionID uuid.UUID, state *model.ProgressState) error
}

type memoryProgressRepository struct {
	mu     sync.Mutex
	states map[uuid.UUID]*model.ProgressState
}

func NewMemoryProgressRepository() ProgressRepository {
	return &memoryProgressRepository{
		states: make(map[uuid.UUID]*model.ProgressState),
	}
}

// ロックはレジストリ (map) の保護のみに使います。
// 返した状態への読み書きは、セッション内の操作が1つずつ同期的に
// 呼ばれる前提 (同一セッションに並行する更新者はいない) です。
func (r *memoryProgressRepository) GetOrCreate(ctx context.Context, sessionID uuid.UUID) (*model.ProgressState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[sessionID]
	if !ok {
		state = model.NewProgressState(time.Now())
		r.states[sessionID] = state
	}
	return state, nil
}

func (r *memoryProgressRepository) Replace(ctx context.Context, sessionID uuid.UUID, state *model.ProgressState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[sessionID] = state
	return nil
}
