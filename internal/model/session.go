// internal/model/session.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const (
	SessionIDKey ContextKey = "sessionID"
)

// Session はAPIを利用する1クライアントを表します。
// 認証は行わず (非ゴール)、進捗状態を分離するための識別子のみ持ちます。
type Session struct {
	SessionID uuid.UUID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SendReportRequest は進捗サマリーメール送信のリクエストです
type SendReportRequest struct {
	To string `json:"to" validate:"required,email"`
}
