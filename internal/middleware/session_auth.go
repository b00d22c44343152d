// internal/middleware/session_auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/webutil"

	"github.com/google/uuid"
)

// SessionVerifier はセッションIDが発行済みかどうかを検証します。
// 実体は service.SessionService が担います。
type SessionVerifier interface {
	VerifySession(ctx context.Context, sessionID uuid.UUID) error
}

// SessionAuthMiddleware は X-Session-ID ヘッダーからセッションIDを取り出し、
// 発行済みであることを検証した上でコンテキストに設定します。
// 認証 (本人確認) ではなく、進捗状態を分離するための識別です。
func SessionAuthMiddleware(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			sessionIDStr := r.Header.Get("X-Session-ID")
			if sessionIDStr == "" {
				logger.Warn("Session auth failed: X-Session-ID header missing")
				appErr := model.NewAppError("SESSION_REQUIRED", "X-Session-IDヘッダーが必要です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			sessionID, err := uuid.Parse(sessionIDStr)
			if err != nil {
				logger.Warn("Session auth failed: Invalid X-Session-ID format", "session_id", sessionIDStr)
				appErr := model.NewAppError("INVALID_SESSION_ID", "X-Session-IDの形式が正しくありません。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			if err := verifier.VerifySession(r.Context(), sessionID); err != nil {
				logger.Warn("Session auth failed: Unknown session", "session_id", sessionID.String(), "error", err)
				appErr := model.NewAppError("SESSION_NOT_FOUND", "セッションが見つかりません。POST /api/v1/sessions で発行してください。", "", model.ErrSessionNotFound)
				webutil.HandleError(w, logger, appErr)
				return
			}

			// コンテキストにセッションIDをセット
			ctx := context.WithValue(r.Context(), model.SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionIDFromContext はコンテキストからセッションIDを取得します。
func GetSessionIDFromContext(ctx context.Context) (uuid.UUID, error) {
	value, ok := ctx.Value(model.SessionIDKey).(uuid.UUID)
	if !ok {
		// ミドルウェアが正しく適用されていない等の内部エラー
		return uuid.Nil, model.NewAppError("INTERNAL_SERVER_ERROR", "コンテキストからセッション情報を取得できませんでした。", "", model.ErrInternalServer)
	}
	return value, nil
}
