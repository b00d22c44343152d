// internal/handlers/session_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/service"
	"github.com/AlandersondePaula/estudo-cnu/internal/webutil"
)

type SessionHandler struct {
	service service.SessionService
	logger  *slog.Logger
}

func NewSessionHandler(s service.SessionService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		service: s,
		logger:  logger,
	}
}

// CreateSession は新しいセッションIDを発行するハンドラ (認証不要)
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CreateSession"))

	session, err := h.service.CreateSession(r.Context())
	if err != nil {
		logger.Error("Error creating session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Session created successfully", slog.String("session_id", session.SessionID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.CreateSessionResponse{
		SessionID: session.SessionID,
		CreatedAt: session.CreatedAt,
	}, logger)
}
