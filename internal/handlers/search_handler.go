// internal/handlers/search_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/service"
	"github.com/AlandersondePaula/estudo-cnu/internal/webutil"
)

type SearchHandler struct {
	service service.SearchService
	logger  *slog.Logger
}

func NewSearchHandler(s service.SearchService, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{
		service: s,
		logger:  logger,
	}
}

// Search はカタログ全体を横断検索するハンドラ。
// qが空の場合は空の結果を返す。
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "Search"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	term := r.URL.Query().Get("q")

	result, err := h.service.Search(r.Context(), sessionID, term)
	if err != nil {
		logger.Error("Error searching catalog in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}
