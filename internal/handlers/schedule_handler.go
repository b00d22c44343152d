// internal/handlers/schedule_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/service"
	"github.com/AlandersondePaula/estudo-cnu/internal/webutil"
)

type ScheduleHandler struct {
	service service.ScheduleService
	logger  *slog.Logger
}

func NewScheduleHandler(s service.ScheduleService, logger *slog.Logger) *ScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleHandler{
		service: s,
		logger:  logger,
	}
}

// GetSchedule はスケジュールを取得するハンドラ。
// 開始日は通常セッションの状態から取るが、?start_date=YYYY-MM-DD で
// 一時的に上書きして試算できる。
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetSchedule"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	var startOverride *time.Time
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		parsed, err := time.Parse(config.DateLayout, raw)
		if err != nil {
			logger.Warn("Invalid start_date query parameter", slog.String("start_date", raw))
			appErr := model.NewAppError("INVALID_QUERY_PARAM", "start_dateの形式が正しくありません (YYYY-MM-DD)。", "start_date", model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
			return
		}
		startOverride = &parsed
	}

	schedule, err := h.service.GetSchedule(r.Context(), sessionID, startOverride)
	if err != nil {
		logger.Error("Error generating schedule in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Schedule generated successfully", slog.Int("entries", len(schedule.Entries)))
	webutil.RespondWithJSON(w, http.StatusOK, schedule, logger)
}
