// internal/handlers/progress_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/service"
	"github.com/AlandersondePaula/estudo-cnu/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type ProgressHandler struct {
	service service.ProgressService
	report  service.ReportService
	logger  *slog.Logger
}

func NewProgressHandler(s service.ProgressService, report service.ReportService, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		service: s,
		report:  report,
		logger:  logger,
	}
}

// PutCompletion はリソースの完了状態を設定するハンドラ。
// リソースキーは空白やポルトガル語の文字を含むためボディで受け取る。
func (h *ProgressHandler) PutCompletion(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutCompletion"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	var req model.PutCompletionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()), slog.Any("request", req))
			firstErr := validationErrors[0]
			translatedMsg := firstErr.Translate(webutil.Trans)
			appErr := model.NewAppError("VALIDATION_ERROR", translatedMsg, firstErr.Field(), model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	if err := h.service.SetCompletion(r.Context(), sessionID, req.Key, *req.IsComplete); err != nil {
		logger.Error("Error setting completion in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Completion set successfully", slog.String("key", req.Key), slog.Bool("is_complete", *req.IsComplete))
	webutil.RespondWithJSON(w, http.StatusOK, model.CompletionResponse{
		Key:        req.Key,
		IsComplete: *req.IsComplete,
	}, logger)
}

// GetCompletion は単一リソースの完了状態を返すハンドラ
func (h *ProgressHandler) GetCompletion(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetCompletion"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	key := r.URL.Query().Get("key")
	if key == "" {
		appErr := model.NewAppError("INVALID_QUERY_PARAM", "keyクエリパラメータは必須です。", "key", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	isComplete, err := h.service.IsComplete(r.Context(), sessionID, key)
	if err != nil {
		logger.Error("Error checking completion in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.CompletionResponse{
		Key:        key,
		IsComplete: isComplete,
	}, logger)
}

// PostStudySession は学習記録を追加するハンドラ
func (h *ProgressHandler) PostStudySession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostStudySession"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	var req model.LogStudySessionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()), slog.Any("request", req))
			firstErr := validationErrors[0]
			translatedMsg := firstErr.Translate(webutil.Trans)
			appErr := model.NewAppError("VALIDATION_ERROR", translatedMsg, firstErr.Field(), model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	session, err := h.service.LogStudySession(r.Context(), sessionID, req.DurationMinutes, req.Subjects)
	if err != nil {
		logger.Error("Error logging study session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Study session logged successfully", slog.Int("duration_minutes", session.DurationMinutes))
	webutil.RespondWithJSON(w, http.StatusCreated, session, logger)
}

// GetStudySessions は学習記録の一覧を返すハンドラ
func (h *ProgressHandler) GetStudySessions(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetStudySessions"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	sessions, err := h.service.ListStudySessions(r.Context(), sessionID)
	if err != nil {
		logger.Error("Error listing study sessions in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if sessions == nil {
		sessions = []model.StudySession{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, sessions, logger)
}

// PutStartDate は学習開始日を上書きするハンドラ
func (h *ProgressHandler) PutStartDate(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutStartDate"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	var req model.SetStartDateRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()), slog.Any("request", req))
			firstErr := validationErrors[0]
			translatedMsg := firstErr.Translate(webutil.Trans)
			appErr := model.NewAppError("VALIDATION_ERROR", translatedMsg, firstErr.Field(), model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	startDate, err := time.Parse(config.DateLayout, req.StartDate)
	if err != nil {
		logger.Warn("Invalid start_date format", slog.String("start_date", req.StartDate))
		appErr := model.NewAppError("INVALID_DATE", "start_dateの形式が正しくありません (YYYY-MM-DD)。", "start_date", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := h.service.SetStartDate(r.Context(), sessionID, startDate); err != nil {
		logger.Error("Error setting start date in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Start date set successfully", slog.String("start_date", req.StartDate))
	webutil.RespondWithJSON(w, http.StatusOK, model.StartDateResponse{StartDate: req.StartDate}, logger)
}

// GetMetrics は進捗メトリクスを返すハンドラ
func (h *ProgressHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetMetrics"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	metrics, err := h.service.ComputeMetrics(r.Context(), sessionID)
	if err != nil {
		logger.Error("Error computing metrics in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, metrics, logger)
}

// ExportProgress はバックアップドキュメントを返すハンドラ
func (h *ProgressHandler) ExportProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ExportProgress"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	doc, err := h.service.Export(r.Context(), sessionID)
	if err != nil {
		logger.Error("Error exporting progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress exported successfully")
	webutil.RespondWithJSON(w, http.StatusOK, doc, logger)
}

// ImportProgress はバックアップから状態を復元するハンドラ。
// 必須フィールドが欠けている場合や形式が壊れている場合は400を返し、
// 現在の状態には一切触れない。
func (h *ProgressHandler) ImportProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ImportProgress"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	var doc model.BackupDocument
	if err := webutil.DecodeJSONBody(r, &doc); err != nil {
		logger.Warn("Failed to decode backup document", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_BACKUP", "バックアップの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(doc); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Backup validation failed", slog.Any("errors", validationErrors.Error()))
			firstErr := validationErrors[0]
			translatedMsg := firstErr.Translate(webutil.Trans)
			appErr := model.NewAppError("INVALID_BACKUP", translatedMsg, firstErr.Field(), model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	if err := h.service.Import(r.Context(), sessionID, &doc); err != nil {
		logger.Error("Error importing progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress imported successfully")
	w.WriteHeader(http.StatusNoContent)
}

// ResetProgress は完了セットのみクリアするハンドラ
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ResetProgress"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	if err := h.service.ResetProgress(r.Context(), sessionID); err != nil {
		logger.Error("Error resetting progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress reset successfully")
	w.WriteHeader(http.StatusNoContent)
}

// ResetAll は状態全体を初期化するハンドラ
func (h *ProgressHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ResetAll"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	if err := h.service.ResetAll(r.Context(), sessionID); err != nil {
		logger.Error("Error resetting all progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("All progress reset successfully")
	w.WriteHeader(http.StatusNoContent)
}

// SendReport は進捗サマリーメールを送信するハンドラ
func (h *ProgressHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SendReport"))

	sessionID, err := middleware.GetSessionIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("SESSION_REQUIRED", "セッション情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("session_id", sessionID.String()))

	var req model.SendReportRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()))
			firstErr := validationErrors[0]
			translatedMsg := firstErr.Translate(webutil.Trans)
			appErr := model.NewAppError("VALIDATION_ERROR", translatedMsg, firstErr.Field(), model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	if err := h.report.SendProgressReport(r.Context(), sessionID, req.To); err != nil {
		logger.Error("Error sending progress report in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress report sent successfully", slog.String("to", req.To))
	w.WriteHeader(http.StatusAccepted)
}
