// internal/service/report_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"

	"github.com/google/uuid"
)

// ReportService は進捗サマリーをメールで送信します。
// 設定の notifications フラグの解釈など、メールに関する判断は
// すべてこの層 (コアの外側) で行い、進捗エンジン自体は関与しません。
type ReportService interface {
	SendProgressReport(ctx context.Context, sessionID uuid.UUID, to string) error
}

type reportService struct {
	progressService ProgressService
	mailer          Mailer
	cfg             *config.Config
}

func NewReportService(progressService ProgressService, mailer Mailer, cfg *config.Config) ReportService {
	return &reportService{
		progressService: progressService,
		mailer:          mailer,
		cfg:             cfg,
	}
}

func (s *reportService) SendProgressReport(ctx context.Context, sessionID uuid.UUID, to string) error {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	metrics, err := s.progressService.ComputeMetrics(ctx, sessionID)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("[%s] 学習進捗レポート", config.AppName)
	body := buildReportBody(metrics, s.cfg.App.ExamDate)

	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		logger.Error("Failed to send progress report", "error", err, "to", to)
		return model.NewAppError("MAIL_SEND_FAILED", "進捗レポートの送信に失敗しました。", "", model.ErrInternalServer)
	}

	logger.Info("Progress report sent", "to", to)
	return nil
}

func buildReportBody(metrics *model.MetricsResponse, examDate string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "試験日: %s\n\n", examDate)
	fmt.Fprintf(&b, "完了リソース: %d / %d (%.1f%%)\n", metrics.CompletedCount, metrics.TotalResources, metrics.CompletionPercent)
	fmt.Fprintf(&b, "学習記録: %d回 / 合計%d分 (平均%.1f分)\n", metrics.SessionCount, metrics.TotalStudyMinutes, metrics.AverageSessionMinutes)
	if len(metrics.PerStagePercent) > 0 {
		b.WriteString("\nステージ別進捗:\n")
		stages := make([]string, 0, len(metrics.PerStagePercent))
		for stage := range metrics.PerStagePercent {
			stages = append(stages, stage)
		}
		sort.Strings(stages) // mapの走査順は不定のため
		for _, stage := range stages {
			fmt.Fprintf(&b, "  %s: %.1f%%\n", stage, metrics.PerStagePercent[stage])
		}
	}
	return b.String()
}
