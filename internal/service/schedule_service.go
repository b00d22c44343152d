// internal/service/schedule_service.go
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/repository"

	"github.com/google/uuid"
)

// ScheduleService インターフェース
type ScheduleService interface {
	// GetSchedule はセッションの開始日 (startOverride があればそちら) から
	// 試験日までのスケジュールを生成します。
	GetSchedule(ctx context.Context, sessionID uuid.UUID, startOverride *time.Time) (*model.ScheduleResponse, error)
}

type scheduleService struct {
	catalog  *model.Catalog
	progRepo repository.ProgressRepository
	cfg      *config.Config
}

func NewScheduleService(catalog *model.Catalog, progRepo repository.ProgressRepository, cfg *config.Config) ScheduleService {
	return &scheduleService{
		catalog:  catalog,
		progRepo: progRepo,
		cfg:      cfg,
	}
}

func (s *scheduleService) GetSchedule(ctx context.Context, sessionID uuid.UUID, startOverride *time.Time) (*model.ScheduleResponse, error) {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	// 開始日はセッションの状態から取得する (参照により遅延初期化される)
	state, err := s.progRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to get progress state for schedule", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗状態の取得に失敗しました。", "", err)
	}

	start := state.StartDate
	if startOverride != nil {
		start = *startOverride
	}
	end := s.cfg.ExamDateValue()

	entries, summary := BuildSchedule(start, end, s.catalog)

	resp := &model.ScheduleResponse{
		Entries: make([]model.ScheduleEntryResponse, 0, len(entries)),
		Summary: model.ScheduleSummaryResponse{
			TotalDays:         summary.TotalDays,
			StageCount:        summary.StageCount,
			TotalSubjects:     summary.TotalSubjects,
			AvgDaysPerStage:   summary.AvgDaysPerStage,
			AvgWholeDays:      summary.AvgWholeDays,
			AvgRemainderHours: summary.AvgRemainderHours,
			AvgPerStageLabel:  fmt.Sprintf("%d dias e %d horas", summary.AvgWholeDays, summary.AvgRemainderHours),
		},
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, model.ScheduleEntryResponse{
			StageName: e.StageName,
			StartDate: e.StartDate.Format(config.DateLayout),
			EndDate:   e.EndDate.Format(config.DateLayout),
			Subjects:  e.Subjects,
		})
	}

	logger.Info("Schedule generated", "stages", summary.StageCount, "total_days", summary.TotalDays)
	return resp, nil
}

// BuildSchedule は開始日から固定の終了日までを、空でないステージ数で
// 均等に分割した日付範囲のリストを返します。
//
// 平均日数 (小数) を切り捨てた日数を各ステージに割り当て、最後の
// 空でないステージの終了日だけを固定の終了日に合わせます。これにより
// 切り捨てで生じたズレはすべて最終ステージが吸収します。
// 空でないステージが無ければ空のリストを返します (エラーではない)。
//
// end < start の検証は行いません。呼び出し側が保証しない場合、
// 各エントリは逆転・縮退した範囲になります (意図的に許容)。
func BuildSchedule(start, end time.Time, catalog *model.Catalog) ([]model.ScheduleEntry, model.ScheduleSummary) {
	stages := catalog.NonEmptyStages()
	if len(stages) == 0 {
		return []model.ScheduleEntry{}, model.ScheduleSummary{}
	}

	totalDays := int(end.Sub(start)/(24*time.Hour)) + 1
	avg := float64(totalDays) / float64(len(stages))
	floorDays := int(avg) // 小数部は切り捨てる

	whole := math.Floor(avg)
	remainderHours := int(math.Round((avg - whole) * 24))
	if remainderHours == 24 {
		whole++
		remainderHours = 0
	}

	summary := model.ScheduleSummary{
		TotalDays:         totalDays,
		StageCount:        len(stages),
		AvgDaysPerStage:   avg,
		AvgWholeDays:      int(whole),
		AvgRemainderHours: remainderHours,
	}

	entries := make([]model.ScheduleEntry, 0, len(stages))
	current := start
	for i, stage := range stages {
		entry := model.ScheduleEntry{
			StageName: stage.Name,
			StartDate: current,
			Subjects:  stage.SubjectNames(),
		}
		if i == len(stages)-1 {
			// 最終ステージは必ず固定の終了日で終わる
			entry.EndDate = end
		} else {
			entry.EndDate = current.AddDate(0, 0, floorDays-1)
		}
		entries = append(entries, entry)
		summary.TotalSubjects += len(entry.Subjects)
		current = entry.EndDate.AddDate(0, 0, 1)
	}

	return entries, summary
}
