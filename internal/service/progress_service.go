// internal/service/progress_service.go
package service

import (
	"context"
	"time"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/repository"

	"github.com/google/uuid"
)

// ProgressService は進捗状態 (ProgressState) を所有する唯一のコンポーネントです。
// すべての操作は最初に状態の遅延初期化を保証します。
type ProgressService interface {
	SetCompletion(ctx context.Context, sessionID uuid.UUID, key string, complete bool) error
	IsComplete(ctx context.Context, sessionID uuid.UUID, key string) (bool, error)
	LogStudySession(ctx context.Context, sessionID uuid.UUID, durationMinutes int, subjects []string) (*model.StudySession, error)
	ListStudySessions(ctx context.Context, sessionID uuid.UUID) ([]model.StudySession, error)
	SetStartDate(ctx context.Context, sessionID uuid.UUID, startDate time.Time) error
	ComputeMetrics(ctx context.Context, sessionID uuid.UUID) (*model.MetricsResponse, error)
	Export(ctx context.Context, sessionID uuid.UUID) (*model.BackupDocument, error)
	Import(ctx context.Context, sessionID uuid.UUID, doc *model.BackupDocument) error
	ResetProgress(ctx context.Context, sessionID uuid.UUID) error
	ResetAll(ctx context.Context, sessionID uuid.UUID) error
}

type progressService struct {
	catalog  *model.Catalog
	progRepo repository.ProgressRepository
	cfg      *config.Config
}

func NewProgressService(catalog *model.Catalog, progRepo repository.ProgressRepository, cfg *config.Config) ProgressService {
	return &progressService{
		catalog:  catalog,
		progRepo: progRepo,
		cfg:      cfg,
	}
}

// state は遅延初期化込みで状態を取得する内部ヘルパーです
func (s *progressService) state(ctx context.Context, sessionID uuid.UUID) (*model.ProgressState, error) {
	state, err := s.progRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗状態の取得に失敗しました。", "", err)
	}
	return state, nil
}

// SetCompletion はリソースの完了状態を設定します。冪等で、
// すでに目的の状態であっても何もせず成功します。
func (s *progressService) SetCompletion(ctx context.Context, sessionID uuid.UUID, key string, complete bool) error {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID, "key", key)

	state, err := s.state(ctx, sessionID)
	if err != nil {
		return err
	}

	if complete {
		state.Completed[key] = struct{}{}
	} else {
		delete(state.Completed, key)
	}
	state.Touch(time.Now())

	logger.Info("Completion updated", "is_complete", complete, "completed_count", len(state.Completed))
	return nil
}

// IsComplete は完了状態を返します。状態を変更しませんが、
// 未初期化のセッションでは副作用として既定値の状態が生成されます
// (読み取りは未使用のセッションでも失敗してはならないため)。
func (s *progressService) IsComplete(ctx context.Context, sessionID uuid.UUID, key string) (bool, error) {
	state, err := s.state(ctx, sessionID)
	if err != nil {
		return false, err
	}
	_, ok := state.Completed[key]
	return ok, nil
}

func (s *progressService) LogStudySession(ctx context.Context, sessionID uuid.UUID, durationMinutes int, subjects []string) (*model.StudySession, error) {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	if durationMinutes <= 0 {
		return nil, model.NewAppError("INVALID_DURATION", "学習時間(分)は1以上で入力してください。", "duration_minutes", model.ErrInvalidInput)
	}

	state, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := model.StudySession{
		Timestamp:       now,
		DurationMinutes: durationMinutes,
		Subjects:        subjects,
	}
	if session.Subjects == nil {
		session.Subjects = []string{}
	}
	state.Sessions = append(state.Sessions, session)
	state.Touch(now)

	logger.Info("Study session logged", "duration_minutes", durationMinutes, "session_count", len(state.Sessions))
	return &session, nil
}

func (s *progressService) ListStudySessions(ctx context.Context, sessionID uuid.UUID) ([]model.StudySession, error) {
	state, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// 内部スライスへの参照を返さないようコピーする
	sessions := make([]model.StudySession, len(state.Sessions))
	copy(sessions, state.Sessions)
	return sessions, nil
}

func (s *progressService) SetStartDate(ctx context.Context, sessionID uuid.UUID, startDate time.Time) error {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	state, err := s.state(ctx, sessionID)
	if err != nil {
		return err
	}

	state.StartDate = startDate
	state.Touch(time.Now())

	logger.Info("Start date updated", "start_date", startDate.Format(config.DateLayout))
	return nil
}

// ComputeMetrics は進捗メトリクスを計算します。
// カウンタのキャッシュは持たず、カタログの全リソースのキーを
// 毎回導出し直して完了セットと突き合わせるため、結果は常に
// 現在の完了セットと整合します。
func (s *progressService) ComputeMetrics(ctx context.Context, sessionID uuid.UUID) (*model.MetricsResponse, error) {
	state, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	metrics := &model.MetricsResponse{
		PerStagePercent: make(map[string]float64),
	}

	for _, stage := range s.catalog.Stages {
		stageTotal := 0
		stageCompleted := 0
		for _, subject := range stage.Subjects {
			for _, group := range subject.Groups {
				for i, res := range group.Resources {
					key := DeriveResourceKey(stage.Name, subject.Name, group.TypeName, i+1, res.Description)
					stageTotal++
					if _, ok := state.Completed[key]; ok {
						stageCompleted++
					}
				}
			}
		}
		metrics.TotalResources += stageTotal
		metrics.CompletedCount += stageCompleted
		// リソースを持たないステージはパーセンテージを出さない (ゼロ除算回避)
		if stageTotal > 0 {
			metrics.PerStagePercent[stage.Name] = float64(stageCompleted) / float64(stageTotal) * 100
		}
	}

	if metrics.TotalResources > 0 {
		metrics.CompletionPercent = float64(metrics.CompletedCount) / float64(metrics.TotalResources) * 100
	}

	for _, sess := range state.Sessions {
		metrics.TotalStudyMinutes += sess.DurationMinutes
	}
	metrics.SessionCount = len(state.Sessions)
	if metrics.SessionCount > 0 {
		metrics.AverageSessionMinutes = float64(metrics.TotalStudyMinutes) / float64(metrics.SessionCount)
	}

	return metrics, nil
}

// Export は状態全体のスナップショットにエクスポート日時を付けて返します。
// Import が無損失で読み戻せる形式です。
func (s *progressService) Export(ctx context.Context, sessionID uuid.UUID) (*model.BackupDocument, error) {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	state, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	startDate := state.StartDate.Format(config.DateLayout)
	completed := state.CompletedKeys()
	sessions := make([]model.BackupStudySession, 0, len(state.Sessions))
	for _, sess := range state.Sessions {
		sessions = append(sessions, model.BackupStudySession{
			Timestamp:       sess.Timestamp.Format(time.RFC3339),
			DurationMinutes: sess.DurationMinutes,
			Subjects:        sess.Subjects,
		})
	}

	settings := make(map[string]any, len(state.Settings))
	for k, v := range state.Settings {
		settings[k] = v
	}

	doc := &model.BackupDocument{
		StartDate:          &startDate,
		CompletedResources: &completed,
		StudySessions:      &sessions,
		Settings:           settings,
		InitializedAt:      state.InitializedAt.Format(time.RFC3339),
		LastAccess:         state.LastAccess.Format(time.RFC3339),
		ExportedAt:         time.Now().Format(time.RFC3339),
	}

	logger.Info("Progress exported", "completed_count", len(completed), "session_count", len(sessions))
	return doc, nil
}

// Import はバックアップから状態を復元します。
// 必須フィールド (start_date / completed_resources / study_sessions) の
// 存在チェックはハンドラ側のバリデーションで行われますが、ここでも
// nil を拒否します。失敗した場合は現在の状態に一切手を付けません
// (新しい状態を完全に組み立ててから差し替える)。
func (s *progressService) Import(ctx context.Context, sessionID uuid.UUID, doc *model.BackupDocument) error {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	if doc == nil || doc.StartDate == nil || doc.CompletedResources == nil || doc.StudySessions == nil {
		return model.NewAppError("INVALID_BACKUP", "バックアップに必須フィールドがありません。", "", model.ErrInvalidInput)
	}

	startDate, err := time.Parse(config.DateLayout, *doc.StartDate)
	if err != nil {
		logger.Warn("Import rejected: invalid start_date", "start_date", *doc.StartDate)
		return model.NewAppError("INVALID_BACKUP", "start_dateの形式が正しくありません。", "start_date", model.ErrInvalidInput)
	}

	now := time.Now()
	newState := model.NewProgressState(now)
	newState.StartDate = startDate

	for _, key := range *doc.CompletedResources {
		newState.Completed[key] = struct{}{}
	}

	for i, sess := range *doc.StudySessions {
		ts, err := time.Parse(time.RFC3339, sess.Timestamp)
		if err != nil {
			logger.Warn("Import rejected: invalid session timestamp", "index", i, "timestamp", sess.Timestamp)
			return model.NewAppError("INVALID_BACKUP", "study_sessionsのtimestampの形式が正しくありません。", "study_sessions", model.ErrInvalidInput)
		}
		subjects := sess.Subjects
		if subjects == nil {
			subjects = []string{}
		}
		newState.Sessions = append(newState.Sessions, model.StudySession{
			Timestamp:       ts,
			DurationMinutes: sess.DurationMinutes,
			Subjects:        subjects,
		})
	}

	if doc.Settings != nil {
		for k, v := range doc.Settings {
			newState.Settings[k] = v
		}
	}
	if doc.InitializedAt != "" {
		if ts, err := time.Parse(time.RFC3339, doc.InitializedAt); err == nil {
			newState.InitializedAt = ts
		}
	}
	// LastAccess はインポート時点の時刻で刻印する (復元値は使わない)
	newState.Touch(now)

	if err := s.progRepo.Replace(ctx, sessionID, newState); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗状態の復元に失敗しました。", "", err)
	}

	logger.Info("Progress imported",
		"completed_count", len(newState.Completed),
		"session_count", len(newState.Sessions),
	)
	return nil
}

// ResetProgress は完了セットのみをクリアします。
// 学習記録・設定・開始日はそのまま残ります。
func (s *progressService) ResetProgress(ctx context.Context, sessionID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	state, err := s.state(ctx, sessionID)
	if err != nil {
		return err
	}

	state.Completed = make(map[string]struct{})
	state.Touch(time.Now())

	logger.Info("Completion set cleared")
	return nil
}

// ResetAll は状態全体を既定値で作り直します (初期化日時も新しくなる)。
func (s *progressService) ResetAll(ctx context.Context, sessionID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("session_id", sessionID)

	if err := s.progRepo.Replace(ctx, sessionID, model.NewProgressState(time.Now())); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗状態のリセットに失敗しました。", "", err)
	}

	logger.Info("Progress state fully reset")
	return nil
}
