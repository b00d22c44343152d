// internal/model/progress.go
package model

import (
	"sort"
	"time"
)

// StudySession は1回の学習記録です。追記のみで、後から変更されません。
type StudySession struct {
	Timestamp       time.Time `json:"timestamp"`
	DurationMinutes int       `json:"duration_minutes"`
	Subjects        []string  `json:"subjects"`
}

// ProgressState は1セッション分の学習進捗の全状態です。
// ProgressService だけが所有・更新します。カタログとは独立しており、
// リソースは導出キー (service.DeriveResourceKey) で参照します。
type ProgressState struct {
	StartDate     time.Time
	Completed     map[string]struct{}
	Sessions      []StudySession
	Settings      map[string]any
	InitializedAt time.Time
	LastAccess    time.Time
}

// NewProgressState は初期状態を生成します。
// 開始日は「今日」、完了セット・学習記録・設定は空で初期化されます。
func NewProgressState(now time.Time) *ProgressState {
	return &ProgressState{
		StartDate:     now.Truncate(24 * time.Hour),
		Completed:     make(map[string]struct{}),
		Sessions:      []StudySession{},
		Settings:      make(map[string]any),
		InitializedAt: now,
		LastAccess:    now,
	}
}

// CompletedKeys は完了済みキーをソート済みで返します。
// set の走査順は不定のため、エクスポートの再現性のためにソートします。
func (p *ProgressState) CompletedKeys() []string {
	keys := make([]string, 0, len(p.Completed))
	for k := range p.Completed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Touch は最終アクセス日時を更新します。更新系の操作から呼ばれます。
func (p *ProgressState) Touch(now time.Time) {
	p.LastAccess = now
}

// --- リクエスト/レスポンス DTO ---

// 完了状態の更新リクエスト。キーはURLに載せると
// エスケープが必要な文字を含むためボディで受け取ります。
type PutCompletionRequest struct {
	Key        string `json:"key" validate:"required"`
	IsComplete *bool  `json:"is_complete" validate:"required"`
}

type CompletionResponse struct {
	Key        string `json:"key"`
	IsComplete bool   `json:"is_complete"`
}

type LogStudySessionRequest struct {
	DurationMinutes int      `json:"duration_minutes" validate:"required,min=1"`
	Subjects        []string `json:"subjects" validate:"omitempty,dive,min=1"`
}

type SetStartDateRequest struct {
	StartDate string `json:"start_date" validate:"required"`
}

type StartDateResponse struct {
	StartDate string `json:"start_date"`
}

// MetricsResponse は進捗メトリクスのレスポンスです。
// すべて現在の状態とカタログから毎回導出され、キャッシュされません。
type MetricsResponse struct {
	TotalResources        int                `json:"total_resources"`
	CompletedCount        int                `json:"completed_count"`
	CompletionPercent     float64            `json:"completion_percent"`
	PerStagePercent       map[string]float64 `json:"per_stage_percent"`
	TotalStudyMinutes     int                `json:"total_study_minutes"`
	SessionCount          int                `json:"session_count"`
	AverageSessionMinutes float64            `json:"average_session_minutes"`
}
