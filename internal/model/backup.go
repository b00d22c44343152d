// internal/model/backup.go
package model

// BackupDocument はエクスポート/インポートで使う唯一の交換形式です。
// start_date / completed_resources / study_sessions の3つは
// インポート時の必須フィールドで、欠けている場合は拒否されます
// (ポインタにして validator の required で nil を検出します)。
type BackupDocument struct {
	StartDate          *string               `json:"start_date" validate:"required"`
	CompletedResources *[]string             `json:"completed_resources" validate:"required"`
	StudySessions      *[]BackupStudySession `json:"study_sessions" validate:"required,dive"`
	Settings           map[string]any        `json:"settings,omitempty"`
	InitializedAt      string                `json:"initialized_at,omitempty"`
	LastAccess         string                `json:"last_access,omitempty"`
	ExportedAt         string                `json:"exported_at,omitempty"`
}

type BackupStudySession struct {
	Timestamp       string   `json:"timestamp" validate:"required"`
	DurationMinutes int      `json:"duration_minutes" validate:"min=1"`
	Subjects        []string `json:"subjects"`
}
