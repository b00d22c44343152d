// internal/model/schedule.go
package model

import "time"

// ScheduleEntry は1ステージ分の日付範囲です。
// 隣接するエントリは隙間なく連続し、最後のエントリの終了日は
// 必ず固定の試験日と一致します。
type ScheduleEntry struct {
	StageName string
	StartDate time.Time
	EndDate   time.Time
	Subjects  []string
}

// ScheduleSummary はスケジュール全体の統計です。
// エントリの再集計ではなく、平均値 (小数) から導出されます。
type ScheduleSummary struct {
	TotalDays         int     // 開始日から試験日までの日数 (両端含む)
	StageCount        int     // 空でないステージ数
	TotalSubjects     int     // 全エントリの科目数合計
	AvgDaysPerStage   float64 // 1ステージあたりの平均日数 (小数)
	AvgWholeDays      int     // 平均の整数日部分
	AvgRemainderHours int     // 平均の端数を時間に換算して丸めたもの
}

// --- レスポンス DTO ---

type ScheduleEntryResponse struct {
	StageName string   `json:"stage_name"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Subjects  []string `json:"subjects"`
}

type ScheduleSummaryResponse struct {
	TotalDays         int     `json:"total_days"`
	StageCount        int     `json:"stage_count"`
	TotalSubjects     int     `json:"total_subjects"`
	AvgDaysPerStage   float64 `json:"avg_days_per_stage"`
	AvgWholeDays      int     `json:"avg_whole_days"`
	AvgRemainderHours int     `json:"avg_remainder_hours"`
	AvgPerStageLabel  string  `json:"avg_per_stage_label"` // 例: "55 dias e 10 horas"
}

type ScheduleResponse struct {
	Entries []ScheduleEntryResponse `json:"entries"`
	Summary ScheduleSummaryResponse `json:"summary"`
}
