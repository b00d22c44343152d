// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "EstudoCNU"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort  = ":8080"
	DefaultLogLevel    = "info"
	DefaultExamDate    = "2025-10-04" // CNU 2025 の試験日
	DefaultCatalogPath = "data/study_plan.json"
)

// 日付・日時のシリアライズ形式
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05Z07:00" // RFC3339
)

// リソースキー生成時に説明文から使う最大文字数。
// この長さを変えると過去にエクスポートしたバックアップのキーと
// 一致しなくなるため、変更する場合はキーのバージョニングが必要。
const ResourceKeyDescriptionLen = 20
