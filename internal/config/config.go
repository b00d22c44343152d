// internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	App struct {
		// 試験日 (固定の終了日)。"YYYY-MM-DD" 形式。
		ExamDate string `mapstructure:"exam_date"`
		// 学習計画カタログ (JSON) のパス
		CatalogPath string `mapstructure:"catalog_path"`
	} `mapstructure:"app"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Auth struct {
		// true の場合、セッションIDがレジストリに存在するか検証する。
		// false の場合は開発用ミドルウェア (形式チェックのみ) を使う。
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"auth"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	Mailer struct {
		Type string `mapstructure:"type"` // "log", "smtp", "ses"
	} `mapstructure:"mailer"`
	SMTP SMTPConfig `mapstructure:"smtp"`
	SES  SESConfig  `mapstructure:"ses"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	From string `mapstructure:"from"`
}

type SESConfig struct {
	Region          string `mapstructure:"region"`
	AuthType        string `mapstructure:"auth_type"` // "static_credentials" or "iam_role"
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	From            string `mapstructure:"from"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数での上書きを許可する (例: APP_AUTH_ENABLED)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	viper.BindEnv("app.catalog_path", "CATALOG_PATH")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		log.Println("Server port not set, using default ':8080'")
		Cfg.Server.Port = DefaultServerPort
	}
	if Cfg.App.ExamDate == "" {
		log.Printf("Exam date not set, using default '%s'", DefaultExamDate)
		Cfg.App.ExamDate = DefaultExamDate
	}
	// 形式が不正な場合は起動時に気づけるようにここで検証する
	if _, err := time.Parse(DateLayout, Cfg.App.ExamDate); err != nil {
		log.Printf("Error parsing app.exam_date '%s': %s\n", Cfg.App.ExamDate, err)
		return err
	}
	if Cfg.App.CatalogPath == "" {
		log.Printf("Catalog path not set, using default '%s'", DefaultCatalogPath)
		Cfg.App.CatalogPath = DefaultCatalogPath
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = DefaultLogLevel
	}

	// Auth.Enabled のデフォルト値を設定 (未設定なら true = 検証あり にする)
	if !viper.IsSet("auth.enabled") {
		log.Println("Auth enabled flag not set, defaulting to true (enabled)")
		Cfg.Auth.Enabled = true
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Exam Date: %s", Cfg.App.ExamDate)
	log.Printf("Catalog Path: %s", Cfg.App.CatalogPath)
	log.Printf("Auth Enabled: %t", Cfg.Auth.Enabled)

	return nil
}

// ExamDateValue はパース済みの試験日を返します。
// LoadConfig で形式を検証済みのため、ここでのエラーは起こらない想定です。
func (c *Config) ExamDateValue() time.Time {
	t, _ := time.Parse(DateLayout, c.App.ExamDate)
	return t
}
