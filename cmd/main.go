// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"github.com/AlandersondePaula/estudo-cnu/internal/config"
	"github.com/AlandersondePaula/estudo-cnu/internal/handlers"
	"github.com/AlandersondePaula/estudo-cnu/internal/middleware"
	"github.com/AlandersondePaula/estudo-cnu/internal/model"
	"github.com/AlandersondePaula/estudo-cnu/internal/repository"
	"github.com/AlandersondePaula/estudo-cnu/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	// Configを読み込み
	if err := config.LoadConfig("configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	// config.yamlで設定したログレベルを設定
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo) // 不明な場合はInfo
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}
	// config.yamlで設定したログフォーマットを設定
	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		// --- tint Handler を使用 ---
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	log.Println("Log Config Loaded...")

	// Configファイルの読み込み完了後、アプリケーション全体のデフォルトロガーを設定
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// 2. Load Study Plan Catalog
	catalogRepo := repository.NewFileCatalogRepository(config.Cfg.App.CatalogPath)
	catalog, err := catalogRepo.Load(context.Background())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCatalogNotFound):
			slog.Error("Study plan catalog file not found", slog.String("path", config.Cfg.App.CatalogPath), slog.Any("error", err))
		case errors.Is(err, model.ErrCatalogMalformed):
			slog.Error("Study plan catalog is malformed", slog.String("path", config.Cfg.App.CatalogPath), slog.Any("error", err))
		default:
			slog.Error("Error loading study plan catalog", slog.String("path", config.Cfg.App.CatalogPath), slog.Any("error", err))
		}
		os.Exit(1)
	}
	slog.Info("Study plan catalog loaded",
		slog.Int("stages", len(catalog.Stages)),
		slog.Int("total_resources", catalog.TotalResources()),
	)

	// 3. Dependency Injection
	sessionRepo := repository.NewMemorySessionRepository()
	progressRepo := repository.NewMemoryProgressRepository()

	mailer := service.NewMailer(&config.Cfg)

	sessionService := service.NewSessionService(sessionRepo)
	scheduleService := service.NewScheduleService(catalog, progressRepo, &config.Cfg)
	progressService := service.NewProgressService(catalog, progressRepo, &config.Cfg)
	searchService := service.NewSearchService(catalog, progressRepo)
	reportService := service.NewReportService(progressService, mailer, &config.Cfg)

	sessionHandler := handlers.NewSessionHandler(sessionService, logger)
	catalogHandler := handlers.NewCatalogHandler(catalog, logger)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, logger)
	progressHandler := handlers.NewProgressHandler(progressService, reportService, logger)
	searchHandler := handlers.NewSearchHandler(searchService, logger)

	// 4. Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger)) // slogを使うカスタムロガーミドルウェア

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/sessions", sessionHandler.CreateSession) // セッション発行 (認証不要)

		// --- Protected routes (require Session ID) ---
		r.Group(func(r chi.Router) {
			if config.Cfg.Auth.Enabled {
				slog.Info("Applying session authentication middleware")
				r.Use(middleware.SessionAuthMiddleware(sessionService))
			} else {
				slog.Warn("Session authentication is DISABLED (dev mode)")
				r.Use(middleware.DevSessionContextMiddleware)
			}

			r.Get("/catalog", catalogHandler.GetCatalog)
			r.Get("/schedule", scheduleHandler.GetSchedule)
			r.Get("/search", searchHandler.Search)

			// Progress routes
			r.Route("/progress", func(r chi.Router) {
				r.Put("/resources/completion", progressHandler.PutCompletion)
				r.Get("/resources/completion", progressHandler.GetCompletion)
				r.Post("/study-sessions", progressHandler.PostStudySession)
				r.Get("/study-sessions", progressHandler.GetStudySessions)
				r.Put("/start-date", progressHandler.PutStartDate)
				r.Get("/metrics", progressHandler.GetMetrics)
				r.Get("/export", progressHandler.ExportProgress)
				r.Post("/import", progressHandler.ImportProgress)
				r.Post("/reset", progressHandler.ResetProgress)
				r.Post("/reset/all", progressHandler.ResetAll)
				r.Post("/report", progressHandler.SendReport)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1) // Listen失敗は致命的
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
