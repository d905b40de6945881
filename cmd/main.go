package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/Dosada05/tennis-tournament/config"
	"github.com/Dosada05/tennis-tournament/db"
	"github.com/Dosada05/tennis-tournament/handlers"
	"github.com/Dosada05/tennis-tournament/metrics"
	"github.com/Dosada05/tennis-tournament/ranking"
	"github.com/Dosada05/tennis-tournament/repositories"
	api "github.com/Dosada05/tennis-tournament/routes"
	"github.com/Dosada05/tennis-tournament/services"
	"github.com/Dosada05/tennis-tournament/storage"
	"github.com/go-chi/chi/v5"
)

const leaderboardCacheControl = "public, max-age=60"

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Шаблоны сеток загружаются один раз; битая таблица не даёт стартовать.
	var source brackets.TemplateSource = brackets.EmbeddedTemplates{}
	if cfg.TemplatesPath != "" {
		source = brackets.FileTemplates{Path: cfg.TemplatesPath}
	}
	templates := brackets.NewTemplateCache(source)
	if err := templates.Load(); err != nil {
		logger.Error("failed to load bracket templates", slog.String("source", source.Name()), slog.Any("error", err))
		os.Exit(1)
	}
	engine := brackets.NewEngine(templates)
	logger.Info("bracket templates loaded", slog.String("source", source.Name()))

	ranker, err := ranking.NewRanker(cfg.RankingLocale)
	if err != nil {
		logger.Error("failed to initialize ranker", slog.String("locale", cfg.RankingLocale), slog.Any("error", err))
		os.Exit(1)
	}

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	m := metrics.New()

	// Публикация рейтингов в Cloudflare R2 (опционально)
	var publisher *storage.LeaderboardPublisher
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
		CacheControl:    leaderboardCacheControl,
	}
	if r2Config.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = storage.NewLeaderboardPublisher(uploader)
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("R2 is not configured, leaderboard publishing disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	tx := repositories.NewTransactor(dbConn, logger)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	overrideRepo := repositories.NewPostgresRuleOverrideRepository(dbConn)
	rankingRepo := repositories.NewPostgresRankingRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	rankingService := services.NewRankingService(
		tx,
		rankingRepo,
		resultRepo,
		ranker,
		wsHub,
		publisher,
		m,
		logger,
		services.RankingServiceConfig{SeedingTopN: cfg.SeedingTopN},
	)
	matchService := services.NewMatchService(tx, matchRepo, overrideRepo, rankingService, wsHub, m, logger)
	bracketService := services.NewBracketService(engine, tournamentRepo, rankingService, m, logger)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	bracketHandler := handlers.NewBracketHandler(bracketService)
	matchHandler := handlers.NewMatchHandler(matchService)
	rankingHandler := handlers.NewRankingHandler(rankingService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Metrics:        m.Handler(),
			Logger:         logger,
		},
		bracketHandler,
		matchHandler,
		rankingHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			cancel()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// Закрываем WebSocket-клиентов после остановки HTTP-сервера.
	cancel()
	logger.Info("application exited")
}
