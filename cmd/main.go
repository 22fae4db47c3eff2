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

	"github.com/Dosada05/prediction-pool/config"
	"github.com/Dosada05/prediction-pool/db"
	"github.com/Dosada05/prediction-pool/handlers"
	"github.com/Dosada05/prediction-pool/realtime"
	"github.com/Dosada05/prediction-pool/repositories"
	api "github.com/Dosada05/prediction-pool/routes"
	"github.com/Dosada05/prediction-pool/scoring"
	"github.com/Dosada05/prediction-pool/services"
	"github.com/Dosada05/prediction-pool/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
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

	// Объектное хранилище опционально: без него недоступны импорт
	// расписаний и выгрузка снимков, остальное работает.
	var objectStorage storage.ObjectStorage
	if cfg.R2Configured() {
		objectStorage, err = storage.NewCloudflareR2Storage(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 storage initialized")
	} else {
		logger.Warn("object storage is not configured, schedule import and snapshot export disabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresGroupStandingRepository(dbConn)
	resultRepo := repositories.NewPostgresTournamentResultRepository(dbConn)
	matchPredRepo := repositories.NewPostgresMatchPredictionRepository(dbConn)
	groupPredRepo := repositories.NewPostgresGroupPredictionRepository(dbConn)
	topscorerPredRepo := repositories.NewPostgresTopscorerPredictionRepository(dbConn)
	winnerPredRepo := repositories.NewPostgresWinnerPredictionRepository(dbConn)
	poolRepo := repositories.NewPostgresPoolRepository(dbConn)
	auditRepo := repositories.NewPostgresAuditLogRepository(dbConn)
	statsRepo := repositories.NewPostgresMemberStatsRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	policy := scoring.DefaultPolicy
	authService := services.NewAuthService(userRepo)
	auditService := services.NewAuditService(auditRepo)
	lifecycleService := services.NewLifecycleService(dbConn, resultRepo, auditRepo, logger)
	resultService := services.NewResultService(dbConn, matchRepo, standingRepo, resultRepo, auditRepo, logger)
	rankingService := services.NewRankingService(dbConn, poolRepo, logger)
	recomputeService := services.NewRecomputeService(
		matchRepo,
		matchPredRepo,
		standingRepo,
		groupPredRepo,
		topscorerPredRepo,
		winnerPredRepo,
		resultRepo,
		auditRepo,
		rankingService,
		wsHub,
		policy,
		logger,
	)
	statsService := services.NewStatsService(dbConn, tournamentRepo, poolRepo, statsRepo, auditRepo, objectStorage, logger)
	scheduleService := services.NewScheduleService(tournamentRepo, matchRepo, objectStorage, logger)
	logger.Info("services initialized")

	// HTTP-обработчики
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	resultHandler := handlers.NewResultHandler(resultService)
	lifecycleHandler := handlers.NewLifecycleHandler(lifecycleService)
	recomputeHandler := handlers.NewRecomputeHandler(recomputeService)
	leaderboardHandler := handlers.NewLeaderboardHandler(rankingService)
	auditHandler := handlers.NewAuditHandler(auditService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	statsHandler := handlers.NewStatsHandler(statsService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		authHandler,
		resultHandler,
		lifecycleHandler,
		recomputeHandler,
		leaderboardHandler,
		auditHandler,
		scheduleHandler,
		statsHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
