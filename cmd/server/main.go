package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nineaccord/salesboard/internal/api"
	"github.com/nineaccord/salesboard/internal/api/middleware"
	"github.com/nineaccord/salesboard/internal/cache"
	"github.com/nineaccord/salesboard/internal/config"
	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/ingest"
	"github.com/nineaccord/salesboard/internal/repository"
	"github.com/nineaccord/salesboard/internal/repository/postgres"
	"github.com/nineaccord/salesboard/internal/service"
	"github.com/nineaccord/salesboard/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Configure(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.Open(context.Background(), &cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	var (
		salesRepo repository.SalesRepository    = postgres.NewSalesRepository(db, cfg.Ingest.BatchSize)
		runRepo   repository.IngestRunRepository = postgres.NewIngestRunRepository(db)
	)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := salesRepo.EnsureSchema(bootCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to prepare schema")
	}

	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialise report cache")
	}
	reportCache := cache.NewReportCache(store)
	defer reportCache.Close()
	logger.Log.Info().Str("backend", cfg.Cache.Backend).Int("ttl_seconds", cfg.Cache.TTLSeconds).Msg("report cache ready")

	reportService := service.NewReportService(salesRepo, reportCache)

	var runner *ingest.Runner
	source, err := ingest.SourceFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Log.Warn().Err(err).Str("source", cfg.Ingest.Source).Msg("ingestion disabled")
	} else {
		ingester := ingest.NewIngester(source, salesRepo, cfg.Ingest.BackorderTab)
		runner = ingest.NewRunner(ingester, reportCache, ingest.RunnerOptions{
			QueueSize: cfg.Ingest.QueueSize,
			Timeout:   time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second,
			Recorder:  runRepo,
		})
		runner.OnComplete(func(job domain.Job) {
			logger.Log.Info().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("data update finished")
		})
		runner.Start()
		defer runner.Stop()
	}
	cancelBoot()

	sessions, err := middleware.NewSessions(cfg.Auth)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to configure authentication")
	}

	router := api.NewRouter(&api.Services{
		ReportService:     reportService,
		Runner:            runner,
		Sessions:          sessions,
		UpdateWaitTimeout: time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
