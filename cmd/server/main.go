package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"resumescout/internal/app"
	"resumescout/internal/config"
	"resumescout/internal/ratelimit"
	"resumescout/internal/server"
	"resumescout/internal/session"
	"resumescout/internal/util"
	"resumescout/pkg/ai"
	"resumescout/pkg/docstore"
	"resumescout/pkg/storage"
	"resumescout/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var records store.Store
	if cfg.DatabaseURL != "" {
		records, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init postgres store: %v", err)
		}
	} else {
		slog.Warn("no databaseURL configured, using in-memory store")
		records = store.NewMemoryStore()
	}

	var objects storage.ObjectStore
	switch cfg.StorageBackend {
	case "minio":
		objects, err = storage.NewMinioStore(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL,
		)
	default:
		objects, err = storage.NewFileStore(cfg.StorageDir)
	}
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	generator := ai.NewOpenAICompatGenerator(
		cfg.EvaluatorURL, cfg.EvaluatorAPIKey, cfg.EvaluatorModel,
		cfg.EvaluatorTemperature,
		time.Duration(cfg.EvaluatorTimeoutSeconds)*time.Second,
	)
	scorer := ai.NewScorer(generator, time.Duration(cfg.EvaluatorTimeoutSeconds)*time.Second, 0)

	appCore, err := app.New(app.Config{
		Store:            records,
		Documents:        docstore.New(objects, records, cfg.MaxFileSizeBytes),
		Scorer:           scorer,
		Sessions:         session.NewManager(cfg.MaxJobTextChars, cfg.MaxResumes),
		MaxFileSizeBytes: cfg.MaxFileSizeBytes,
		MaxResumes:       cfg.MaxResumes,
		TopN:             cfg.TopN,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	var limiter server.Limiter
	if cfg.RateLimitPerMinute > 0 {
		rl, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "",
			cfg.RateLimitPerMinute, time.Minute,
		)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
		limiter = rl
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		MaxUploadBytes: cfg.MaxFileSizeBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("resumescout server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
