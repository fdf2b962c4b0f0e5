package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/capture"
	"github.com/iliyamo/fishtrack/internal/config" // Internal config loader
	"github.com/iliyamo/fishtrack/internal/database"
	"github.com/iliyamo/fishtrack/internal/handler"
	"github.com/iliyamo/fishtrack/internal/logging"
	"github.com/iliyamo/fishtrack/internal/reporting"
	"github.com/iliyamo/fishtrack/internal/repository"
	"github.com/iliyamo/fishtrack/internal/router" // Internal router setup
	"github.com/iliyamo/fishtrack/internal/service"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/storage"
	"github.com/iliyamo/fishtrack/internal/weather"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins
	cfg := config.Load() // Load environment config

	log := logging.Must(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.Fatal("schema migration failed", zap.Error(err))
	}
	cancel()

	rep := reporting.New(cfg.SentryDSN, cfg.Env, log)
	defer rep.Flush(2 * time.Second)

	// Redis is optional: without it the cache and rate limiter pass through.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, cache and rate limit disabled", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher capture.Publisher = service.NopPublisher{}
	if qc := config.LoadQueueConfig(); qc.Enabled {
		publisher = service.NewQueuePublisher(qc.URL, qc.Queue, log)
		log.Info("capture events enabled", zap.String("queue", qc.Queue))
	}

	var mailer session.Mailer = service.LogMailer{Log: log}
	if mc := config.LoadMailConfig(); mc.URL != "" && mc.APIKey != "" {
		mailer = service.NewMailtrapMailer(mc, &http.Client{Timeout: 10 * time.Second})
	}

	var photos handler.PhotoSaver
	if sc := config.LoadStorageConfig(); sc.Enabled {
		store, err := storage.NewPhotoStore(sc)
		if err != nil {
			log.Fatal("photo storage init failed", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureBucket(ctx); err != nil {
			log.Warn("photo bucket check failed", zap.String("bucket", sc.Bucket), zap.Error(err))
		}
		cancel()
		photos = store
	}

	sessions := session.NewGateway(repository.NewUserRepo(db), repository.NewTokenRepo(db), mailer, session.Options{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
		ResetURL:       cfg.ResetURL,
	}, log.Named("session"))
	captures := capture.NewGateway(repository.NewCaptureRepo(db), publisher, log.Named("capture"))
	wc := config.LoadWeatherConfig()
	wx := weather.NewClient(wc, &http.Client{Timeout: wc.Timeout}, log.Named("weather"))

	e := router.New(router.Deps{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
		Reporter:  rep,
		Health:    &handler.HealthHandler{DB: db},
		Auth:      handler.NewAuthHandler(sessions),
		Captures:  handler.NewCaptureHandler(captures),
		Weather:   handler.NewWeatherHandler(wx),
		Photos:    handler.NewPhotoHandler(photos),
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return database.OpenSQLite(cfg.DBPath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
