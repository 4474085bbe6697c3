package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthdesk/clinic-booking/internal/api"
	"github.com/healthdesk/clinic-booking/internal/booking"
	"github.com/healthdesk/clinic-booking/internal/calendar"
	"github.com/healthdesk/clinic-booking/internal/config"
	"github.com/healthdesk/clinic-booking/internal/db"
	"github.com/healthdesk/clinic-booking/internal/notify"
	redisclient "github.com/healthdesk/clinic-booking/internal/redis"
	"github.com/healthdesk/clinic-booking/pkg/logging"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("api-server starting",
		"env", cfg.Env,
		"http_port", cfg.HTTPPort,
		"booking_timezone", cfg.BookingTimezone,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to redis")

	// Email transport: SendGrid when configured, stub otherwise.
	var mailer notify.Sender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	}, logger); sg != nil {
		mailer = sg
	} else {
		logger.Warn("SENDGRID_API_KEY not set, using stub email sender")
		mailer = notify.NewStubSender(logger)
	}

	// Calendar transport: Google Calendar when configured, stub otherwise.
	var cal calendar.Client
	if cfg.GoogleCredentialsFile != "" {
		gc, err := calendar.NewGoogleClient(rootCtx, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID, logger)
		if err != nil {
			logger.Error("google calendar setup error", "error", err)
			os.Exit(1)
		}
		cal = gc
	} else {
		logger.Warn("GOOGLE_CREDENTIALS_FILE not set, using stub calendar client")
		cal = calendar.NewStubClient(logger)
	}

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, locker, mailer, cal, cfg.Location, logger)

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
