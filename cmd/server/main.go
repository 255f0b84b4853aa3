package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/api"
	"github.com/medtrack/notify/internal/config"
	"github.com/medtrack/notify/internal/consumer"
	"github.com/medtrack/notify/internal/db"
	"github.com/medtrack/notify/internal/kafka"
	"github.com/medtrack/notify/internal/mailer"
	"github.com/medtrack/notify/internal/metrics"
	"github.com/medtrack/notify/internal/producer"
	"github.com/medtrack/notify/internal/ratelimiter"
	"github.com/medtrack/notify/internal/repository"
	"github.com/medtrack/notify/internal/scheduler"
	"github.com/medtrack/notify/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Fatal("failed to load time zone", zap.String("zone", cfg.TimeZone), zap.Error(err))
	}
	clock := scheduler.NewZoneClock(loc)

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	// The queue depth gauge closes over the scheduler variable, which is
	// only assigned after the metrics it needs hooks from exist.
	var expiry *scheduler.Scheduler
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, func() float64 {
		if expiry == nil {
			return 0
		}
		return float64(expiry.Len())
	})

	repo := repository.NewPgProductRepository(pool)
	sender := mailer.NewPostmarkSender(
		cfg.PostmarkServerToken, cfg.PostmarkAccountToken,
		cfg.SenderEmail, cfg.SenderName,
		repo, logger,
	)

	onFired, onSendError := m.SchedulerHooks()
	expiry = scheduler.New(clock, sender, cfg.ExpiryLeadDays, logger, scheduler.Hooks{
		OnFired:     onFired,
		OnSendError: onSendError,
	})

	// ---- kafka ----
	msgProducer, err := kafka.NewProducer(cfg.Brokers, cfg.NotificationTopic, logger)
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}

	resultWriter, err := kafka.NewResultWriter(cfg.Brokers, cfg.ResultsTopic, cfg.ProbeTopic, logger)
	if err != nil {
		logger.Fatal("failed to create result writer", zap.Error(err))
	}

	limiter := ratelimiter.New(cfg.MailRateLimit)
	handler := consumer.NewHandler(
		sender, resultWriter, limiter,
		cfg.MaxRetryAttempts, clock.Now, logger,
		consumer.Hooks{OnProcessed: m.ConsumerHook()},
	)

	cons, err := kafka.NewConsumer(cfg.Brokers, cfg.ConsumerGroup, cfg.NotificationTopic, handler, logger)
	if err != nil {
		logger.Fatal("failed to create kafka consumer", zap.Error(err))
	}

	// ---- background workers ----
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	expiry.Start(workerCtx)
	go cons.Run(workerCtx)

	// ---- services and HTTP server ----
	notifier := producer.New(msgProducer, cfg.ExpiryWarningDays, clock.Now, logger)
	svc := service.NewProductService(repo, expiry, notifier, clock, logger)

	router := api.NewRouter(svc, expiry, resultWriter, pool, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the scheduler worker and the consumer group loop.
	cancelWorkers()
	expiry.Wait()
	if err := cons.Close(); err != nil {
		logger.Error("consumer close error", zap.Error(err))
	}

	// 3. Flush pending publishes, then release the result writer.
	if err := msgProducer.Close(); err != nil {
		logger.Error("producer close error", zap.Error(err))
	}
	if err := resultWriter.Close(); err != nil {
		logger.Error("result writer close error", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
