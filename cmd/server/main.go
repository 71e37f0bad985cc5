package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bookit/internal/api"
	"bookit/internal/cache"
	"bookit/internal/config"
	"bookit/internal/database"
	"bookit/internal/interval"
	"bookit/internal/metrics"
	"bookit/internal/notify"
	"bookit/internal/policy"
	"bookit/internal/scheduler"
	"bookit/internal/service"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("BOOKIT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	calendar := cache.NewCalendar(rdb, cfg.CalendarCacheTTL(), logger)

	notifyCfg := notify.DefaultConfig()
	if cfg.Notify.RatePerSecond > 0 {
		notifyCfg.RatePerSecond = cfg.Notify.RatePerSecond
	}
	if cfg.Notify.Burst > 0 {
		notifyCfg.Burst = cfg.Notify.Burst
	}
	if cfg.Notify.MaxRetries > 0 {
		notifyCfg.MaxRetries = cfg.Notify.MaxRetries
	}
	dispatcher := notify.NewDispatcher(notify.NewLogTransport(logger), notifyCfg, logger)
	sink := notify.NewInAppSink(db, logger)

	perms := policy.New(db)
	checker := interval.LinearChecker{}

	bookings := service.NewBookingService(db, checker, perms, dispatcher, sink, service.BookingOptions{
		Horizon:          cfg.BookingHorizon(),
		CancelCutoff:     cfg.CancelCutoff(),
		ReminderLead:     cfg.ReminderLead(),
		ReminderWindow:   cfg.ReminderWindow(),
		AutoCancelLead:   cfg.AutoCancelLead(),
		AutoCancelWindow: cfg.AutoCancelWindow(),
	}, logger)

	waitlist := service.NewWaitlistService(db, checker, perms, dispatcher, sink, service.WaitlistOptions{
		Horizon:         cfg.BookingHorizon(),
		MaxActivePerDay: cfg.WaitlistMaxActivePerDay(),
	}, logger)
	bookings.SetWaitlistSignal(waitlist)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(scheduler.Config{
		ReminderInterval:   cfg.ReminderSweepInterval(),
		AutoCancelInterval: cfg.AutoCancelSweepInterval(),
		ExpiryInterval:     cfg.ExpirySweepInterval(),
	}, bookings, waitlist, logger)
	sched.Start(ctx)
	defer sched.Stop()
	// Catch up on anything that came due while the process was down.
	sched.RunNow(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewServer(db, bookings, waitlist, calendar, logger)
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", port).Msg("bookit server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("bookit server stopped")
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
