package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendfleet/vendfleet-backend/internal/alerts"
	"github.com/vendfleet/vendfleet-backend/internal/cron"
	machinesvc "github.com/vendfleet/vendfleet-backend/internal/machines"
	notificationsvc "github.com/vendfleet/vendfleet-backend/internal/notifications"
	usersvc "github.com/vendfleet/vendfleet-backend/internal/users"
	"github.com/vendfleet/vendfleet-backend/pkg/config"
	"github.com/vendfleet/vendfleet-backend/pkg/db"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/mailer"
	"github.com/vendfleet/vendfleet-backend/pkg/metrics"
	"github.com/vendfleet/vendfleet-backend/pkg/migrate"
	"github.com/vendfleet/vendfleet-backend/pkg/redis"
)

const lockKeyFormat = "sweep-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweep-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sweep-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sweep-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// Mail is optional; with no API key the sweep still transitions
	// machines and records audit rows.
	var mailTransport alerts.Mailer
	if cfg.Sendgrid.APIKey != "" {
		sendgridMailer, err := mailer.NewSendgrid(cfg.Sendgrid, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create sendgrid mailer", err)
			os.Exit(1)
		}
		mailTransport = sendgridMailer
	} else {
		logg.Warn(context.Background(), "sendgrid api key not set; offline alerts are audit-only")
	}

	dispatcher, err := alerts.NewDispatcher(alerts.DispatcherParams{
		Logger:       logg,
		Users:        usersvc.NewRepository(dbClient.DB()),
		Audit:        notificationsvc.NewRepository(dbClient.DB()),
		Mailer:       mailTransport,
		DashboardURL: cfg.Sendgrid.DashboardURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create alert dispatcher", err)
		os.Exit(1)
	}

	machineService, err := machinesvc.NewService(machinesvc.ServiceParams{
		Logger:    logg,
		Repo:      machinesvc.NewRepository(dbClient.DB()),
		Alerter:   dispatcher,
		Tolerance: cfg.Sweep.Tolerance,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create machine service", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewMachineOfflineJob(cron.MachineOfflineJobParams{
		Logger:  logg,
		Sweeper: machineService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), cfg.Sweep.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"tolerance":   cfg.Sweep.Tolerance.String(),
		"interval":    cfg.Sweep.Interval.String(),
	})
	logg.Info(ctx, "starting sweep worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sweep worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sweep worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
