package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/propscout/propscout-backend/internal/achievements"
	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/cron"
	"github.com/propscout/propscout-backend/internal/earnings"
	"github.com/propscout/propscout-backend/internal/media"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/internal/subscriptions"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/instance"
	"github.com/propscout/propscout-backend/pkg/logger"
	"github.com/propscout/propscout-backend/pkg/metrics"
	"github.com/propscout/propscout-backend/pkg/migrate"
	"github.com/propscout/propscout-backend/pkg/redis"
	"github.com/propscout/propscout-backend/pkg/storage/gcs"
)

const claimBatchSize = 100

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redis.Key("cron", "lock", cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(context.Background(), cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildRegistry wires the maintenance jobs. Claim expiry needs the full visit
// service, including object storage, so it is only built when enabled.
func buildRegistry(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	propertiesRepo := properties.NewRepository(conn)

	activityService, err := activity.NewService(activity.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	subscriptionService, err := subscriptions.NewService(subscriptions.NewRepository(conn), propertiesRepo, activityService, cfg.Pricing.SubscriptionDays)
	if err != nil {
		return nil, err
	}

	registry := cron.NewRegistry()
	expiry, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:        logg,
		Subscriptions: subscriptionService,
	})
	if err != nil {
		return nil, err
	}
	if err := registry.Register(expiry); err != nil {
		return nil, err
	}

	if !cfg.FeatureFlags.ClaimExpiryEnabled {
		return registry, nil
	}

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return nil, err
	}
	mediaService, err := media.NewService(gcsClient, cfg.Media.MaxUploadBytes())
	if err != nil {
		return nil, err
	}
	earningsService, err := earnings.NewService(earnings.NewRepository(conn), cfg.Pricing)
	if err != nil {
		return nil, err
	}
	achievementsService, err := achievements.NewService(achievements.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	visitService, err := visits.NewService(visits.ServiceParams{
		Repo:         visits.NewRepository(conn),
		DB:           dbClient,
		Properties:   propertiesRepo,
		Media:        media.NewRepository(conn),
		Uploader:     mediaService,
		Earnings:     earningsService,
		Achievements: achievementsService,
		Activity:     activityService,
		ClaimWindow:  cfg.Visits.ClaimWindow,
		Logger:       logg,
	})
	if err != nil {
		return nil, err
	}

	release, err := cron.NewClaimExpiryJob(cron.ClaimExpiryJobParams{
		Logger:    logg,
		Visits:    visitService,
		BatchSize: claimBatchSize,
	})
	if err != nil {
		return nil, err
	}
	if err := registry.Register(release); err != nil {
		return nil, err
	}
	return registry, nil
}
