package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propscout/propscout-backend/api/routes"
	"github.com/propscout/propscout-backend/internal/achievements"
	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/admin"
	"github.com/propscout/propscout-backend/internal/auth"
	"github.com/propscout/propscout-backend/internal/disputes"
	"github.com/propscout/propscout-backend/internal/earnings"
	"github.com/propscout/propscout-backend/internal/media"
	"github.com/propscout/propscout-backend/internal/payments"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/internal/subscriptions"
	"github.com/propscout/propscout-backend/internal/users"
	"github.com/propscout/propscout-backend/internal/visits"
	paystackwebhook "github.com/propscout/propscout-backend/internal/webhooks/paystack"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/instance"
	"github.com/propscout/propscout-backend/pkg/logger"
	"github.com/propscout/propscout-backend/pkg/metrics"
	"github.com/propscout/propscout-backend/pkg/migrate"
	"github.com/propscout/propscout-backend/pkg/paystack"
	"github.com/propscout/propscout-backend/pkg/redis"
	"github.com/propscout/propscout-backend/pkg/storage/gcs"
)

const webhookGuardScope = "paystack-webhook"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(bootCtx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}
	defer func() { _ = gcsClient.Close() }()

	paystackClient, err := paystack.NewClient(cfg.Paystack)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	propertiesRepo := properties.NewRepository(conn)
	visitsRepo := visits.NewRepository(conn)
	disputesRepo := disputes.NewRepository(conn)
	subscriptionsRepo := subscriptions.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	propertyService, err := properties.NewService(propertiesRepo)
	if err != nil {
		return err
	}
	activityService, err := activity.NewService(activity.NewRepository(conn))
	if err != nil {
		return err
	}
	earningsService, err := earnings.NewService(earnings.NewRepository(conn), cfg.Pricing)
	if err != nil {
		return err
	}
	achievementsService, err := achievements.NewService(achievements.NewRepository(conn))
	if err != nil {
		return err
	}
	mediaService, err := media.NewService(gcsClient, cfg.Media.MaxUploadBytes())
	if err != nil {
		return err
	}

	visitService, err := visits.NewService(visits.ServiceParams{
		Repo:         visitsRepo,
		DB:           dbClient,
		Properties:   propertiesRepo,
		Media:        media.NewRepository(conn),
		Uploader:     mediaService,
		Earnings:     earningsService,
		Achievements: achievementsService,
		Activity:     activityService,
		ClaimMetrics: metrics.NewClaimMetrics(registry),
		ClaimWindow:  cfg.Visits.ClaimWindow,
		Logger:       logg,
	})
	if err != nil {
		return err
	}

	subscriptionService, err := subscriptions.NewService(subscriptionsRepo, propertiesRepo, activityService, cfg.Pricing.SubscriptionDays)
	if err != nil {
		return err
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway:       paystackClient,
		Properties:    propertiesRepo,
		Users:         usersRepo,
		Subscriptions: subscriptionService,
		Pricing:       cfg.Pricing,
		CallbackURL:   cfg.Paystack.CallbackURL,
		FrontendURL:   cfg.App.FrontendURL,
		Logger:        logg,
	})
	if err != nil {
		return err
	}

	guard, err := paystackwebhook.NewIdempotencyGuard(redisClient, cfg.Paystack.WebhookTTL, webhookGuardScope)
	if err != nil {
		return err
	}
	webhookService, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		Verifier:          paystackClient,
		Events:            paystackwebhook.NewEventRepository(conn),
		Subscriptions:     subscriptionService,
		Visits:            visitService,
		TransactionRunner: dbClient,
		Guard:             guard,
		Metrics:           metrics.NewWebhookMetrics(registry),
		Logger:            logg,
	})
	if err != nil {
		return err
	}

	disputeService, err := disputes.NewService(disputes.ServiceParams{
		Repo:       disputesRepo,
		Visits:     visitsRepo,
		Properties: propertiesRepo,
		Activity:   activityService,
		DB:         dbClient,
	})
	if err != nil {
		return err
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Users:         usersRepo,
		Properties:    propertiesRepo,
		Visits:        visitsRepo,
		Disputes:      disputesRepo,
		Subscriptions: subscriptionsRepo,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(bootCtx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Auth:          authService,
			Properties:    propertyService,
			Visits:        visitService,
			Earnings:      earningsService,
			Achievements:  achievementsService,
			Payments:      paymentService,
			Subscriptions: subscriptionService,
			Disputes:      disputeService,
			Activity:      activityService,
			Admin:         adminService,
			Webhook:       webhookService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
