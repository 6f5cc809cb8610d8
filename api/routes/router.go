package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propscout/propscout-backend/api/controllers"
	webhookcontrollers "github.com/propscout/propscout-backend/api/controllers/webhooks"
	"github.com/propscout/propscout-backend/api/middleware"
	"github.com/propscout/propscout-backend/internal/achievements"
	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/admin"
	"github.com/propscout/propscout-backend/internal/auth"
	"github.com/propscout/propscout-backend/internal/disputes"
	"github.com/propscout/propscout-backend/internal/earnings"
	"github.com/propscout/propscout-backend/internal/payments"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/internal/subscriptions"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/enums"
	"github.com/propscout/propscout-backend/pkg/logger"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	middleware.ResponseStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// Deps carries everything the router mounts. Nil Redis disables the
// idempotency and auth throttling layers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      controllers.Pinger
	Redis   RedisStore
	Metrics http.Handler

	Auth          auth.Service
	Properties    properties.Service
	Visits        visits.Service
	Earnings      earnings.Service
	Achievements  achievements.Service
	Payments      payments.Service
	Subscriptions subscriptions.Service
	Disputes      disputes.Service
	Activity      activity.Service
	Admin         admin.Service
	Webhook       webhookcontrollers.PaystackWebhookService
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL, logg)
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendURL),
	)

	loginPolicy := middleware.LoginAttempts(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterAttempts(cfg.AuthRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, readiness(d)))
	})

	metricsHandler := d.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/callback", controllers.PaymentCallback(d.Payments, logg))
			r.Post("/webhook", webhookcontrollers.PaystackWebhook(d.Webhook, logg))
			r.With(
				middleware.Auth(cfg.JWT, logg),
				middleware.RequireRole(logg, enums.RoleClient),
				middleware.Idempotency(d.Redis, logg),
			).Post("/initialize", controllers.PaymentInitialize(d.Payments, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/properties", func(r chi.Router) {
				r.With(middleware.RequireRole(logg, enums.RoleClient)).Post("/", controllers.PropertyCreate(d.Properties, logg))
				r.With(middleware.RequireRole(logg, enums.RoleClient)).Get("/", controllers.PropertyList(d.Properties, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.RoleClient, enums.RoleAdmin))
					r.Get("/{propertyId}", controllers.PropertyDetail(d.Properties, logg))
					r.Get("/{propertyId}/visits", controllers.PropertyVisits(d.Visits, logg))
				})
			})

			r.With(
				middleware.RequireRole(logg, enums.RoleClient),
				middleware.Idempotency(d.Redis, logg),
			).Post("/visits", controllers.VisitCreate(d.Visits, logg))
			r.Get("/visits/{visitId}", controllers.VisitDetail(d.Visits, logg))
			r.With(middleware.RequireRole(logg, enums.RoleClient)).Put("/visits/{visitId}/rating", controllers.VisitRate(d.Visits, logg))

			r.Route("/scouts", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleScout))
				r.Get("/jobs", controllers.ScoutJobs(d.Visits, logg))
				r.Get("/jobs/mine", controllers.ScoutMyJobs(d.Visits, logg))
				r.Put("/jobs/{visitId}/claim", controllers.ScoutClaim(d.Visits, logg))
				r.Post("/jobs/{visitId}/complete", controllers.ScoutComplete(d.Visits, cfg.Media.MaxUploadBytes(), logg))
				r.Get("/earnings", controllers.ScoutEarnings(d.Earnings, logg))
				r.Get("/achievements", controllers.ScoutAchievements(d.Achievements, logg))
			})

			r.With(middleware.RequireRole(logg, enums.RoleClient)).Get("/subscriptions", controllers.SubscriptionList(d.Subscriptions, logg))

			r.Route("/disputes", func(r chi.Router) {
				r.Get("/", controllers.DisputeList(d.Disputes, logg))
				r.With(middleware.RequireRole(logg, enums.RoleClient, enums.RoleScout)).Post("/", controllers.DisputeFile(d.Disputes, logg))
				r.Get("/{disputeId}", controllers.DisputeDetail(d.Disputes, logg))
			})

			r.Get("/activity", controllers.ActivityList(d.Activity, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/stats", controllers.AdminStats(d.Admin, logg))
				r.Get("/users", controllers.AdminUsers(d.Admin, logg))
				r.Get("/visits", controllers.AdminVisits(d.Admin, logg))
				r.Put("/users/{userId}/role", controllers.AdminUpdateRole(d.Admin, logg))
				r.Put("/disputes/{disputeId}", controllers.AdminUpdateDispute(d.Disputes, logg))
			})
		})
	})

	return r
}

func readiness(d Deps) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if d.DB != nil {
		deps["database"] = d.DB
	}
	if d.Redis != nil {
		deps["redis"] = d.Redis
	}
	return deps
}
