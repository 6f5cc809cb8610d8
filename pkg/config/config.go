package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config is built once per process and handed to every component that needs it.
type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Paystack      PaystackConfig
	Pricing       PricingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	Visits        VisitsConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROPSCOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"PROPSCOUT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROPSCOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROPSCOUT_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"PROPSCOUT_FRONTEND_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PROPSCOUT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PROPSCOUT_DB_DSN"`
	Driver string `envconfig:"PROPSCOUT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROPSCOUT_DB_HOST"`
	LegacyPort     int    `envconfig:"PROPSCOUT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROPSCOUT_DB_USER"`
	LegacyPassword string `envconfig:"PROPSCOUT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROPSCOUT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROPSCOUT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROPSCOUT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROPSCOUT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROPSCOUT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROPSCOUT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"PROPSCOUT_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROPSCOUT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROPSCOUT_REDIS_ADDR"`
	Password     string        `envconfig:"PROPSCOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROPSCOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROPSCOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROPSCOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROPSCOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROPSCOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROPSCOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PROPSCOUT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PROPSCOUT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PROPSCOUT_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PROPSCOUT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PROPSCOUT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PROPSCOUT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PROPSCOUT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PROPSCOUT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PROPSCOUT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PROPSCOUT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PROPSCOUT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PROPSCOUT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PROPSCOUT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PROPSCOUT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// RateLimitConfig drives the per-client token bucket applied to the whole API.
type RateLimitConfig struct {
	RequestsPerSecond float64       `envconfig:"PROPSCOUT_RATE_LIMIT_RPS" default:"10"`
	Burst             int           `envconfig:"PROPSCOUT_RATE_LIMIT_BURST" default:"20"`
	IdleTTL           time.Duration `envconfig:"PROPSCOUT_RATE_LIMIT_IDLE_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate        bool `envconfig:"PROPSCOUT_AUTO_MIGRATE" default:"false"`
	ClaimExpiryEnabled bool `envconfig:"PROPSCOUT_CLAIM_EXPIRY_ENABLED" default:"false"`
}

type PaystackConfig struct {
	SecretKey   string        `envconfig:"PROPSCOUT_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL     string        `envconfig:"PROPSCOUT_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL string        `envconfig:"PROPSCOUT_PAYSTACK_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"PROPSCOUT_PAYSTACK_TIMEOUT" default:"10s"`
	WebhookTTL  time.Duration `envconfig:"PROPSCOUT_PAYSTACK_WEBHOOK_TTL" default:"720h"`
}

// PricingConfig holds naira amounts as decimal strings; Kobo converts them.
type PricingConfig struct {
	Currency         string `envconfig:"PROPSCOUT_PRICING_CURRENCY" default:"NGN"`
	BasicMonthly     string `envconfig:"PROPSCOUT_PRICING_BASIC_MONTHLY" default:"15000.00"`
	PremiumMonthly   string `envconfig:"PROPSCOUT_PRICING_PREMIUM_MONTHLY" default:"35000.00"`
	OneOffVisit      string `envconfig:"PROPSCOUT_PRICING_ONE_OFF_VISIT" default:"7500.00"`
	ScoutVisitPayout string `envconfig:"PROPSCOUT_PRICING_SCOUT_VISIT_PAYOUT" default:"5000.00"`
	SubscriptionDays int    `envconfig:"PROPSCOUT_PRICING_SUBSCRIPTION_DAYS" default:"30"`
}

// Kobo converts a naira decimal string to the minor unit Paystack expects.
func Kobo(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", amount)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

func (p PricingConfig) validate() error {
	for name, value := range map[string]string{
		EnvPricingBasic:   p.BasicMonthly,
		EnvPricingPremium: p.PremiumMonthly,
		EnvPricingVisit:   p.OneOffVisit,
		EnvPricingPayout:  p.ScoutVisitPayout,
	} {
		if _, err := Kobo(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if p.SubscriptionDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvPricingSubscriptionDays)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROPSCOUT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PROPSCOUT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PROPSCOUT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"PROPSCOUT_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string `envconfig:"PROPSCOUT_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"PROPSCOUT_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes is the ceiling applied to a single proof photo.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type VisitsConfig struct {
	ClaimWindow time.Duration `envconfig:"PROPSCOUT_VISIT_CLAIM_WINDOW" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PROPSCOUT_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"PROPSCOUT_CRON_LOCK_TTL" default:"4m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
