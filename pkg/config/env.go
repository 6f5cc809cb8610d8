package config

const (
	EnvPrefix = "PROPSCOUT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv         = "PROPSCOUT_APP_ENV"
	EnvPort           = "PROPSCOUT_APP_PORT"
	EnvDBDSN          = "PROPSCOUT_DB_DSN"
	EnvDBHost         = "PROPSCOUT_DB_HOST"
	EnvDBUser         = "PROPSCOUT_DB_USER"
	EnvDBName         = "PROPSCOUT_DB_NAME"
	EnvRedisURL       = "PROPSCOUT_REDIS_URL"
	EnvJWTSecret      = "PROPSCOUT_JWT_SECRET"
	EnvJWTIssuer      = "PROPSCOUT_JWT_ISSUER"
	EnvJWTExpMins     = "PROPSCOUT_JWT_EXPIRATION_MINUTES"
	EnvPaystackSecret = "PROPSCOUT_PAYSTACK_SECRET_KEY"
	EnvGCSBucket      = "PROPSCOUT_GCS_BUCKET_NAME"
	EnvClaimExpiry    = "PROPSCOUT_CLAIM_EXPIRY_ENABLED"
	EnvPricingBasic   = "PROPSCOUT_PRICING_BASIC_MONTHLY"
	EnvPricingPremium = "PROPSCOUT_PRICING_PREMIUM_MONTHLY"
	EnvPricingVisit   = "PROPSCOUT_PRICING_ONE_OFF_VISIT"
	EnvPricingPayout  = "PROPSCOUT_PRICING_SCOUT_VISIT_PAYOUT"

	EnvPricingSubscriptionDays = "PROPSCOUT_PRICING_SUBSCRIPTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
