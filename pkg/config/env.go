package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "STOREFRONT_APP_ENV"
	EnvPort        = "STOREFRONT_APP_PORT"
	EnvLogLevel    = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat   = "STOREFRONT_LOG_FORMAT"
	EnvCORSOrigins = "STOREFRONT_APP_CORS_ORIGINS"
	EnvAPIBaseURL  = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout  = "STOREFRONT_API_TIMEOUT"
	EnvAPIToken    = "STOREFRONT_API_TOKEN"
	EnvStoreDriver = "STOREFRONT_STORE_DRIVER"
	EnvSessionTTL  = "STOREFRONT_STORE_SESSION_TTL"
	EnvRedisURL    = "STOREFRONT_REDIS_URL"
	EnvRedisAddr   = "STOREFRONT_REDIS_ADDR"
	EnvDBDSN       = "STOREFRONT_DB_DSN"

	EnvCheckoutClearPolicy     = "STOREFRONT_CHECKOUT_CLEAR_POLICY"
	EnvCheckoutGracePeriod     = "STOREFRONT_CHECKOUT_GRACE_PERIOD"
	EnvCheckoutMaxConcurrency  = "STOREFRONT_CHECKOUT_MAX_CONCURRENCY"
	EnvCheckoutRollbackTimeout = "STOREFRONT_CHECKOUT_ROLLBACK_TIMEOUT"
)
