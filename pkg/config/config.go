package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Store    StoreConfig
	Redis    RedisConfig
	DB       DBConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the settings that depend on one another.
func (c *Config) Validate() error {
	driver, err := c.Store.ParsedDriver()
	if err != nil {
		return err
	}
	switch {
	case driver == enums.StoreDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s or %s is required for the redis store", EnvRedisURL, EnvRedisAddr)
		}
	case driver.IsSQL():
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required for the %s store", EnvDBDSN, driver)
		}
	}
	if _, err := c.Checkout.ParsedClearPolicy(); err != nil {
		return err
	}
	if c.Checkout.MaxConcurrency < 0 {
		return fmt.Errorf("%s must not be negative", EnvCheckoutMaxConcurrency)
	}
	if c.Checkout.GracePeriod < 0 {
		return fmt.Errorf("%s must not be negative", EnvCheckoutGracePeriod)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	// CORSOrigins is a comma separated allow-list for browser clients.
	CORSOrigins     []string      `envconfig:"STOREFRONT_APP_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_APP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the gateways at the remote product/order API.
type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:8081/api/v1"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"10s"`
	Token   string        `envconfig:"STOREFRONT_API_TOKEN"`
}

type StoreConfig struct {
	Driver     string        `envconfig:"STOREFRONT_STORE_DRIVER" default:"memory"`
	SessionTTL time.Duration `envconfig:"STOREFRONT_STORE_SESSION_TTL" default:"24h"`
}

func (s StoreConfig) ParsedDriver() (enums.StoreDriver, error) {
	return enums.ParseStoreDriver(s.Driver)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type CheckoutConfig struct {
	ClearPolicy     string        `envconfig:"STOREFRONT_CHECKOUT_CLEAR_POLICY" default:"on_commit"`
	GracePeriod     time.Duration `envconfig:"STOREFRONT_CHECKOUT_GRACE_PERIOD" default:"3s"`
	MaxConcurrency  int           `envconfig:"STOREFRONT_CHECKOUT_MAX_CONCURRENCY" default:"8"`
	RollbackTimeout time.Duration `envconfig:"STOREFRONT_CHECKOUT_ROLLBACK_TIMEOUT" default:"10s"`
}

func (c CheckoutConfig) ParsedClearPolicy() (enums.ClearPolicy, error) {
	return enums.ParseClearPolicy(c.ClearPolicy)
}
