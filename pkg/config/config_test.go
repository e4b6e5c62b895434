package config

import (
	"os"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8090" {
		t.Fatalf("unexpected default port %q", cfg.App.Port)
	}
	if cfg.API.BaseURL != "http://localhost:8081/api/v1" {
		t.Fatalf("unexpected API base URL %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("expected 10s api timeout, got %v", cfg.API.Timeout)
	}
	if got := cfg.Checkout.GracePeriod; got != 3*time.Second {
		t.Fatalf("expected grace period 3s, got %v", got)
	}
	policy, err := cfg.Checkout.ParsedClearPolicy()
	if err != nil || policy != enums.ClearPolicyOnCommit {
		t.Fatalf("expected on_commit policy, got %q err=%v", policy, err)
	}
	driver, err := cfg.Store.ParsedDriver()
	if err != nil || driver != enums.StoreDriverMemory {
		t.Fatalf("expected memory driver, got %q err=%v", driver, err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreDriver, "redis")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvCheckoutClearPolicy, "always")
	t.Setenv(EnvCheckoutGracePeriod, "250ms")
	t.Setenv(EnvCheckoutMaxConcurrency, "2")
	t.Setenv(EnvCORSOrigins, "http://localhost:3000,https://shop.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Checkout.GracePeriod != 250*time.Millisecond {
		t.Fatalf("unexpected grace period %v", cfg.Checkout.GracePeriod)
	}
	if cfg.Checkout.MaxConcurrency != 2 {
		t.Fatalf("unexpected concurrency %d", cfg.Checkout.MaxConcurrency)
	}
	if len(cfg.App.CORSOrigins) != 2 || cfg.App.CORSOrigins[1] != "https://shop.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestValidate_DriverRequirements(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Store: StoreConfig{Driver: "memory"}, Checkout: CheckoutConfig{ClearPolicy: "on_commit"}}},
		{name: "redis without address", cfg: Config{Store: StoreConfig{Driver: "redis"}, Checkout: CheckoutConfig{ClearPolicy: "on_commit"}}, wantErr: true},
		{name: "redis with address", cfg: Config{Store: StoreConfig{Driver: "redis"}, Redis: RedisConfig{Address: "localhost:6379"}, Checkout: CheckoutConfig{ClearPolicy: "on_commit"}}},
		{name: "sqlite without dsn", cfg: Config{Store: StoreConfig{Driver: "sqlite"}, Checkout: CheckoutConfig{ClearPolicy: "on_commit"}}, wantErr: true},
		{name: "postgres with dsn", cfg: Config{Store: StoreConfig{Driver: "postgres"}, DB: DBConfig{DSN: "postgres://u@h/db"}, Checkout: CheckoutConfig{ClearPolicy: "always"}}},
		{name: "unknown driver", cfg: Config{Store: StoreConfig{Driver: "etcd"}, Checkout: CheckoutConfig{ClearPolicy: "on_commit"}}, wantErr: true},
		{name: "unknown policy", cfg: Config{Store: StoreConfig{Driver: "memory"}, Checkout: CheckoutConfig{ClearPolicy: "never"}}, wantErr: true},
		{name: "negative grace", cfg: Config{Store: StoreConfig{Driver: "memory"}, Checkout: CheckoutConfig{ClearPolicy: "always", GracePeriod: -time.Second}}, wantErr: true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
