package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Backend.BaseURL != "https://api.example.test" {
		t.Fatalf("unexpected backend url %q", cfg.Backend.BaseURL)
	}
	if got := cfg.Sync.OrderPollInterval; got != 30*time.Second {
		t.Fatalf("expected order poll 30s, got %v", got)
	}
	if got := cfg.Sync.OfferPollInterval; got != 5*time.Minute {
		t.Fatalf("expected offer poll 5m, got %v", got)
	}
	if cfg.LocalStore.Driver != LocalStoreSQLite {
		t.Fatalf("expected sqlite default, got %q", cfg.LocalStore.Driver)
	}
	fee, threshold, minOrder := cfg.Checkout.Amounts()
	if fee.String() != "50" || threshold.String() != "2000" || minOrder.String() != "2000" {
		t.Fatalf("unexpected checkout amounts fee=%s threshold=%s min=%s", fee, threshold, minOrder)
	}
	if cfg.Checkout.AdvancePercent != 30 {
		t.Fatalf("expected advance percent 30, got %d", cfg.Checkout.AdvancePercent)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvBackendURL); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvBackendURL, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RedisDriverNeedsAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvLocalStoreDriver, LocalStoreRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis driver without url to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	if _, err := Load(); err != nil {
		t.Fatalf("expected redis driver with url to load, got %v", err)
	}
}

func TestLoad_RejectsBadCheckoutSettings(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAdvancePercent, "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected zero advance percent to fail")
	}

	t.Setenv(EnvAdvancePercent, "30")
	t.Setenv(EnvMinOrderValue, "two thousand")
	if _, err := Load(); err == nil {
		t.Fatal("expected non-numeric min order value to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8091")
	t.Setenv(EnvBackendURL, "https://api.example.test")
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

func TestPubSubEnabled(t *testing.T) {
	if (PubSubConfig{PushSubscription: "push-sub"}).Enabled(GCPConfig{}) {
		t.Fatal("push should be disabled without a project")
	}
	if !(PubSubConfig{PushSubscription: "push-sub"}).Enabled(GCPConfig{ProjectID: "p"}) {
		t.Fatal("push should be enabled with project and subscription")
	}
}
