package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	LocalStoreSQLite = "sqlite"
	LocalStoreRedis  = "redis"

	EnvAppEnv            = "STOREFRONT_APP_ENV"
	EnvPort              = "STOREFRONT_APP_PORT"
	EnvBackendURL        = "STOREFRONT_BACKEND_URL"
	EnvLocalStoreDriver  = "STOREFRONT_LOCAL_STORE_DRIVER"
	EnvRedisURL          = "STOREFRONT_REDIS_URL"
	EnvOrderPollInterval = "STOREFRONT_SYNC_ORDER_POLL_INTERVAL"
	EnvMinOrderValue     = "STOREFRONT_CHECKOUT_MIN_ORDER_VALUE"
	EnvAdvancePercent    = "STOREFRONT_CHECKOUT_ADVANCE_PERCENT"
)

type Config struct {
	App        AppConfig
	Backend    BackendConfig
	Session    SessionConfig
	Sync       SyncConfig
	Checkout   CheckoutConfig
	LocalStore LocalStoreConfig
	Redis      RedisConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvBackendURL, err)
	}
	switch c.LocalStore.Driver {
	case LocalStoreSQLite:
		if strings.TrimSpace(c.LocalStore.SQLitePath) == "" {
			return fmt.Errorf("sqlite path is required for the sqlite local store")
		}
	case LocalStoreRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or redis address is required for the redis local store", EnvRedisURL)
		}
	default:
		return fmt.Errorf("%s must be %q or %q", EnvLocalStoreDriver, LocalStoreSQLite, LocalStoreRedis)
	}
	if c.Sync.OrderPollInterval <= 0 || c.Sync.OfferPollInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.Checkout.AdvancePercent <= 0 || c.Checkout.AdvancePercent > 100 {
		return fmt.Errorf("%s must be within (0, 100]", EnvAdvancePercent)
	}
	for name, raw := range map[string]string{
		"delivery fee":            c.Checkout.DeliveryFee,
		"free delivery threshold": c.Checkout.FreeDeliveryThreshold,
		"min order value":         c.Checkout.MinOrderValue,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("invalid checkout %s %q: %w", name, raw, err)
		}
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_BACKEND_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"10s"`
}

// SessionConfig seeds the shopper session. A credential stored locally wins
// over the seed token.
type SessionConfig struct {
	SeedToken string `envconfig:"STOREFRONT_SESSION_TOKEN"`
}

type SyncConfig struct {
	OrderPollInterval time.Duration `envconfig:"STOREFRONT_SYNC_ORDER_POLL_INTERVAL" default:"30s"`
	OfferPollInterval time.Duration `envconfig:"STOREFRONT_SYNC_OFFER_POLL_INTERVAL" default:"5m"`
	OfferWindow       time.Duration `envconfig:"STOREFRONT_SYNC_OFFER_WINDOW" default:"24h"`
	OrderMaxBackoff   time.Duration `envconfig:"STOREFRONT_SYNC_ORDER_MAX_BACKOFF" default:"5m"`
	OfferMaxBackoff   time.Duration `envconfig:"STOREFRONT_SYNC_OFFER_MAX_BACKOFF" default:"30m"`
}

type CheckoutConfig struct {
	DeliveryFee           string `envconfig:"STOREFRONT_CHECKOUT_DELIVERY_FEE" default:"50"`
	FreeDeliveryThreshold string `envconfig:"STOREFRONT_CHECKOUT_FREE_DELIVERY_THRESHOLD" default:"2000"`
	MinOrderValue         string `envconfig:"STOREFRONT_CHECKOUT_MIN_ORDER_VALUE" default:"2000"`
	AdvancePercent        int64  `envconfig:"STOREFRONT_CHECKOUT_ADVANCE_PERCENT" default:"30"`
	Currency              string `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"INR"`
	MerchantName          string `envconfig:"STOREFRONT_CHECKOUT_MERCHANT_NAME" default:"Storefront"`
}

// Amounts returns the decimal forms of the checkout money settings. Load has
// already validated them, so parse failures fall back to zero.
func (c CheckoutConfig) Amounts() (deliveryFee, freeThreshold, minOrder decimal.Decimal) {
	parse := func(raw string) decimal.Decimal {
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero
		}
		return v
	}
	return parse(c.DeliveryFee), parse(c.FreeDeliveryThreshold), parse(c.MinOrderValue)
}

type LocalStoreConfig struct {
	Driver     string `envconfig:"STOREFRONT_LOCAL_STORE_DRIVER" default:"sqlite"`
	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

// PubSubConfig names the push-notification subscription. Push is disabled
// when either the project or the subscription is empty.
type PubSubConfig struct {
	PushSubscription string `envconfig:"STOREFRONT_PUBSUB_PUSH_SUBSCRIPTION"`
}

func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(p.PushSubscription) != "" && strings.TrimSpace(gcp.ProjectID) != ""
}
