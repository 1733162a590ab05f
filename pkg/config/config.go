// Package config loads every binary's settings from GAMESTORE_* environment
// variables through envconfig.
package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Stripe        StripeConfig
	Cron          CronConfig
	CORS          CORSConfig
}

// Load reads the environment and fills DB.DSN from its parts when unset.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		dsn, err := cfg.DB.dsnFromParts()
		if err != nil {
			return nil, err
		}
		cfg.DB.DSN = dsn
	}
	return cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GAMESTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"GAMESTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GAMESTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GAMESTORE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"GAMESTORE_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

// ConsoleLogs is true for GAMESTORE_LOG_FORMAT=console.
func (a AppConfig) ConsoleLogs() bool { return strings.EqualFold(a.LogFormat, "console") }

// DBConfig takes either a full DSN or discrete host/user/name parts.
type DBConfig struct {
	DSN string `envconfig:"GAMESTORE_DB_DSN"`

	Host     string `envconfig:"GAMESTORE_DB_HOST"`
	Port     int    `envconfig:"GAMESTORE_DB_PORT" default:"5432"`
	User     string `envconfig:"GAMESTORE_DB_USER"`
	Password string `envconfig:"GAMESTORE_DB_PASSWORD"`
	Name     string `envconfig:"GAMESTORE_DB_NAME"`
	SSLMode  string `envconfig:"GAMESTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GAMESTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GAMESTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GAMESTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GAMESTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d DBConfig) dsnFromParts() (string, error) {
	var missing []string
	for env, value := range map[string]string{EnvDBHost: d.Host, EnvDBUser: d.User, EnvDBName: d.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("set %s or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	user := url.User(d.User)
	if d.Password != "" {
		user = url.UserPassword(d.User, d.Password)
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   d.Name,
	}
	if d.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return dsn.String(), nil
}

type RedisConfig struct {
	URL          string        `envconfig:"GAMESTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GAMESTORE_REDIS_ADDR"`
	Password     string        `envconfig:"GAMESTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GAMESTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GAMESTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GAMESTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GAMESTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GAMESTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GAMESTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GAMESTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GAMESTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GAMESTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GAMESTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL is zero when unset or negative.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(max(j.RefreshTokenTTLMinutes, 0)) * time.Minute
}

// PasswordConfig holds argon2id costs; out-of-range values are clamped when
// hashing.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GAMESTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GAMESTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GAMESTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GAMESTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GAMESTORE_ARGON_KEY_LEN" default:"32"`
}

// AuthRateLimitConfig sets fixed-window limits per client IP and per email.
// A zero limit disables that dimension.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GAMESTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GAMESTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GAMESTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GAMESTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GAMESTORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GAMESTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GAMESTORE_AUTO_MIGRATE" default:"false"`
	EnableSeed  bool `envconfig:"GAMESTORE_ENABLE_SEED" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"GAMESTORE_EVENTING_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GAMESTORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GAMESTORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GAMESTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names the publish topics. Subscriptions, when set, are only
// checked for existence at startup.
type PubSubConfig struct {
	OrdersTopic              string `envconfig:"GAMESTORE_PUBSUB_ORDERS_TOPIC" default:"gs-order-events"`
	OrdersSubscription       string `envconfig:"GAMESTORE_PUBSUB_ORDERS_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"GAMESTORE_PUBSUB_NOTIFICATION_TOPIC" default:"gs-notification-events"`
	NotificationSubscription string `envconfig:"GAMESTORE_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GAMESTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GAMESTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GAMESTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"GAMESTORE_STRIPE_API_KEY"`
	Secret     string `envconfig:"GAMESTORE_STRIPE_SECRET"`
	Env        string `envconfig:"GAMESTORE_STRIPE_ENV" default:"test"`
	Currency   string `envconfig:"GAMESTORE_STRIPE_CURRENCY" default:"usd"`
	SuccessURL string `envconfig:"GAMESTORE_STRIPE_SUCCESS_URL" default:"http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL  string `envconfig:"GAMESTORE_STRIPE_CANCEL_URL" default:"http://localhost:3000/cart"`
}

// Environment is the lower-cased Env, "test" when blank.
func (s StripeConfig) Environment() string {
	if env := strings.ToLower(strings.TrimSpace(s.Env)); env != "" {
		return env
	}
	return "test"
}

// Enabled reports whether both the API key and webhook secret are set.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.Secret) != ""
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"GAMESTORE_CRON_INTERVAL" default:"1h"`
	StaleCartDays       int           `envconfig:"GAMESTORE_CRON_STALE_CART_DAYS" default:"30"`
	OutboxRetentionDays int           `envconfig:"GAMESTORE_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GAMESTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
