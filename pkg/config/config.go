package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CMC_DB_DSN"
	EnvDBHost = "CMC_DB_HOST"
	EnvDBUser = "CMC_DB_USER"
	EnvDBName = "CMC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AuthRate  AuthRateLimitConfig
	Password  PasswordConfig
	Stripe    StripeConfig
	SMTP      SMTPConfig
	Templates TemplatesConfig
	Donations DonationsConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Features  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CMC_APP_ENV" required:"true"`
	Port         string `envconfig:"CMC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CMC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CMC_LOG_WARN_STACK" default:"false"`
	// PublicBaseURL is the site origin used when building campaign links
	// embedded in notification emails and payment-link redirects.
	PublicBaseURL string `envconfig:"CMC_PUBLIC_BASE_URL" default:"https://coffeemorningchallenge.ie"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CMC_DB_DSN"`
	Driver string `envconfig:"CMC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CMC_DB_HOST"`
	LegacyPort     int    `envconfig:"CMC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CMC_DB_USER"`
	LegacyPassword string `envconfig:"CMC_DB_PASSWORD"`
	LegacyName     string `envconfig:"CMC_DB_NAME"`
	LegacySSLMode  string `envconfig:"CMC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CMC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CMC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CMC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CMC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CMC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CMC_REDIS_ADDR"`
	Password     string        `envconfig:"CMC_REDIS_PASSWORD"`
	DB           int           `envconfig:"CMC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CMC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CMC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CMC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CMC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CMC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CMC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CMC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CMC_JWT_EXPIRATION_MINUTES" default:"60"`
	// SessionIdleMinutes bounds admin inactivity; every authenticated
	// request checks lastActivity + idle timeout against now.
	SessionIdleMinutes int `envconfig:"CMC_SESSION_IDLE_MINUTES" default:"30"`
}

// SessionIdleTimeout returns the admin idle timeout as a duration.
func (j JWTConfig) SessionIdleTimeout() time.Duration {
	if j.SessionIdleMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionIdleMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"CMC_LOGIN_RATE_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"CMC_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"CMC_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CMC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CMC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CMC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CMC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CMC_ARGON_KEY_LEN" default:"32"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"CMC_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"CMC_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"CMC_STRIPE_ENV" default:"test"`
	Currency      string `envconfig:"CMC_STRIPE_CURRENCY" default:"eur"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SMTPConfig struct {
	Host     string        `envconfig:"CMC_SMTP_HOST"`
	Port     int           `envconfig:"CMC_SMTP_PORT" default:"587"`
	Username string        `envconfig:"CMC_SMTP_USERNAME"`
	Password string        `envconfig:"CMC_SMTP_PASSWORD"`
	From     string        `envconfig:"CMC_SMTP_FROM"`
	Timeout  time.Duration `envconfig:"CMC_SMTP_TIMEOUT" default:"20s"`
}

type TemplatesConfig struct {
	RefreshInterval time.Duration `envconfig:"CMC_TEMPLATE_REFRESH_INTERVAL" default:"5m"`
}

type DonationsConfig struct {
	// MinAmountMinor is the smallest accepted donation in minor units.
	MinAmountMinor int64 `envconfig:"CMC_DONATION_MIN_AMOUNT_MINOR" default:"100"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"CMC_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ChangesTopic        string `envconfig:"CMC_PUBSUB_CHANGES_TOPIC" default:"cmc-table-changes"`
	ChangesSubscription string `envconfig:"CMC_PUBSUB_CHANGES_SUBSCRIPTION"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CMC_AUTO_MIGRATE" default:"false"`
	// Realtime toggles the table-change fanout; safe to run without it.
	Realtime bool `envconfig:"CMC_FEATURE_REALTIME" default:"false"`
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
