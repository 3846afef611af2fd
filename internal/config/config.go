package config // package config loads application configuration from environment variables

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration values.  Each section maps a group
// of environment variables; required variables make Load fail instead of
// silently falling back to a default.
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	RabbitMQ  RabbitMQConfig
	Sentry    SentryConfig
	PDF       PDFConfig
	S3        S3Config
	Invoice   InvoiceConfig
}

// AppConfig covers the HTTP server itself.
type AppConfig struct {
	Env               string `envconfig:"APP_ENV" default:"dev"`               // dev/test/prod
	Port              string `envconfig:"APP_PORT" default:"8080"`             // port to bind the HTTP server
	TimeZone          string `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"` // calendar used for monthly windows
	LogFilePath       string `envconfig:"LOG_FILE_PATH"`                       // empty logs to stdout
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	BodyLimit         string `envconfig:"BODY_LIMIT" default:"1M"`
	AllowRegistration bool   `envconfig:"ALLOW_REGISTRATION" default:"true"`
	ActivityLogPath   string `envconfig:"ACTIVITY_LOG_PATH" default:"logs/activity.log"`
}

// DBConfig describes the MySQL connection.
type DBConfig struct {
	User            string        `envconfig:"DB_USER" required:"true"`
	Pass            string        `envconfig:"DB_PASS"` // empty allowed
	Host            string        `envconfig:"DB_HOST" required:"true"`
	Port            string        `envconfig:"DB_PORT" default:"3306"`
	Name            string        `envconfig:"DB_NAME" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// JWTConfig configures access/refresh tokens and password hashing.
type JWTConfig struct {
	Secret         string `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMin   int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"`
	RefreshTTLDays int    `envconfig:"REFRESH_TOKEN_TTL_DAYS" default:"7"`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"10"`
}

// RabbitMQConfig configures activity event publishing.  An empty URL turns
// publishing and the consumer off.
type RabbitMQConfig struct {
	URL             string `envconfig:"RABBITMQ_URL"`
	ActivityQueue   string `envconfig:"RABBITMQ_ACTIVITY_QUEUE" default:"activity.logged"`
	ConsumerEnabled bool   `envconfig:"RABBITMQ_CONSUMER_ENABLED" default:"true"`
	Prefetch        int    `envconfig:"RABBITMQ_PREFETCH" default:"50"`
}

// SentryConfig enables exception tracking when DSN is set.
type SentryConfig struct {
	DSN              string  `envconfig:"SENTRY_DSN"`
	TracesSampleRate float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
}

// PDFConfig configures the headless Chrome used to print invoices.
type PDFConfig struct {
	ChromeURL string        `envconfig:"PDF_CHROME_URL"` // remote devtools endpoint, empty launches a local browser
	NoSandbox bool          `envconfig:"PDF_NO_SANDBOX" default:"true"`
	Timeout   time.Duration `envconfig:"PDF_TIMEOUT" default:"30s"`
	Company   string        `envconfig:"PDF_COMPANY_NAME" default:"SITRAVEL"`
	Address   string        `envconfig:"PDF_COMPANY_ADDRESS" default:"Jl. Soekarno Hatta No.9"`
	Phone     string        `envconfig:"PDF_COMPANY_PHONE"`
	Email     string        `envconfig:"PDF_COMPANY_EMAIL"`
	City      string        `envconfig:"PDF_CITY" default:"Malang"`
	BankInfo  string        `envconfig:"PDF_BANK_INFO"`
}

// S3Config enables archiving rendered invoices.  Archiving is off unless a
// bucket is configured.
type S3Config struct {
	Endpoint     string `envconfig:"S3_ENDPOINT"`
	Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	Bucket       string `envconfig:"S3_BUCKET"`
	AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	SecretKey    string `envconfig:"S3_SECRET_KEY"`
	UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"true"`
	Prefix       string `envconfig:"S3_PREFIX" default:"invoices"`
}

// Enabled reports whether enough settings are present to talk to a bucket.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// InvoiceConfig holds billing defaults.
type InvoiceConfig struct {
	DefaultFee        decimal.Decimal `envconfig:"INVOICE_DEFAULT_FEE" default:"10000"`
	DefaultDueDays    int             `envconfig:"INVOICE_DUE_DAYS" default:"7"`
	SettlementTimeout time.Duration   `envconfig:"SETTLEMENT_TIMEOUT" default:"10s"`
	PaidActor         string          `envconfig:"SETTLEMENT_ACTOR" default:"Finance Admin"`
	ReservationActor  string          `envconfig:"RESERVATION_ACTOR" default:"Travel Admin"`
}

// Load reads configuration values from environment variables.  Callers are
// expected to have loaded any .env file beforehand.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if _, err := time.LoadLocation(c.App.TimeZone); err != nil {
		return Config{}, fmt.Errorf("load config: APP_TIMEZONE: %w", err)
	}
	if c.Invoice.DefaultFee.IsNegative() {
		return Config{}, fmt.Errorf("load config: INVOICE_DEFAULT_FEE must not be negative")
	}
	return c, nil
}

// Location returns the configured calendar time zone.  Load has already
// validated the name, so UTC is only returned for zero-value configs.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
