package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

// minProdSecretLen is the shortest HS256 secret accepted outside dev.
const minProdSecretLen = 32

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Fixtures      FixturesConfig
	Automation    AutomationConfig
	WhatsApp      WhatsAppConfig
	Telegram      TelegramConfig
	GCP           GCPConfig
	GCS           GCSConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = DefaultSQLiteDSN
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// validate reports every inconsistent setting at once rather than the
// first one found.
func (c *Config) validate() error {
	var errs error
	check := func(ok bool, msg string) {
		if !ok {
			errs = multierr.Append(errs, errors.New(msg))
		}
	}
	if tz := strings.TrimSpace(c.App.Timezone); tz != "" {
		_, err := time.LoadLocation(tz)
		check(err == nil, EnvTimezone+" is not a known IANA zone")
	}
	check(c.JWT.ExpirationMinutes > 0, EnvJWTExpMins+" must be positive")
	check(!c.App.IsProd() || len(c.JWT.Secret) >= minProdSecretLen,
		fmt.Sprintf("%s must be at least %d bytes in prod", EnvJWTSecret, minProdSecretLen))
	check(c.Automation.Interval > 0, EnvAutomationInterval+" must be positive")
	check(!c.WhatsApp.Enabled || (c.WhatsApp.BaseURL != "" && c.WhatsApp.Token != ""),
		EnvWhatsAppEnabled+" needs base url and token")
	check(!c.Telegram.Enabled || (c.Telegram.Token != "" && c.Telegram.ChatID != 0),
		"telegram alerts need token and chat id")
	check(c.GCS.MaxUploadMB > 0, "max upload size must be positive")
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"CARTELA_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTELA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARTELA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTELA_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"CARTELA_LOG_FORMAT" default:"json"`
	Timezone     string `envconfig:"CARTELA_TIMEZONE" default:"America/Sao_Paulo"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the configured timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	if strings.TrimSpace(a.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ServiceConfig struct {
	Kind string `envconfig:"CARTELA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CARTELA_DB_DSN"`
	Driver string `envconfig:"CARTELA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CARTELA_DB_HOST"`
	Port     int    `envconfig:"CARTELA_DB_PORT" default:"5432"`
	User     string `envconfig:"CARTELA_DB_USER"`
	Password string `envconfig:"CARTELA_DB_PASSWORD"`
	Name     string `envconfig:"CARTELA_DB_NAME"`
	SSLMode  string `envconfig:"CARTELA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARTELA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARTELA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARTELA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTELA_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery is the duration above which a statement is logged at warn.
	SlowQuery time.Duration `envconfig:"CARTELA_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the development double is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTELA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARTELA_REDIS_ADDR"`
	Password     string        `envconfig:"CARTELA_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTELA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTELA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTELA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTELA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTELA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTELA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CARTELA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CARTELA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CARTELA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CARTELA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CARTELA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CARTELA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CARTELA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CARTELA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CARTELA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"CARTELA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"CARTELA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"CARTELA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	CheckoutWindow  time.Duration `envconfig:"CARTELA_RATE_LIMIT_CHECKOUT_WINDOW" default:"5m"`
	CheckoutIPLimit int           `envconfig:"CARTELA_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"CARTELA_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"CARTELA_AUTO_MIGRATE" default:"false"`
	SeedFixtures bool `envconfig:"CARTELA_SEED_FIXTURES" default:"false"`
	EmbeddedCron bool `envconfig:"CARTELA_EMBEDDED_CRON" default:"false"`
}

// FixturesConfig holds the seeded admin credentials for the development double.
type FixturesConfig struct {
	AdminEmail    string `envconfig:"CARTELA_SEED_ADMIN_EMAIL" default:"admin@cartela.local"`
	AdminPassword string `envconfig:"CARTELA_SEED_ADMIN_PASSWORD" default:"cartela-admin"`
}

type AutomationConfig struct {
	Interval                  time.Duration `envconfig:"CARTELA_AUTOMATION_INTERVAL" default:"2m"`
	LockTTL                   time.Duration `envconfig:"CARTELA_AUTOMATION_LOCK_TTL" default:"10m"`
	NotificationRetentionDays int           `envconfig:"CARTELA_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type WhatsAppConfig struct {
	Enabled bool          `envconfig:"CARTELA_WHATSAPP_ENABLED" default:"false"`
	BaseURL string        `envconfig:"CARTELA_WHATSAPP_BASE_URL"`
	Token   string        `envconfig:"CARTELA_WHATSAPP_TOKEN"`
	Timeout time.Duration `envconfig:"CARTELA_WHATSAPP_TIMEOUT" default:"8s"`
}

type TelegramConfig struct {
	Enabled bool   `envconfig:"CARTELA_TELEGRAM_ENABLED" default:"false"`
	Token   string `envconfig:"CARTELA_TELEGRAM_TOKEN"`
	ChatID  int64  `envconfig:"CARTELA_TELEGRAM_CHAT_ID"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CARTELA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CARTELA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CARTELA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"CARTELA_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"CARTELA_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	MaxUploadMB   int    `envconfig:"CARTELA_MAX_UPLOAD_MB" default:"20"`
}

// Enabled reports whether an upload bucket is configured.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CARTELA_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
