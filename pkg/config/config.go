package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	MercadoPago   MercadoPagoConfig
	Sendgrid      SendgridConfig
	Sweep         SweepConfig
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
	Env          string `envconfig:"VENDFLEET_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDFLEET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDFLEET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDFLEET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VENDFLEET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VENDFLEET_DB_DSN"`
	Driver string `envconfig:"VENDFLEET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDFLEET_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDFLEET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDFLEET_DB_USER"`
	LegacyPassword string `envconfig:"VENDFLEET_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDFLEET_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDFLEET_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"VENDFLEET_DB_SQLITE_PATH" default:"vendfleet.db"`

	MaxOpenConns    int           `envconfig:"VENDFLEET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDFLEET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDFLEET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDFLEET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// UseSQLite reports whether the sqlite driver was selected for local work.
func (db DBConfig) UseSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDFLEET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDFLEET_REDIS_ADDR"`
	Password     string        `envconfig:"VENDFLEET_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDFLEET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDFLEET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDFLEET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDFLEET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDFLEET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDFLEET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VENDFLEET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VENDFLEET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VENDFLEET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VENDFLEET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VENDFLEET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VENDFLEET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VENDFLEET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VENDFLEET_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"VENDFLEET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"VENDFLEET_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"VENDFLEET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENDFLEET_AUTO_MIGRATE" default:"false"`
}

type MercadoPagoConfig struct {
	AccessToken     string `envconfig:"VENDFLEET_MP_ACCESS_TOKEN" required:"true"`
	NotificationURL string `envconfig:"VENDFLEET_MP_NOTIFICATION_URL"`
	Currency        string `envconfig:"VENDFLEET_MP_CURRENCY" default:"MXN"`
}

type SendgridConfig struct {
	APIKey       string `envconfig:"VENDFLEET_SENDGRID_API_KEY"`
	FromEmail    string `envconfig:"VENDFLEET_SENDGRID_FROM_EMAIL" default:"alerts@vendfleet.io"`
	FromName     string `envconfig:"VENDFLEET_SENDGRID_FROM_NAME" default:"VendFleet Alerts"`
	DashboardURL string `envconfig:"VENDFLEET_DASHBOARD_URL"`
}

type SweepConfig struct {
	Tolerance time.Duration `envconfig:"VENDFLEET_SWEEP_TOLERANCE" default:"7m"`
	Interval  time.Duration `envconfig:"VENDFLEET_SWEEP_INTERVAL" default:"5m"`
	LockTTL   time.Duration `envconfig:"VENDFLEET_SWEEP_LOCK_TTL" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.UseSQLite() {
		db.DSN = db.SQLitePath
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
