package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	SES          SESConfig
	FCM          FCMConfig
	Site         SiteConfig
	Notify       NotifyConfig
	Eventing     EventingConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"ALO17_APP_ENV" required:"true"`
	Port         string `envconfig:"ALO17_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ALO17_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ALO17_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ALO17_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ALO17_DB_DSN"`
	Driver string `envconfig:"ALO17_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ALO17_DB_HOST"`
	LegacyPort     int    `envconfig:"ALO17_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ALO17_DB_USER"`
	LegacyPassword string `envconfig:"ALO17_DB_PASSWORD"`
	LegacyName     string `envconfig:"ALO17_DB_NAME"`
	LegacySSLMode  string `envconfig:"ALO17_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ALO17_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ALO17_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ALO17_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ALO17_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ALO17_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ALO17_REDIS_ADDR"`
	Password     string        `envconfig:"ALO17_REDIS_PASSWORD"`
	DB           int           `envconfig:"ALO17_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ALO17_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ALO17_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ALO17_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ALO17_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ALO17_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ALO17_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"ALO17_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ListingTopic        string `envconfig:"ALO17_PUBSUB_LISTING_TOPIC" default:"alo17-listing-events"`
	ListingSubscription string `envconfig:"ALO17_PUBSUB_LISTING_SUBSCRIPTION"`
}

type SESConfig struct {
	Region      string `envconfig:"ALO17_SES_REGION" default:"eu-central-1"`
	FromAddress string `envconfig:"ALO17_SES_FROM_ADDRESS" default:"bildirim@alo17.tr"`
	FromName    string `envconfig:"ALO17_SES_FROM_NAME" default:"Alo17"`
}

type FCMConfig struct {
	CredentialsFile string `envconfig:"ALO17_FCM_CREDENTIALS_FILE"`
}

type SiteConfig struct {
	BaseURL string `envconfig:"ALO17_SITE_BASE_URL" default:"https://alo17.tr"`
}

type NotifyConfig struct {
	RetentionDays    int           `envconfig:"ALO17_NOTIFY_RETENTION_DAYS" default:"30"`
	MaxNotifications int           `envconfig:"ALO17_NOTIFY_MAX_NOTIFICATIONS" default:"1000"`
	MaxHistory       int           `envconfig:"ALO17_NOTIFY_MAX_HISTORY" default:"1000"`
	ChannelTimeout   time.Duration `envconfig:"ALO17_NOTIFY_CHANNEL_TIMEOUT" default:"10s"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"ALO17_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	CronInterval   time.Duration `envconfig:"ALO17_CRON_INTERVAL" default:"24h"`
}

type AdminConfig struct {
	APIToken string `envconfig:"ALO17_ADMIN_API_TOKEN"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ALO17_AUTO_MIGRATE" default:"false"`
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
