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
	Cart          CartConfig
	Dashboard     DashboardConfig
	CORS          CORSConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Eventing      EventingConfig
	BigQuery      BigQueryConfig
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
	Env          string `envconfig:"SUGI_APP_ENV" required:"true"`
	Port         string `envconfig:"SUGI_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SUGI_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SUGI_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SUGI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == AppEnvDev || env == "development" || env == "local"
}

func (a AppConfig) IsProd() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == AppEnvProd || env == "production"
}

// LoggerFormat is the log encoding to use. Production always logs JSON so
// log sinks can parse every line.
func (a AppConfig) LoggerFormat() string {
	if a.IsProd() {
		return "json"
	}
	return strings.ToLower(strings.TrimSpace(a.LogFormat))
}

type ServiceConfig struct {
	Kind string `envconfig:"SUGI_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SUGI_DB_DSN"`
	Driver string `envconfig:"SUGI_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SUGI_DB_HOST"`
	Port     int    `envconfig:"SUGI_DB_PORT" default:"5432"`
	User     string `envconfig:"SUGI_DB_USER"`
	Password string `envconfig:"SUGI_DB_PASSWORD"`
	Name     string `envconfig:"SUGI_DB_NAME"`
	SSLMode  string `envconfig:"SUGI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUGI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUGI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUGI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUGI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SUGI_REDIS_URL"`
	Address      string        `envconfig:"SUGI_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SUGI_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUGI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUGI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUGI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUGI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUGI_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SUGI_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SUGI_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SUGI_JWT_ISSUER" default:"sugi-creations"`
	ExpirationMinutes      int    `envconfig:"SUGI_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SUGI_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SUGI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SUGI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SUGI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SUGI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SUGI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SUGI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"SUGI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"SUGI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SUGI_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"SUGI_CART_TTL" default:"720h"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `envconfig:"SUGI_DASHBOARD_CACHE_TTL" default:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SUGI_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SUGI_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SUGI_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SUGI_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"SUGI_GCS_BUCKET_NAME"`
	PublicBase string `envconfig:"SUGI_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int    `envconfig:"SUGI_MEDIA_MAX_UPLOAD_MB" default:"10"`
	MaxFiles    int    `envconfig:"SUGI_MEDIA_MAX_FILES" default:"10"`
	Folder      string `envconfig:"SUGI_MEDIA_FOLDER" default:"sugi_creations"`
}

// MaxUploadBytes returns the per-file upload ceiling.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"SUGI_PUBSUB_ORDERS_TOPIC" default:"sugi-order-events"`
	OrdersSubscription string `envconfig:"SUGI_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"SUGI_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"SUGI_BIGQUERY_DATASET" default:"sugi"`
	OrderEventsTable string `envconfig:"SUGI_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SUGI_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SUGI_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SUGI_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range legacyDBEnvVars {
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
