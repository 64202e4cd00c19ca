package config

const (
	EnvPrefix = "SUGI"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv     = "SUGI_APP_ENV"
	EnvPort       = "SUGI_APP_PORT"
	EnvDBDSN      = "SUGI_DB_DSN"
	EnvDBDriver   = "SUGI_DB_DRIVER"
	EnvDBHost     = "SUGI_DB_HOST"
	EnvDBPort     = "SUGI_DB_PORT"
	EnvDBUser     = "SUGI_DB_USER"
	EnvDBPassword = "SUGI_DB_PASSWORD"
	EnvDBName     = "SUGI_DB_NAME"
	EnvRedisURL   = "SUGI_REDIS_URL"
	EnvJWTSecret  = "SUGI_JWT_SECRET"
	EnvJWTIssuer  = "SUGI_JWT_ISSUER"
	EnvJWTExpMins = "SUGI_JWT_EXPIRATION_MINUTES"
	EnvCartTTL    = "SUGI_CART_TTL"
	EnvCORS       = "SUGI_CORS_ALLOWED_ORIGINS"
	EnvGCSBucket  = "SUGI_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
