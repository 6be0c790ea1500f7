package config

const (
	EnvPrefix = "CARTELA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	// DefaultSQLiteDSN keeps the development database in memory for the life of the process.
	DefaultSQLiteDSN = "file:cartela_dev?mode=memory&cache=shared"
)

const (
	EnvAppEnv                 = "CARTELA_APP_ENV"
	EnvPort                   = "CARTELA_APP_PORT"
	EnvTimezone               = "CARTELA_TIMEZONE"
	EnvDBDSN                  = "CARTELA_DB_DSN"
	EnvDBHost                 = "CARTELA_DB_HOST"
	EnvDBUser                 = "CARTELA_DB_USER"
	EnvDBName                 = "CARTELA_DB_NAME"
	EnvRedisURL               = "CARTELA_REDIS_URL"
	EnvJWTSecret              = "CARTELA_JWT_SECRET"
	EnvJWTIssuer              = "CARTELA_JWT_ISSUER"
	EnvJWTExpMins             = "CARTELA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CARTELA_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "CARTELA_USE_SQLITE"
	EnvAutomationInterval     = "CARTELA_AUTOMATION_INTERVAL"
	EnvWhatsAppEnabled        = "CARTELA_WHATSAPP_ENABLED"
	EnvWhatsAppBaseURL        = "CARTELA_WHATSAPP_BASE_URL"
	EnvCORSAllowedOrigins     = "CARTELA_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
