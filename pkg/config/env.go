package config

// EnvPrefix namespaces every variable read by envconfig.
const EnvPrefix = "GAMESTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Variable names referenced outside struct tags.
const (
	EnvAppEnv                 = "GAMESTORE_APP_ENV"
	EnvPort                   = "GAMESTORE_APP_PORT"
	EnvDBDSN                  = "GAMESTORE_DB_DSN"
	EnvDBHost                 = "GAMESTORE_DB_HOST"
	EnvDBUser                 = "GAMESTORE_DB_USER"
	EnvDBPassword             = "GAMESTORE_DB_PASSWORD"
	EnvDBName                 = "GAMESTORE_DB_NAME"
	EnvRedisURL               = "GAMESTORE_REDIS_URL"
	EnvJWTSecret              = "GAMESTORE_JWT_SECRET"
	EnvJWTIssuer              = "GAMESTORE_JWT_ISSUER"
	EnvJWTExpMins             = "GAMESTORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "GAMESTORE_REFRESH_TOKEN_TTL_MINUTES"
	EnvCronInterval           = "GAMESTORE_CRON_INTERVAL"
	EnvCORSAllowedOrigins     = "GAMESTORE_CORS_ALLOWED_ORIGINS"
)
