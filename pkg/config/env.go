package config

const EnvPrefix = "BIKESHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "BIKESHOP_APP_ENV"
	EnvPort         = "BIKESHOP_APP_PORT"
	EnvLogLevel     = "BIKESHOP_LOG_LEVEL"
	EnvLogWarnStack = "BIKESHOP_LOG_WARN_STACK"

	EnvCatalogBaseURL          = "BIKESHOP_CATALOG_BASE_URL"
	EnvCatalogTimeout          = "BIKESHOP_CATALOG_TIMEOUT"
	EnvCatalogBreakerFailures  = "BIKESHOP_CATALOG_BREAKER_FAILURES"
	EnvCatalogBreakerOpenDelay = "BIKESHOP_CATALOG_BREAKER_OPEN_FOR"

	EnvCartKey           = "BIKESHOP_CART_KEY"
	EnvCartWatchInterval = "BIKESHOP_CART_WATCH_INTERVAL"

	EnvStorageDriver  = "BIKESHOP_STORAGE_DRIVER"
	EnvStorageFileDir = "BIKESHOP_STORAGE_FILE_DIR"

	EnvRedisURL  = "BIKESHOP_REDIS_URL"
	EnvRedisAddr = "BIKESHOP_REDIS_ADDR"

	EnvDBDriver = "BIKESHOP_DB_DRIVER"
	EnvDBDSN    = "BIKESHOP_DB_DSN"

	EnvAutoMigrate = "BIKESHOP_AUTO_MIGRATE"
	EnvCORSOrigins = "BIKESHOP_CORS_ALLOWED_ORIGINS"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)
