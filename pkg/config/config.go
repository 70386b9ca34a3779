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
	Catalog      CatalogConfig
	Cart         CartConfig
	Storage      StorageConfig
	Redis        RedisConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDB reads only the app and database sections, for tooling that never calls the catalog.
func LoadDB() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg.App); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg.DB); err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("%s is required", EnvDBDSN)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BIKESHOP_APP_ENV" default:"dev"`
	Port         string `envconfig:"BIKESHOP_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"BIKESHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIKESHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CatalogConfig points at the product backend that serves /api/product/products.
type CatalogConfig struct {
	BaseURL         string        `envconfig:"BIKESHOP_CATALOG_BASE_URL" required:"true"`
	Timeout         time.Duration `envconfig:"BIKESHOP_CATALOG_TIMEOUT" default:"10s"`
	BreakerFailures uint32        `envconfig:"BIKESHOP_CATALOG_BREAKER_FAILURES" default:"5"`
	BreakerOpenFor  time.Duration `envconfig:"BIKESHOP_CATALOG_BREAKER_OPEN_FOR" default:"30s"`
}

func (c CatalogConfig) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvCatalogBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvCatalogBaseURL, c.BaseURL)
	}
	return nil
}

type CartConfig struct {
	Key string `envconfig:"BIKESHOP_CART_KEY" default:"shoppingCart"`
	// WatchInterval polls storage for writes made outside this process. Zero disables it.
	WatchInterval time.Duration `envconfig:"BIKESHOP_CART_WATCH_INTERVAL" default:"500ms"`
}

type StorageConfig struct {
	Driver  string `envconfig:"BIKESHOP_STORAGE_DRIVER" default:"file"`
	FileDir string `envconfig:"BIKESHOP_STORAGE_FILE_DIR" default:"./data"`
}

// Shared reports whether the backend can be written by other processes.
func (s StorageConfig) Shared() bool {
	return s.Driver != StorageDriverMemory
}

func (s StorageConfig) validate(cfg Config) error {
	switch s.Driver {
	case StorageDriverMemory:
		return nil
	case StorageDriverFile:
		if strings.TrimSpace(s.FileDir) == "" {
			return fmt.Errorf("%s is required for the file storage driver", EnvStorageFileDir)
		}
		return nil
	case StorageDriverRedis:
		if cfg.Redis.URL == "" && cfg.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
		return nil
	case StorageDriverSQL:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("%s is required for the sql storage driver", EnvDBDSN)
		}
		if cfg.DB.Driver != DBDriverSQLite && cfg.DB.Driver != DBDriverPostgres {
			return fmt.Errorf("unsupported %s %q", EnvDBDriver, cfg.DB.Driver)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, s.Driver)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"BIKESHOP_REDIS_URL"`
	Address      string        `envconfig:"BIKESHOP_REDIS_ADDR"`
	Password     string        `envconfig:"BIKESHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIKESHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIKESHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIKESHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIKESHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIKESHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIKESHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	Driver string `envconfig:"BIKESHOP_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"BIKESHOP_DB_DSN"`

	MaxOpenConns    int           `envconfig:"BIKESHOP_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"BIKESHOP_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"BIKESHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIKESHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BIKESHOP_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BIKESHOP_CORS_ALLOWED_ORIGINS" default:"*"`
}
