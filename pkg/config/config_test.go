package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("expected App.Env to default to dev, got %q", cfg.App.Env)
	}
	if cfg.Catalog.BaseURL != "http://192.168.0.113:8080" {
		t.Fatalf("unexpected catalog base url %q", cfg.Catalog.BaseURL)
	}
	if cfg.Cart.Key != "shoppingCart" {
		t.Fatalf("expected default cart key, got %q", cfg.Cart.Key)
	}
	if got := cfg.Cart.WatchInterval; got != 500*time.Millisecond {
		t.Fatalf("expected watch interval 500ms, got %v", got)
	}
	if cfg.Storage.Driver != StorageDriverFile {
		t.Fatalf("expected file storage by default, got %q", cfg.Storage.Driver)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvCatalogBaseURL); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvCatalogBaseURL, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsNonHTTPCatalog(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCatalogBaseURL, "ftp://example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-http catalog url to be rejected")
	}
}

func TestLoad_StorageDriverRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "memory", env: map[string]string{EnvStorageDriver: StorageDriverMemory}},
		{name: "redis without address", env: map[string]string{EnvStorageDriver: StorageDriverRedis}, wantErr: true},
		{name: "redis with url", env: map[string]string{EnvStorageDriver: StorageDriverRedis, EnvRedisURL: "redis://localhost:6379/0"}},
		{name: "sql without dsn", env: map[string]string{EnvStorageDriver: StorageDriverSQL}, wantErr: true},
		{name: "sql with unknown driver", env: map[string]string{EnvStorageDriver: StorageDriverSQL, EnvDBDSN: "x", EnvDBDriver: "mysql"}, wantErr: true},
		{name: "sql sqlite", env: map[string]string{EnvStorageDriver: StorageDriverSQL, EnvDBDSN: "file:cart.db"}},
		{name: "unknown", env: map[string]string{EnvStorageDriver: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvCatalogBaseURL, "http://192.168.0.113:8080")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

func TestStorageSharedExcludesMemory(t *testing.T) {
	if (StorageConfig{Driver: StorageDriverMemory}).Shared() {
		t.Fatalf("memory storage must not be shared")
	}
	if !(StorageConfig{Driver: StorageDriverRedis}).Shared() {
		t.Fatalf("redis storage must be shared")
	}
}

func TestLoadDB_IgnoresCatalog(t *testing.T) {
	t.Setenv(EnvCatalogBaseURL, "")
	t.Setenv(EnvDBDSN, "file::memory:")

	cfg, err := LoadDB()
	if err != nil {
		t.Fatalf("LoadDB() returned unexpected error: %v", err)
	}
	if cfg.DB.Driver != DBDriverSQLite {
		t.Fatalf("expected sqlite by default, got %q", cfg.DB.Driver)
	}

	t.Setenv(EnvDBDSN, "")
	if _, err := LoadDB(); err == nil {
		t.Fatal("expected missing dsn to be rejected")
	}
}
