package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bikeshop-bff/pkg/config"
	"github.com/angelmondragon/bikeshop-bff/pkg/db"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestKVEntriesMigrationContainsSchema(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/20261018120000_create_kv_entries.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS kv_entries")
	assert.Contains(t, string(data), "entry_key")
}

func TestUpCreatesKVEntriesOnSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{Driver: config.DBDriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, Up(ctx, sqlDB, client.Driver()))

	assert.True(t, client.DB().Migrator().HasTable("kv_entries"))

	// re-running is a no-op
	require.NoError(t, Up(ctx, sqlDB, client.Driver()))
}

func TestDialect(t *testing.T) {
	d, err := Dialect(config.DBDriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "postgres", d)

	d, err = Dialect(config.DBDriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d)

	_, err = Dialect("mysql")
	assert.Error(t, err)
}

func TestCreateAndValidateDir(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Cart Owner")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_cart_owner.sql"))
	require.NoError(t, ValidateDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}
