package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("RESET_TOKEN_SECRET", "reset-secret")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "inventory")
	t.Setenv("POSTGRES_DBNAME", "inventory")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, 15*time.Second, cfg.HttpServer.TimeoutRead)
	assert.Equal(t, "9090", cfg.GrpcServer.Port)
	assert.Equal(t, "127.0.0.1:9090", cfg.GrpcServer.Addr())
	assert.Empty(t, cfg.GrpcServer.AuthToken)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "product-images", cfg.Storage.Bucket)
	assert.Equal(t, "name", cfg.Storage.ListSort)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t,
		"host=db port=5432 user=inventory password= dbname=inventory sslmode=disable",
		cfg.Database.Postgres.DSN())
}

func TestLoad_SQLiteDoesNotNeedPostgres(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("RESET_TOKEN_SECRET", "r")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/inventory.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/inventory.db", cfg.Database.SQLitePath)
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "inventory")
	t.Setenv("POSTGRES_DBNAME", "inventory")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidEnums(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"driver", "DB_DRIVER", "mysql"},
		{"backend", "STORAGE_BACKEND", "s3"},
		{"list sort", "STORAGE_LIST_SORT", "size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_SFTPRequiresAddress(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_BACKEND", "sftp")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("SFTP_ADDR", "files:22")
	t.Setenv("SFTP_USER", "inventory")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/storage", cfg.Storage.SFTP.Dir)
}
