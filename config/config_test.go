package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SECRET_KEY", "ALGORITHM", "ACCESS_TOKEN_EXPIRE_MINUTES", "DB_DRIVER", "AVATARS_DIR"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFrom_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 30, cfg.JWT.ExpireMinutes)
	assert.Equal(t, 30*time.Minute, cfg.JWT.ExpireTime())
	assert.Empty(t, cfg.JWT.Secret)
}

func TestLoadConfigFrom_YAMLKeepsUnsetDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("jwt:\n  secret: from-yaml\n  expireMinutes: 5\ndatabase:\n  driver: sqlite\n  database: test.db\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := LoadConfigFrom(path)

	assert.Equal(t, "from-yaml", cfg.JWT.Secret)
	assert.Equal(t, 5, cfg.JWT.ExpireMinutes)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "media/avatars", cfg.Media.AvatarDir)
}

func TestLoadConfigFrom_EnvOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("ALGORITHM", "hs512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "chat")
	t.Setenv("DB_USER", "chat_user")
	t.Setenv("DB_PASS", "chat_pass")
	t.Setenv("AVATARS_DIR", "/srv/avatars")
	t.Setenv("PHONE_DEFAULT_REGION", "ru")

	cfg := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "HS512", cfg.JWT.Algorithm)
	assert.Equal(t, 15, cfg.JWT.ExpireMinutes)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "chat", cfg.Database.Database)
	assert.Equal(t, "chat_user", cfg.Database.Username)
	assert.Equal(t, "chat_pass", cfg.Database.Password)
	assert.Equal(t, "/srv/avatars", cfg.Media.AvatarDir)
	assert.Equal(t, "RU", cfg.Phone.DefaultRegion)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "SECRET_KEY"},
		{name: "bad algorithm", mutate: func(c *Config) { c.JWT.Algorithm = "RS256" }, wantErr: "unsupported jwt algorithm"},
		{name: "zero ttl", mutate: func(c *Config) { c.JWT.ExpireMinutes = 0 }, wantErr: "ttl"},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "unsupported database driver"},
		{name: "ok", mutate: func(c *Config) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getDefaultConfig()
			cfg.JWT.Secret = "secret"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
