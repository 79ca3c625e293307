// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile_FirstExistingCandidateWins(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "missing.env")
	second := filepath.Join(dir, "second.env")
	third := filepath.Join(dir, "third.env")

	require.NoError(t, os.WriteFile(second, []byte("WAITLIST_TEST_A=second\n"), 0o600))
	require.NoError(t, os.WriteFile(third, []byte("WAITLIST_TEST_A=third\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("WAITLIST_TEST_A") })

	loaded, err := LoadEnvFile([]string{first, second, third})
	require.NoError(t, err)

	assert.Equal(t, second, loaded)
	assert.Equal(t, "second", os.Getenv("WAITLIST_TEST_A"))
}

func TestLoadEnvFile_DoesNotOverrideExistingEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env")
	require.NoError(t, os.WriteFile(path, []byte("WAITLIST_TEST_B=from-file\n"), 0o600))

	t.Setenv("WAITLIST_TEST_B", "from-process")

	_, err := LoadEnvFile([]string{path})
	require.NoError(t, err)

	assert.Equal(t, "from-process", os.Getenv("WAITLIST_TEST_B"))
}

func TestLoadEnvFile_NoCandidates(t *testing.T) {
	loaded, err := LoadEnvFile([]string{filepath.Join(t.TempDir(), "nope")})
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadEnvFile_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "env"), 0o755))

	loaded, err := LoadEnvFile([]string{filepath.Join(dir, "env")})
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent"))
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("JWT_ALGORITHM", "HS256")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("PORT", "9090")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, c.Database.Driver)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, AlgorithmHS256, c.JWT.Algorithm)
	assert.True(t, c.SMS.MockEnabled)
	assert.False(t, c.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:9090", c.Server.Address())
	assert.True(t, c.Database.AutoMigrate)
	assert.Equal(t, time.Minute, c.RateLimit.Window)
}

func TestLoad_MigrationAndWindowOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent"))
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("JWT_ALGORITHM", "HS256")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DATABASE_AUTO_MIGRATE", "false")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")

	c, err := load("")
	require.NoError(t, err)

	assert.False(t, c.Database.AutoMigrate)
	assert.Equal(t, 10*time.Second, c.RateLimit.Window)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Environment: "development"},
			Server:   ServerConfig{ReadTimeout: 1, WriteTimeout: 1},
			Database: DatabaseConfig{Driver: DriverPostgres, URL: "postgres://x"},
			JWT: JWTConfig{
				Algorithm:      AlgorithmES256,
				PrivateKeyPath: "a",
				PublicKeyPath:  "b",
			},
			SMS: SMSConfig{MockEnabled: true},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing url", func(c *Config) { c.Database.URL = "" }, true},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"short hmac secret", func(c *Config) {
			c.JWT.Algorithm = AlgorithmHS256
			c.JWT.Secret = "short"
		}, true},
		{"twilio without sid", func(c *Config) { c.SMS.MockEnabled = false }, true},
		{"sqlite in production", func(c *Config) {
			c.App.Environment = "production"
			c.Database.Driver = DriverSQLite
		}, true},
		{"demo data in production", func(c *Config) {
			c.App.Environment = "production"
			c.Seed.DemoData = true
		}, true},
		{"cors wildcard with credentials", func(c *Config) {
			c.CORS.AllowCredentials = true
			c.CORS.AllowedOrigins = []string{"*"}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := validate(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
