package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                   "test",
		"APP_PORT":                  "8080",
		"DB_USER":                   "cop",
		"DB_HOST":                   "127.0.0.1",
		"DB_PORT":                   "3306",
		"DB_NAME":                   "cop",
		"JWT_SECRET":                "0123456789abcdef0123",
		"ACCESS_TOKEN_TTL_MIN":      "15",
		"REFRESH_TOKEN_TTL_DAYS":    "7",
		"BCRYPT_COST":               "10",
		"DELEGATE_DEFAULT_PASSWORD": "delegate-pass",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	c := Load()

	assert.Equal(t, "NCCC", c.AccreditedByDefault)
	assert.Equal(t, 72*time.Hour, c.ActivationTTL)
	assert.Equal(t, time.Hour, c.ResetTTL)
	assert.Equal(t, 30*time.Minute, c.SessionIdleTimeout)
	assert.True(t, c.CronEnabled)
	assert.Empty(t, c.RabbitMQURL)
	require.NoError(t, c.Validate())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("CRON_ENABLED", "off")
	t.Setenv("ACCREDITED_BY_DEFAULT", "UNFCCC")

	c := Load()

	assert.Equal(t, 5*time.Minute, c.SessionIdleTimeout)
	assert.False(t, c.CronEnabled)
	assert.Equal(t, "UNFCCC", c.AccreditedByDefault)
}

func TestValidate(t *testing.T) {
	base := Config{
		Port: "8080", BcryptCost: 10, AccessTTLMin: 15, RefreshTTLDays: 7,
		JWTSecret: "0123456789abcdef", ActivationTTL: time.Hour, ResetTTL: time.Hour,
		SessionIdleTimeout: time.Minute,
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"bad port":       func(c *Config) { c.Port = "http" },
		"low cost":       func(c *Config) { c.BcryptCost = 3 },
		"zero access":    func(c *Config) { c.AccessTTLMin = 0 },
		"zero refresh":   func(c *Config) { c.RefreshTTLDays = 0 },
		"zero idle":      func(c *Config) { c.SessionIdleTimeout = 0 },
		"short secret":   func(c *Config) { c.JWTSecret = "short" },
		"negative reset": func(c *Config) { c.ResetTTL = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(f, []byte("COP_TEST_A=fromfile\nCOP_TEST_B=fromfile\n"), 0o600))
	t.Setenv("COP_TEST_A", "fromenv")
	t.Cleanup(func() { os.Unsetenv("COP_TEST_B") })

	LoadDotenv(f, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "fromenv", os.Getenv("COP_TEST_A"))
	assert.Equal(t, "fromfile", os.Getenv("COP_TEST_B"))
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()

	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	c := LoadCacheConfig()

	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.False(t, c.Methods["POST"])
}
