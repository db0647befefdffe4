package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/advisory-drafting-backend/internal/config"
)

var allKeys = []string{
	"PORT", "ENV", "SESSION_TTL", "DATA_SERVICE_URL", "DATA_SERVICE_TIMEOUT",
	"THINKING_DELAY", "STORE_BACKEND", "DATABASE_URL", "REDIS_URL",
	"COMPLIANCE_POLICY_FILE", "RESEND_API_KEY", "EMAIL_FROM_ADDR",
	"EMAIL_FROM_NAME", "WORKER_COUNT", "JOB_TIMEOUT", "MAX_RETRIES",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_SERVICE_URL", "http://data.local/")

	c, err := config.LoadFile(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "development", c.Env)
	assert.False(t, c.IsProduction())
	assert.Equal(t, "http://data.local", c.DataServiceURL)
	assert.Equal(t, 10*time.Second, c.DataServiceTimeout)
	assert.Equal(t, 1200*time.Millisecond, c.ThinkingDelay)
	assert.Equal(t, "memory", c.StoreBackend)
	assert.Equal(t, 2, c.WorkerCount)
	assert.Equal(t, 30*time.Second, c.JobTimeout)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# local settings\nPORT=7000\nDATA_SERVICE_URL=\"http://from-file\"\nTHINKING_DELAY=250ms\nJOB_TIMEOUT=45\n",
	), 0o600))

	c, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, "http://from-file", c.DataServiceURL)
	assert.Equal(t, 250*time.Millisecond, c.ThinkingDelay)
	assert.Equal(t, 45*time.Second, c.JobTimeout)
}

func TestLoad_PlainIntegerUnits(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_SERVICE_URL", "http://data.local")
	t.Setenv("THINKING_DELAY", "1200")
	t.Setenv("DATA_SERVICE_TIMEOUT", "5")

	c, err := config.LoadFile(missingFile(t))
	require.NoError(t, err)
	assert.Equal(t, 1200*time.Millisecond, c.ThinkingDelay, "thinking delay integers are milliseconds")
	assert.Equal(t, 5*time.Second, c.DataServiceTimeout, "other integers are seconds")
}

func TestLoad_ValidationJoinsErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("WORKER_COUNT", "0")

	_, err := config.LoadFile(missingFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_SERVICE_URL")
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "WORKER_COUNT")
}

func TestLoad_BackendRequirements(t *testing.T) {
	tests := []struct {
		backend string
		env     map[string]string
		wantErr bool
	}{
		{"memory", nil, false},
		{"redis", nil, true},
		{"redis", map[string]string{"REDIS_URL": "redis://localhost:6379/0"}, false},
		{"postgres", map[string]string{"DATABASE_URL": "postgres://x"}, false},
		{"etcd", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATA_SERVICE_URL", "http://data.local")
			t.Setenv("STORE_BACKEND", tt.backend)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadFile(missingFile(t))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
