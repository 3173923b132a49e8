package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHCL = `
log_level = "debug"
origin    = "dashboard-uuid"

search {
  provider    = "bleve"
  max_attempts = 3
  retry_delay  = 1

  bleve {
    path = "/var/lib/aipsearch/indexes"
  }
}

database {
  driver = "sqlite"
  dsn    = ":memory:"
}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleHCL))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "dashboard-uuid", cfg.Origin)
	assert.Equal(t, "bleve", cfg.Search.Provider)
	assert.Equal(t, "/var/lib/aipsearch/indexes", cfg.Search.Bleve.Path)
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	policy := cfg.Search.RetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, time.Second, policy.Delay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.Error(t, err)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	_, err := Load(writeConfig(t, `
search {
  provider = "elasticsearch"
}
`))
	require.Error(t, err)
}

func TestValidateRequiresProviderBlock(t *testing.T) {
	_, err := Load(writeConfig(t, `
search {
  provider = "meilisearch"
}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meilisearch block")
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	_, err := Load(writeConfig(t, `
log_level = "loud"

search {
  provider = "bleve"
  bleve {
    path = "/tmp/idx"
  }
}
`))
	require.Error(t, err)
}

func TestRetryPolicyDefaults(t *testing.T) {
	cfg := &SearchConfig{Provider: "bleve"}
	policy := cfg.RetryPolicy()
	assert.Equal(t, 10, policy.MaxAttempts)
	assert.Equal(t, 10*time.Second, policy.Delay)
}

func TestConnectionNilReceiver(t *testing.T) {
	var cfg *DatabaseConfig
	assert.Zero(t, cfg.Connection())
}
