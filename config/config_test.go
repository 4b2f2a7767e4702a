package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.ReplicaID)

	// Two default configs must never share a replica id.
	assert.NotEqual(t, cfg.ReplicaID, DefaultConfig().ReplicaID)
}

func TestLoadFromFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.ReplicaID = "node-1"
	cfg.IdentityMode = "itc"
	cfg.CheckTrials = 250
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "node-1", loaded.ReplicaID)
	assert.Equal(t, "itc", loaded.IdentityMode)
	assert.Equal(t, 250, loaded.CheckTrials)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoadFromFileEmptyNameUsesDefaults(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CONVERGENT_REPLICA_ID", "env-node")
	t.Setenv("CONVERGENT_IDENTITY_MODE", "itc")
	t.Setenv("CONVERGENT_CHECK_TRIALS", "42")
	t.Setenv("CONVERGENT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, "env-node", cfg.ReplicaID)
	assert.Equal(t, "itc", cfg.IdentityMode)
	assert.Equal(t, 42, cfg.CheckTrials)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty replica id", func(c *Config) { c.ReplicaID = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty store path", func(c *Config) { c.StorePath = "" }},
		{"bad identity mode", func(c *Config) { c.IdentityMode = "quantum" }},
		{"zero trials", func(c *Config) { c.CheckTrials = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetStorePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/convergent"
	cfg.StorePath = "snapshots.db"
	assert.Equal(t, "/var/lib/convergent/snapshots.db", cfg.GetStorePath())

	cfg.StorePath = "/tmp/other.db"
	assert.Equal(t, "/tmp/other.db", cfg.GetStorePath())
}
