// Package config carries per-replica configuration for applications built
// on the toolkit: the replica's identity, where snapshots live, and how the
// verification harness and logging behave.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Config represents one replica's configuration.
type Config struct {
	// ReplicaID names this replica in identified CRDTs (counters, vector
	// clocks). It must be unique across the replica set.
	ReplicaID string `json:"replica_id"`

	// DataDir is the directory for persistent state.
	DataDir string `json:"data_dir"`

	// StorePath is the snapshot database file. Relative paths resolve
	// under DataDir.
	StorePath string `json:"store_path"`

	// IdentityMode selects the replica identity strategy: "random" for
	// uuid identities, "itc" for interval tree clock identities.
	IdentityMode string `json:"identity_mode"`

	// CheckTrials and CheckSeed configure the convergence harness.
	CheckTrials int   `json:"check_trials"`
	CheckSeed   int64 `json:"check_seed"`

	// Logging settings
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns a configuration with default values. The replica id
// defaults to a fresh uuid so two replicas started without configuration
// never collide.
func DefaultConfig() *Config {
	return &Config{
		ReplicaID:    uuid.NewString(),
		DataDir:      "./data",
		StorePath:    "snapshots.db",
		IdentityMode: "random",
		CheckTrials:  100,
		CheckSeed:    0x5eed,
		LogLevel:     "info",
	}
}

// LoadFromFile loads configuration from a JSON file, starting from the
// defaults. An empty filename returns the defaults unchanged.
func LoadFromFile(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename == "" {
		return config, nil
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromEnv overrides configuration from environment variables.
func LoadFromEnv(config *Config) {
	if val := os.Getenv("CONVERGENT_REPLICA_ID"); val != "" {
		config.ReplicaID = val
	}

	if val := os.Getenv("CONVERGENT_DATA_DIR"); val != "" {
		config.DataDir = val
	}

	if val := os.Getenv("CONVERGENT_STORE_PATH"); val != "" {
		config.StorePath = val
	}

	if val := os.Getenv("CONVERGENT_IDENTITY_MODE"); val != "" {
		config.IdentityMode = val
	}

	if val := os.Getenv("CONVERGENT_CHECK_TRIALS"); val != "" {
		if trials, err := strconv.Atoi(val); err == nil {
			config.CheckTrials = trials
		}
	}

	if val := os.Getenv("CONVERGENT_CHECK_SEED"); val != "" {
		if seed, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.CheckSeed = seed
		}
	}

	if val := os.Getenv("CONVERGENT_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ReplicaID == "" {
		return fmt.Errorf("replica ID cannot be empty")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.StorePath == "" {
		return fmt.Errorf("store path cannot be empty")
	}

	if c.IdentityMode != "random" && c.IdentityMode != "itc" {
		return fmt.Errorf("invalid identity mode: %s (valid: random, itc)", c.IdentityMode)
	}

	if c.CheckTrials <= 0 {
		return fmt.Errorf("check trials must be positive")
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	validLevel := false
	for _, level := range validLevels {
		if c.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.LogLevel, validLevels)
	}

	return nil
}

// GetStorePath returns the absolute path to the snapshot database.
func (c *Config) GetStorePath() string {
	if filepath.IsAbs(c.StorePath) {
		return c.StorePath
	}
	return filepath.Join(c.DataDir, c.StorePath)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	content, _ := json.MarshalIndent(c, "", "  ")
	return string(content)
}
