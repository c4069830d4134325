// Copyright 2026 Subspace Registry Project
//
// Authority Config - YAML configuration for one registry authority
// (the process that owns a space's Store and signs off on batches).
// Uses this package's envsubst.go for ${VAR:-default} environment
// substitution and its Duration yaml.Unmarshaler.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthorityConfig is the top-level YAML document for a registry
// authority process.
type AuthorityConfig struct {
	Space  SpaceConfig  `yaml:"space"`
	Store  StoreConfig  `yaml:"store"`
	Ledger LedgerConfig `yaml:"ledger"`
	Server ServerConfig `yaml:"server"`
}

// SpaceConfig names the space this authority owns; it is hashed with
// SHA-256 the same way pkg/regbatch.Builder.Build hashes it into the
// wire batch header.
type SpaceConfig struct {
	Name string `yaml:"name"`
}

// StoreConfig configures the persistent pkg/store.Store backing this
// authority's tree.
type StoreConfig struct {
	DataDir  string `yaml:"data_dir"`
	Backend  string `yaml:"backend"` // cometbft-db backend name, e.g. "goleveldb", "memdb"
	LockFile string `yaml:"lock_file"`
}

// LedgerConfig configures the Postgres audit ledger (pkg/ledger).
type LedgerConfig struct {
	DatabaseURL     string   `yaml:"database_url"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// ServerConfig configures the demo binary's listen addresses.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// LoadAuthorityConfig reads and parses path, substituting
// ${VAR}/${VAR:-default} environment references before YAML parsing.
func LoadAuthorityConfig(path string) (*AuthorityConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read authority config %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg AuthorityConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse authority config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AuthorityConfig) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "goleveldb"
	}
	if c.Store.LockFile == "" && c.Store.DataDir != "" {
		c.Store.LockFile = c.Store.DataDir + "/authority.lock"
	}
	if c.Ledger.MaxOpenConns == 0 {
		c.Ledger.MaxOpenConns = 10
	}
	if c.Ledger.MaxIdleConns == 0 {
		c.Ledger.MaxIdleConns = 2
	}
	if c.Ledger.ConnMaxLifetime == 0 {
		c.Ledger.ConnMaxLifetime = Duration(30 * time.Minute)
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "0.0.0.0:8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = "0.0.0.0:9090"
	}
}

// Validate reports an error for every required field this config is
// missing once defaults have been applied.
func (c *AuthorityConfig) Validate() error {
	if c.Space.Name == "" {
		return fmt.Errorf("authority config: space.name is required")
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("authority config: store.data_dir is required")
	}
	return nil
}
