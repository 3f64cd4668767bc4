/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/storagemodels"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

// MaxBatchSize caps the iterator batch size.
const MaxBatchSize = 10000

// Environment variables read by Load. They take precedence over the file.
const (
	EnvBackend    = "WIDEROW_BACKEND"
	EnvAccessKey  = "AWS_ACCESS_KEY"
	EnvSecretKey  = "AWS_SECRET_KEY"
	EnvRegion     = "AWS_REGION"
	EnvTable      = "WIDEROW_DDB_TABLE"
	EnvEndpoint   = "WIDEROW_DDB_ENDPOINT"
	EnvSQLitePath = "WIDEROW_SQLITE_PATH"
	EnvBatchSize  = "WIDEROW_BATCH_SIZE"
)

// Config holds the settings of a widerow session.
type Config struct {
	// Backend selects the driver: "memory", "dynamodb" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`

	Iterator    IteratorConfig    `yaml:"iterator"`
	Consistency ConsistencyConfig `yaml:"consistency"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type DynamoDBConfig struct {
	Table     string `yaml:"table"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// Endpoint overrides the service endpoint, for DynamoDB Local.
	Endpoint string `yaml:"endpoint"`
}

type SQLiteConfig struct {
	// Path of the database file. Default: "widerow.db"
	Path string `yaml:"path"`
}

type IteratorConfig struct {
	// BatchSize is the number of columns fetched per iterator refill.
	// Default: 100
	// Max: 10000
	BatchSize int `yaml:"batch_size"`
}

// ConsistencyConfig holds the fallback levels and per column family defaults.
// Levels are written by name, e.g. "quorum" or "LOCAL_QUORUM".
type ConsistencyConfig struct {
	DefaultRead    consistency.Level             `yaml:"default_read"`
	DefaultWrite   consistency.Level             `yaml:"default_write"`
	ColumnFamilies map[string]ColumnFamilyLevels `yaml:"column_families"`
}

type ColumnFamilyLevels struct {
	Read  consistency.Level `yaml:"read"`
	Write consistency.Level `yaml:"write"`
}

type MetricsConfig struct {
	// Enabled wraps the driver with Prometheus instrumentation.
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns an in-memory configuration reading and writing at ONE.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendMemory,
		SQLite:   SQLiteConfig{Path: "widerow.db"},
		Iterator: IteratorConfig{BatchSize: storagemodels.DefaultBatchSize},
		Consistency: ConsistencyConfig{
			DefaultRead:  consistency.One,
			DefaultWrite: consistency.One,
		},
	}
}

// Load reads the YAML file at path over DefaultConfig, then applies the
// environment. A .env file in the working directory is loaded first when
// present. An empty path skips the file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("ignoring .env", "error", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvBackend, &c.Backend)
	set(EnvAccessKey, &c.DynamoDB.AccessKey)
	set(EnvSecretKey, &c.DynamoDB.SecretKey)
	set(EnvRegion, &c.DynamoDB.Region)
	set(EnvTable, &c.DynamoDB.Table)
	set(EnvEndpoint, &c.DynamoDB.Endpoint)
	set(EnvSQLitePath, &c.SQLite.Path)

	if v, ok := lookup(EnvBatchSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBatchSize, err)
		}
		c.Iterator.BatchSize = n
	}
	return nil
}

// validate clamps numeric settings and rejects settings no session can run with.
func (c *Config) validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Iterator.BatchSize < 1 {
		c.Iterator.BatchSize = storagemodels.DefaultBatchSize
	}
	if c.Iterator.BatchSize > MaxBatchSize {
		c.Iterator.BatchSize = MaxBatchSize
	}
	if c.Consistency.DefaultRead == consistency.Unset {
		c.Consistency.DefaultRead = consistency.One
	}
	if c.Consistency.DefaultWrite == consistency.Unset {
		c.Consistency.DefaultWrite = consistency.One
	}

	if !c.Consistency.DefaultRead.ValidForRead() {
		return fmt.Errorf("consistency.default_read: %s is not a read level", c.Consistency.DefaultRead)
	}
	for cf, levels := range c.Consistency.ColumnFamilies {
		if !levels.Read.ValidForRead() {
			return fmt.Errorf("consistency.column_families.%s.read: %s is not a read level", cf, levels.Read)
		}
	}

	switch c.Backend {
	case BackendMemory:
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("dynamodb.table is required for the dynamodb backend")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			c.SQLite.Path = "widerow.db"
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// Policy builds a consistency policy from the configured levels.
func (c ConsistencyConfig) Policy(logger *slog.Logger) *consistency.Policy {
	p := consistency.NewPolicy(consistency.Levels{Read: c.DefaultRead, Write: c.DefaultWrite}, logger)
	for cf, levels := range c.ColumnFamilies {
		p.SetDefaults(cf, levels.Read, levels.Write)
	}
	return p
}

// IteratorOptions returns the iterator settings as storage options.
func (c IteratorConfig) IteratorOptions() []storagemodels.IteratorOption {
	return []storagemodels.IteratorOption{storagemodels.WithBatchSize(c.BatchSize)}
}
