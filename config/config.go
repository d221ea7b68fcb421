// Package config loads and validates the benchmark run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NetPo4ki/primescope/batch"
	"github.com/NetPo4ki/primescope/limit"
	"github.com/NetPo4ki/primescope/strategy"
)

// AllStrategies selects every registered strategy.
const AllStrategies = "all"

// Defaults mirror the smallest parameter set of the original benchmark.
const (
	DefaultN         = 10_000_000
	DefaultBatchSize = 100_000
)

// Config is the file and flag surface of primebench.
type Config struct {
	N           int64         `yaml:"n"`
	BatchSize   int64         `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Strategy    string        `yaml:"strategy"`
	Trials      int           `yaml:"trials"`
	Verify      bool          `yaml:"verify"`
	Log         LogConfig     `yaml:"log"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// LogConfig controls console logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		N:           DefaultN,
		BatchSize:   DefaultBatchSize,
		Concurrency: limit.UnboundedValue,
		Strategy:    AllStrategies,
		Trials:      1,
		Log:         LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default without validating.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field before any batch runs.
func (c Config) Validate() error {
	if _, err := batch.New(c.N, c.BatchSize); err != nil {
		return err
	}
	if _, err := limit.Parse(c.Concurrency); err != nil {
		return err
	}
	if _, err := c.Strategies(); err != nil {
		return err
	}
	if c.Trials < 1 {
		return batch.Invalidf("trials must be >= 1, got %d", c.Trials)
	}
	return nil
}

// Limit returns the parsed concurrency limit.
func (c Config) Limit() (limit.Limit, error) {
	return limit.Parse(c.Concurrency)
}

// Strategies resolves the strategy field.
func (c Config) Strategies() ([]strategy.Strategy, error) {
	if c.Strategy == AllStrategies || c.Strategy == "" {
		return strategy.All(), nil
	}
	s, err := strategy.Lookup(strategy.ID(c.Strategy))
	if err != nil {
		return nil, err
	}
	return []strategy.Strategy{s}, nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
