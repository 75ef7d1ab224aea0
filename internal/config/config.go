// Package config loads the harness settings from a YAML file, falling
// back to defaults when no file is present.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Benchmark Benchmark `yaml:"benchmark"`
	Databases Databases `yaml:"databases"`
	LogLevel  string    `yaml:"log_level"`
}

type Benchmark struct {
	Rows       int `yaml:"rows"`
	ChunkSize  int `yaml:"chunk_size"`
	FlushEvery int `yaml:"flush_every"`
}

type Databases struct {
	// SQLiteDir is where per-trial database files go. Empty means the
	// system temp directory.
	SQLiteDir string `yaml:"sqlite_dir"`
	// Postgres and MySQL are admin DSNs with CREATE/DROP DATABASE
	// rights; leave empty to skip those backends.
	Postgres string `yaml:"postgres"`
	MySQL    string `yaml:"mysql"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Benchmark: Benchmark{
			Rows:       100000,
			ChunkSize:  10000,
			FlushEvery: 1000,
		},
		LogLevel: "info",
	}
}

// Load reads path into a Config on top of the defaults. A missing file
// is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if config.Benchmark.Rows < 0 {
		return nil, fmt.Errorf("%s: rows must not be negative", path)
	}
	if config.Benchmark.ChunkSize <= 0 {
		return nil, fmt.Errorf("%s: chunk_size must be positive", path)
	}
	if config.Benchmark.FlushEvery <= 0 {
		return nil, fmt.Errorf("%s: flush_every must be positive", path)
	}

	return config, nil
}
