// Package config resolves costcore settings from defaults, a YAML file and
// the environment, in that order of precedence (later wins).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDB        = "COSTCORE_DB"
	EnvLogLevel  = "COSTCORE_LOG_LEVEL"
	EnvLogFormat = "COSTCORE_LOG_FORMAT"
	EnvTolerance = "COSTCORE_TOLERANCE"
)

// DefaultEnvFile is loaded when present and no other env file is named.
const DefaultEnvFile = ".env"

// Config is the resolved configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Rules    RulesConfig    `yaml:"rules"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RulesConfig struct {
	// Tolerance is the allowed absolute gap between a declared and a
	// recomputed subtotal, as a decimal string.
	Tolerance string `yaml:"tolerance"`
}

type IngestConfig struct {
	// NameMappings is the path of a YAML name mapping table. Empty disables
	// normalization.
	NameMappings string `yaml:"name_mappings"`
}

// Flags carries command-line inputs to Resolve.
type Flags struct {
	ConfigPath string
	EnvFile    string
}

// Default returns the compiled-in defaults.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "costcore.db"},
		Log:      LogConfig{Level: "warn", Format: "console"},
		Rules:    RulesConfig{Tolerance: "1"},
	}
}

// Load reads a YAML config from disk on top of the defaults. Keys the file
// omits keep their default; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies defaults, the optional config file and environment
// overrides, then validates.
func Resolve(flags Flags) (Config, error) {
	if err := loadEnvFile(flags.EnvFile); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if flags.ConfigPath != "" {
		loaded, err := Load(flags.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	for name, dst := range map[string]*string{
		EnvDB:        &c.Database.Path,
		EnvLogLevel:  &c.Log.Level,
		EnvLogFormat: &c.Log.Format,
		EnvTolerance: &c.Rules.Tolerance,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}

// Validate checks the resolved configuration for consistency.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log.format: %s (expected console or json)", c.Log.Format)
	}
	if _, err := c.Tolerance(); err != nil {
		return err
	}
	return nil
}

// Tolerance parses rules.tolerance.
func (c *Config) Tolerance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Rules.Tolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rules.tolerance %q: %w", c.Rules.Tolerance, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid rules.tolerance %q: must not be negative", c.Rules.Tolerance)
	}
	return d, nil
}
