// Package config loads service manifests and logging settings.
//
// A manifest is a YAML file; any scalar setting can be overridden with an
// environment variable prefixed NASC_, for example NASC_LOG_LEVEL=debug.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/toutaio/toutago-nasc-scopes/projector"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "NASC"

// Config is a complete container manifest.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Projector ProjectorConfig `mapstructure:"projector" yaml:"projector"`
	Services  []ServiceConfig `mapstructure:"services" yaml:"services"`
}

// LogConfig selects the zap logger built by NewLogger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
}

// ProjectorConfig holds defaults for type projection.
type ProjectorConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// ServiceConfig declares one service.
type ServiceConfig struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Lifetime string   `mapstructure:"lifetime" yaml:"lifetime"`
	Strategy string   `mapstructure:"strategy" yaml:"strategy,omitempty"`
	Aliases  []string `mapstructure:"aliases" yaml:"aliases,omitempty"`
	Pool     int      `mapstructure:"pool" yaml:"pool,omitempty"`
}

// Default returns a manifest with no services and info-level JSON logging.
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info", Encoding: "json"},
		Projector: ProjectorConfig{Mode: projector.SkipOnMismatch.String()},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.encoding", d.Log.Encoding)
	v.SetDefault("projector.mode", d.Projector.Mode)
}

// Load reads the manifest at path and applies environment overrides.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	return decode(v)
}

// Parse reads a YAML manifest from memory.
func Parse(data []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the manifest for structural errors. Lifetimes and
// strategies are checked when the container is built.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	var errs []error
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Projector.Mode != "" {
		if _, err := projector.ParseMode(c.Projector.Mode); err != nil {
			errs = append(errs, fmt.Errorf("projector.mode: %w", err))
		}
	}

	seen := make(map[string]int, len(c.Services))
	for i, svc := range c.Services {
		switch {
		case svc.Name == "":
			errs = append(errs, fmt.Errorf("services[%d]: name is required", i))
		case svc.Lifetime == "":
			errs = append(errs, fmt.Errorf("services[%d] %q: lifetime is required", i, svc.Name))
		case svc.Pool < 0:
			errs = append(errs, fmt.Errorf("services[%d] %q: pool must not be negative", i, svc.Name))
		}
		if prev, dup := seen[svc.Name]; dup && svc.Name != "" {
			errs = append(errs, fmt.Errorf("services[%d] %q: duplicates services[%d]", i, svc.Name, prev))
		}
		seen[svc.Name] = i
	}
	return errors.Join(errs...)
}

// ProjectorMode returns the parsed projector mode.
func (c *Config) ProjectorMode() projector.Mode {
	mode, err := projector.ParseMode(c.Projector.Mode)
	if err != nil {
		return projector.SkipOnMismatch
	}
	return mode
}

// YAML renders the manifest.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
