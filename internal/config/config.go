// Package config loads runtime configuration from, in order of
// precedence: command-line flags, REVISE_* environment variables, an
// optional YAML config file, and flag defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "REVISE_"

// Config is the application configuration.
type Config struct {
	DB    string `koanf:"db" validate:"required"`
	Addr  string `koanf:"addr" validate:"required,hostname_port"`
	Cache string `koanf:"cache" validate:"required"`
	Log   Log    `koanf:"log"`
}

// Log configures the slog handler.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Load merges the YAML file at path (skipped when empty or missing),
// the environment and the flag set, then validates the result. Flag
// defaults act as the configuration defaults.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	// REVISE_LOG_LEVEL=debug → log.level.
	envLoader := env.Provider(envPrefix, ".", func(key string) string {
		key = strings.TrimPrefix(key, envPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "_", ".")
	})
	if err := k.Load(envLoader, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	// posflag consults k for keys already set, so unchanged flags only
	// contribute their defaults where nothing else did.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
