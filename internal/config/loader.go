package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ROADRANK_CONFIG is set
//  3. env (prefix ROADRANK_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ROADRANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: ROADRANK_PORT, ROADRANK_SAFE_THRESHOLD, ...
	// Keys map to the koanf tags on the struct, underscores preserved.
	envProvider := env.Provider("ROADRANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "roadrank_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.ModerateThreshold < 0 || c.SafeThreshold > 100 {
		return errors.New("category thresholds must lie within [0,100]")
	}
	if c.ModerateThreshold >= c.SafeThreshold {
		return errors.New("moderate_threshold must be below safe_threshold")
	}
	if c.TaskCooldown < 0 {
		return errors.New("task_cooldown must not be negative")
	}
	return nil
}
