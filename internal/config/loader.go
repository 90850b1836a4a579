package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if BLOOM_CONFIG is set
//  3. env (prefix BLOOM_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("BLOOM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: BLOOM_BASE_URL, BLOOM_SYNC_INTERVAL_S, ...
	// Map env keys like BLOOM_API_KEY -> api_key (flat keys); underscores
	// are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("BLOOM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "bloom_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	}
	if cfg.SyncIntervalS <= 0 {
		return nil, fmt.Errorf("%w: sync_interval_s must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
