package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "MOVELOSS_"

// listKeys are comma-separated when set from the environment.
var listKeys = map[string]bool{"models": true, "columns": true, "aggs": true}

// Load builds a Policy by layering defaults, an optional YAML file and
// environment variables. Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) if path is non-empty
//  3. env (prefix MOVELOSS_), e.g. MOVELOSS_OUTLIER_FLOOR=-800,
//     MOVELOSS_MODELS=sf,lichess, MOVELOSS_DECIMALS_PLAYERS=2
//
// Keys present in a higher layer replace the lower value entirely; lists
// and buckets are not merged.
func Load(ctx context.Context, path string) (*Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		switch {
		case key == "config":
			// Names the file, handled by the caller.
			return "", nil
		case strings.HasPrefix(key, "decimals_"):
			key = "decimals." + strings.TrimPrefix(key, "decimals_")
		case listKeys[key]:
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: reading environment: %w", ErrLoadConfig, err)
	}

	var p Policy
	if err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	def := Default()
	if !k.Exists("outlier_floor") {
		p.OutlierFloor = def.OutlierFloor
	}
	if !k.Exists("models") {
		p.Models = def.Models
	}
	if !k.Exists("aggs") {
		p.Aggs = def.Aggs
	}
	if !k.Exists("buckets") {
		p.Buckets = def.Buckets
	}
	if !k.Exists("decimals.general") {
		p.Decimals.General = def.Decimals.General
	}
	if !k.Exists("decimals.players") {
		p.Decimals.Players = def.Decimals.Players
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
