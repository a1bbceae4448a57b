package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/astro-otter/otter"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. OTTER_DATABASE_HOST.
const EnvPrefix = "OTTER"

// LoadConfig layers an optional YAML or JSON file and OTTER_* environment
// variables over DefaultConfig, then validates the result.
func LoadConfig(path string) (*otter.Config, error) {
	encoded, err := json.Marshal(otter.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("encode default config: %w", err)
	}
	var defaults map[string]any
	if err := json.Unmarshal(encoded, &defaults); err != nil {
		return nil, fmt.Errorf("decode default config: %w", err)
	}

	v := viper.New()
	setDefaults(v, "", defaults)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &otter.Config{}
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every leaf of m under its dotted key so that
// environment overrides apply to keys absent from the config file.
func setDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, val)
	}
}
