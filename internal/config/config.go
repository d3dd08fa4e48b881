package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix selects the environment overrides, e.g.
// OSMMAP_VARIANTS__DEFAULT__MAX_ZOOM=12.
const EnvPrefix = "OSMMAP_"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the built-in variants, overlays the YAML file at path (if it
// exists) and then OSMMAP_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := seed(k, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("seeding defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	for name, v := range cfg.Variants {
		if v.Name == "" {
			v.Name = name
			cfg.Variants[name] = v
		}
	}

	return cfg, nil
}

// seed puts every default value into k so file and env layers merge on top
// field by field.
func seed(k *koanf.Koanf, cfg *Config) error {
	if err := k.Set("default_variant", cfg.DefaultVariant); err != nil {
		return err
	}
	for name, v := range cfg.Variants {
		prefix := "variants." + name + "."
		for key, val := range map[string]any{
			"name":              v.Name,
			"max_zoom":          v.MaxZoom,
			"asset_prefix":      v.AssetPrefix,
			"tile_url_template": v.TileURLTemplate,
			"attribution":       v.Attribution,
		} {
			if err := k.Set(prefix+key, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks every variant and the default selection.
func (c *Config) Validate() error {
	if len(c.Variants) == 0 {
		return fmt.Errorf("at least one variant is required")
	}
	if _, ok := c.Variants[c.DefaultVariant]; !ok {
		return fmt.Errorf("default_variant %q is not defined", c.DefaultVariant)
	}
	for name, v := range c.Variants {
		if err := validate.Struct(v); err != nil {
			return fmt.Errorf("variant %q: %w", name, err)
		}
	}
	return nil
}

// Variant returns the named variant; "" selects the default one.
func (c *Config) Variant(name string) (Variant, bool) {
	if name == "" {
		name = c.DefaultVariant
	}
	v, ok := c.Variants[name]
	return v, ok
}

// Names returns the variant names sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Variants))
	for name := range c.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
