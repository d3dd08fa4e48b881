package config

// DefaultConfig returns the two built-in variants.
func DefaultConfig() *Config {
	return &Config{
		DefaultVariant: "default",
		Variants: map[string]Variant{
			"default": {
				Name:            "default",
				MaxZoom:         10,
				AssetPrefix:     "/otrs-web",
				TileURLTemplate: DefaultTileURLTemplate,
				Attribution:     DefaultAttribution,
			},
			"extended": {
				Name:            "extended",
				MaxZoom:         20,
				AssetPrefix:     "/web",
				TileURLTemplate: DefaultTileURLTemplate,
				Attribution:     DefaultAttribution,
			},
		},
	}
}
