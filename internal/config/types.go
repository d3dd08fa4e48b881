// Package config holds the map widget variants and their loading.
package config

// Tile source and attribution shared by every variant unless overridden.
const (
	DefaultTileURLTemplate = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution     = `Map data &copy; <a href="https://www.openstreetmap.org/" target="_blank">OpenStreetMap</a> and contributors <a href="https://creativecommons.org/licenses/by-sa/2.0/" target="_blank">CC-BY-SA</a>`

	// LeafletVersion is the bundled library release the asset paths point to.
	LeafletVersion = "1.4.0"
)

// Variant is one branding of the widget. Variants differ only in
// configuration, never in behaviour.
type Variant struct {
	Name            string `yaml:"name" koanf:"name" json:"name" doc:"Variant name" example:"default"`
	MaxZoom         int    `yaml:"max_zoom" koanf:"max_zoom" json:"maxZoom" validate:"gte=0,lte=22" minimum:"0" maximum:"22" doc:"Maximum tile zoom" example:"10"`
	AssetPrefix     string `yaml:"asset_prefix" koanf:"asset_prefix" json:"assetPrefix" doc:"Path prefix of the static assets" example:"/otrs-web"`
	TileURLTemplate string `yaml:"tile_url_template" koanf:"tile_url_template" json:"tileURLTemplate" validate:"required" doc:"Leaflet tile URL template"`
	Attribution     string `yaml:"attribution" koanf:"attribution" json:"attribution" doc:"Tile attribution HTML"`
}

// StylesheetPath is the Leaflet stylesheet below the asset prefix.
func (v Variant) StylesheetPath() string {
	return v.AssetPrefix + "/skins/Agent/default/css/thirdparty/leaflet-" + LeafletVersion + "/leaflet.css"
}

// ScriptPath is the Leaflet script below the asset prefix.
func (v Variant) ScriptPath() string {
	return v.AssetPrefix + "/js/thirdparty/leaflet-" + LeafletVersion + "/leaflet.js"
}

// Config is the variants file.
type Config struct {
	DefaultVariant string             `yaml:"default_variant" koanf:"default_variant"`
	Variants       map[string]Variant `yaml:"variants" koanf:"variants"`
}
