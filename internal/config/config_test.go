package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	def, ok := cfg.Variant("")
	if !ok {
		t.Fatal("default variant missing")
	}
	if def.MaxZoom != 10 {
		t.Errorf("default max zoom = %d, want 10", def.MaxZoom)
	}
	if got, want := def.ScriptPath(), "/otrs-web/js/thirdparty/leaflet-1.4.0/leaflet.js"; got != want {
		t.Errorf("ScriptPath() = %q, want %q", got, want)
	}
	if got, want := def.StylesheetPath(), "/otrs-web/skins/Agent/default/css/thirdparty/leaflet-1.4.0/leaflet.css"; got != want {
		t.Errorf("StylesheetPath() = %q, want %q", got, want)
	}

	ext, ok := cfg.Variant("extended")
	if !ok || ext.MaxZoom != 20 {
		t.Errorf("extended = %+v, want max zoom 20", ext)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Names(); len(got) != 2 {
		t.Errorf("Names() = %v, want 2 built-ins", got)
	}
	if cfg.DefaultVariant != "default" {
		t.Errorf("DefaultVariant = %q", cfg.DefaultVariant)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yml")
	content := `
default_variant: extended
variants:
  extended:
    max_zoom: 18
  hot:
    max_zoom: 19
    asset_prefix: /static
    tile_url_template: https://tiles.example.com/hot/{z}/{x}/{y}.png
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ext, _ := cfg.Variant("")
	if ext.Name != "extended" || ext.MaxZoom != 18 {
		t.Errorf("extended = %+v, want max zoom 18", ext)
	}
	if ext.AssetPrefix != "/web" || ext.TileURLTemplate != DefaultTileURLTemplate {
		t.Errorf("extended lost defaults: %+v", ext)
	}

	hot, ok := cfg.Variant("hot")
	if !ok || hot.Name != "hot" || hot.MaxZoom != 19 {
		t.Errorf("hot = %+v", hot)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OSMMAP_VARIANTS__DEFAULT__MAX_ZOOM", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def, _ := cfg.Variant("default")
	if def.MaxZoom != 12 {
		t.Errorf("max zoom = %d, want 12", def.MaxZoom)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultVariant = "missing"
	if err := cfg.Validate(); err == nil {
		t.Error("want error for unknown default variant")
	}

	cfg = DefaultConfig()
	v := cfg.Variants["default"]
	v.MaxZoom = 40
	cfg.Variants["default"] = v
	if err := cfg.Validate(); err == nil {
		t.Error("want error for max zoom 40")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yml")

	original := DefaultConfig()
	v := original.Variants["default"]
	v.AssetPrefix = "/custom-web"
	original.Variants["default"] = v

	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Variants["default"].AssetPrefix; got != "/custom-web" {
		t.Errorf("asset prefix = %q, want /custom-web", got)
	}
}
