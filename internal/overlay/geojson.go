package overlay

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection exports the overlays as GeoJSON. Markers become Point
// features and lines LineString features; the bounds become the bbox.
func FeatureCollection(resp *Response, baseURL string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range resp.Markers {
		f := geojson.NewFeature(m.Position)
		f.Properties["kind"] = string(KindMarker)
		if icon := NewIcon(m.IconPath); icon != nil {
			f.Properties["icon"] = icon.URL
			f.Properties["iconSize"] = icon.Size
			f.Properties["iconAnchor"] = icon.Anchor
		}
		setAction(f, ResolveAction(baseURL, m.Link, m.Description))
		fc.Append(f)
	}

	for _, l := range resp.Lines {
		f := geojson.NewFeature(orb.LineString{l.From, l.To})
		f.Properties["kind"] = string(KindLine)
		f.Properties["color"] = l.Color
		f.Properties["weight"] = l.Weight
		f.Properties["opacity"] = 1.0
		setAction(f, ResolveAction(baseURL, l.Link, l.Description))
		fc.Append(f)
	}

	if resp.Bounds != nil {
		fc.BBox = geojson.NewBBox(resp.Bounds.Bound())
	}

	return fc
}

func setAction(f *geojson.Feature, a Action) {
	switch a.Kind {
	case ActionNavigate:
		f.Properties["link"] = a.URL
	case ActionPopup:
		f.Properties["popup"] = a.Text
	}
}
