// Package overlay turns the backend's map response into render instructions
// for markers and lines drawn on top of the base tiles.
package overlay

import (
	"errors"

	"github.com/paulmach/orb"
)

var (
	// ErrMissingBounds means From/To were absent or not readable.
	ErrMissingBounds = errors.New("overlay: missing bounds")
	// ErrMissingColumn means a present Icons/Lines table lacks a column.
	ErrMissingColumn = errors.New("overlay: missing column")
	// ErrColumnLength means the columns of a table differ in length.
	ErrColumnLength = errors.New("overlay: column length mismatch")
	// ErrInvalidRecord means a row failed validation.
	ErrInvalidRecord = errors.New("overlay: invalid record")
)

// LatLng is a position in Leaflet order.
type LatLng struct {
	Lat float64 `json:"lat" doc:"Latitude"`
	Lng float64 `json:"lng" doc:"Longitude"`
}

// Point returns the position as an orb point (lon, lat).
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// FromPoint converts an orb point to LatLng.
func FromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Bounds are the two corners the map view is fitted to. The corners are kept
// as delivered; fitting does not care which one is the minimum.
type Bounds struct {
	From LatLng `json:"from" doc:"First corner"`
	To   LatLng `json:"to" doc:"Second corner"`
}

// Pairs returns the bounds as [[lat, lng], [lat, lng]].
func (b Bounds) Pairs() [2][2]float64 {
	return [2][2]float64{{b.From.Lat, b.From.Lng}, {b.To.Lat, b.To.Lng}}
}

// Bound returns the normalised orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.MultiPoint{b.From.Point(), b.To.Point()}.Bound()
}

// Marker is one point overlay.
type Marker struct {
	Position    orb.Point
	IconPath    string
	Link        string
	Description string
}

// Line is one two-point line overlay.
type Line struct {
	From        orb.Point
	To          orb.Point
	Color       string
	Weight      float64
	Link        string
	Description string
}

// Response is the decoded backend payload.
//
// Issues collects problems found while decoding. A section with an issue is
// dropped as a whole; the rest of the response stays usable.
type Response struct {
	Bounds   *Bounds
	Markers  []Marker
	Lines    []Line
	HasIcons bool
	HasLines bool
	Issues   []error
}

// Empty reports whether there is nothing to draw besides the bounds.
func (r *Response) Empty() bool {
	return len(r.Markers) == 0 && len(r.Lines) == 0
}

// Icon is a custom marker image.
type Icon struct {
	URL    string `json:"url" doc:"Image URL"`
	Size   [2]int `json:"size" doc:"Width and height in pixels"`
	Anchor [2]int `json:"anchor" doc:"Anchor offset in pixels"`
}

// LineStyle is the stroke of a line overlay.
type LineStyle struct {
	Color   string  `json:"color" doc:"Stroke color (CSS)"`
	Weight  float64 `json:"weight" doc:"Stroke width"`
	Opacity float64 `json:"opacity" doc:"Stroke opacity (0-1)"`
}

// Icon geometry used for every custom marker image.
var (
	IconSize   = [2]int{10, 15}
	IconAnchor = [2]int{5, 15}
)

// NewIcon returns the custom icon for path, or nil for the default glyph.
func NewIcon(path string) *Icon {
	if path == "" {
		return nil
	}
	return &Icon{URL: path, Size: IconSize, Anchor: IconAnchor}
}
