// Package leaflet renders overlays as Leaflet JavaScript.
//
// Script implements overlay.Surface: every call appends the matching Leaflet
// statement, so overlay.Render produces a script the browser can run against
// a live map. Strings are embedded with encoding/json, which also escapes
// '<' and '>' so the output is safe inside a <script> element.
package leaflet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-osm/internal/overlay"
)

// Script collects Leaflet statements for one map variable.
type Script struct {
	mapVar string
	buf    strings.Builder
	next   int
}

// NewScript starts a script drawing on the JavaScript variable mapVar.
func NewScript(mapVar string) *Script {
	return &Script{mapVar: mapVar}
}

// String returns the statements collected so far.
func (s *Script) String() string {
	return s.buf.String()
}

// Func wraps the statements in a function taking the map, suitable for
// OSMMap.ready(...).
func (s *Script) Func() string {
	return "function(" + s.mapVar + "){\n" + s.buf.String() + "}"
}

func (s *Script) FitBounds(b overlay.Bounds) {
	fmt.Fprintf(&s.buf, "%s.fitBounds(%s);\n", s.mapVar, bounds(b))
}

func (s *Script) RefitOnResize(b overlay.Bounds) {
	fmt.Fprintf(&s.buf, "%s.on(\"resize\",function(){%s.fitBounds(%s);});\n", s.mapVar, s.mapVar, bounds(b))
}

func (s *Script) AddMarker(pos orb.Point, icon *overlay.Icon) overlay.Overlay {
	v := s.newVar()
	if icon == nil {
		fmt.Fprintf(&s.buf, "var %s=L.marker(%s).addTo(%s);\n", v, latLng(pos), s.mapVar)
	} else {
		fmt.Fprintf(&s.buf, "var %s=L.marker(%s,{icon:L.icon({iconUrl:%s,iconSize:%s,iconAnchor:%s})}).addTo(%s);\n",
			v, latLng(pos), str(icon.URL), pair(icon.Size), pair(icon.Anchor), s.mapVar)
	}
	return &handle{s: s, v: v}
}

func (s *Script) AddLine(from, to orb.Point, style overlay.LineStyle) overlay.Overlay {
	v := s.newVar()
	fmt.Fprintf(&s.buf, "var %s=L.polyline([%s,%s],{color:%s,weight:%s,opacity:%s}).addTo(%s);\n",
		v, latLng(from), latLng(to), str(style.Color), num(style.Weight), num(style.Opacity), s.mapVar)
	return &handle{s: s, v: v}
}

func (s *Script) newVar() string {
	s.next++
	return "o" + strconv.Itoa(s.next)
}

type handle struct {
	s *Script
	v string
}

func (h *handle) BindPopup(text string) {
	fmt.Fprintf(&h.s.buf, "%s.bindPopup(%s);\n", h.v, str(text))
}

// OnClickNavigate replaces the current page, it never opens a new tab.
func (h *handle) OnClickNavigate(url string) {
	fmt.Fprintf(&h.s.buf, "%s.on(\"click\",function(){window.open(%s,\"_self\");});\n", h.v, str(url))
}

func str(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func latLng(p orb.Point) string {
	return "[" + num(p.Lat()) + "," + num(p.Lon()) + "]"
}

func pair(p [2]int) string {
	return "[" + strconv.Itoa(p[0]) + "," + strconv.Itoa(p[1]) + "]"
}

func bounds(b overlay.Bounds) string {
	return "[" + latLng(b.From.Point()) + "," + latLng(b.To.Point()) + "]"
}
