package overlay

import "github.com/paulmach/orb"

// Surface is a live map that overlays are drawn on.
type Surface interface {
	// FitBounds moves the view so the bounds are visible.
	FitBounds(b Bounds)
	// RefitOnResize re-applies FitBounds(b) whenever the map is resized.
	RefitOnResize(b Bounds)
	// AddMarker places a marker; a nil icon means the default glyph.
	AddMarker(pos orb.Point, icon *Icon) Overlay
	// AddLine draws a segment from one point to another.
	AddLine(from, to orb.Point, style LineStyle) Overlay
}

// Overlay is a marker or line already placed on a Surface.
type Overlay interface {
	BindPopup(text string)
	OnClickNavigate(url string)
}

// Stats counts what Render placed.
type Stats struct {
	Markers int `json:"markers" doc:"Markers placed"`
	Lines   int `json:"lines" doc:"Lines drawn"`
	Popups  int `json:"popups" doc:"Overlays with a popup"`
	Links   int `json:"links" doc:"Overlays that navigate on click"`
}

// Render draws the response onto the surface: markers first, then lines,
// then the view is fitted to the bounds and kept fitted on resize.
// Link targets are baseURL + link.
func Render(resp *Response, s Surface, baseURL string) Stats {
	var st Stats

	count := func(a Action) {
		switch a.Kind {
		case ActionNavigate:
			st.Links++
		case ActionPopup:
			st.Popups++
		}
	}

	for _, m := range resp.Markers {
		o := s.AddMarker(m.Position, NewIcon(m.IconPath))
		a := ResolveAction(baseURL, m.Link, m.Description)
		a.Apply(o)
		count(a)
		st.Markers++
	}

	for _, l := range resp.Lines {
		o := s.AddLine(l.From, l.To, LineStyle{Color: l.Color, Weight: l.Weight, Opacity: 1})
		a := ResolveAction(baseURL, l.Link, l.Description)
		a.Apply(o)
		count(a)
		st.Lines++
	}

	if resp.Bounds != nil {
		s.FitBounds(*resp.Bounds)
		s.RefitOnResize(*resp.Bounds)
	}

	return st
}
