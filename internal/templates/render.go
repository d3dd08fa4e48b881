// Package templates renders the standalone map page.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/joeblew999/plat-osm/internal/humastar"
	"github.com/joeblew999/plat-osm/internal/leaflet"
	"github.com/joeblew999/plat-osm/internal/widget"
)

//go:embed html/*.html
var files embed.FS

// MapPage is the data of the "map" template.
type MapPage struct {
	Title         string
	InstanceID    string
	CanvasID      string
	StylesheetURL string
	ScriptURL     string
	DatastarURL   string
	Bootstrap     template.JS
	DataInit      string
}

// NewMapPage fills a MapPage from a widget snippet.
func NewMapPage(title string, s widget.Snippet) MapPage {
	return MapPage{
		Title:         title,
		InstanceID:    s.InstanceID,
		CanvasID:      leaflet.CanvasID,
		StylesheetURL: s.StylesheetURL,
		ScriptURL:     s.ScriptURL,
		DatastarURL:   s.DatastarURL,
		Bootstrap:     template.JS(s.Bootstrap),
		DataInit:      humastar.DataInit(s.StreamURL),
	}
}

// ErrorPage is the data of the "error" template.
type ErrorPage struct {
	Title   string
	Message string
}

// Renderer manages the page templates.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(files, "html/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
