package server

import (
	"net/http"
	"net/url"
	"path"

	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-osm/internal/config"
	"github.com/joeblew999/plat-osm/internal/leaflet"
	"github.com/joeblew999/plat-osm/internal/templates"
	"github.com/joeblew999/plat-osm/internal/widget"
)

// snippet builds what a page with the map canvas needs. rawQuery is the
// page's own query string and is handed to the overlay stream unchanged.
func (s *Server) snippet(v config.Variant, rawQuery string) widget.Snippet {
	stylesheet, script := v.StylesheetPath(), v.ScriptPath()
	if s.loader != nil {
		stylesheet = "/assets/" + url.PathEscape(v.Name) + "/leaflet.css"
		script = "/assets/" + url.PathEscape(v.Name) + "/leaflet.js"
	}

	streamURL := "/api/v1/map/stream?" + url.Values{
		"q":       {rawQuery},
		"variant": {v.Name},
	}.Encode()

	return widget.NewSnippet(stylesheet, script, leaflet.Bootstrap(v), streamURL)
}

// handleMap serves a page holding only the map. Its query string is the
// widget query, e.g. /map?Action=AgentTicketZoom;TicketID=42.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	v, ok := s.variant(r.PathValue("variant"))
	if !ok {
		s.renderError(w, http.StatusNotFound, "Unknown map variant.")
		return
	}

	if s.loader != nil {
		// No map without its assets.
		if _, err := s.loader.LoadBundle(r.Context(), s.assetURL(v.StylesheetPath()), s.assetURL(v.ScriptPath())); err != nil {
			log.WithError(err).WithField("variant", v.Name).Error("map assets unavailable")
			s.renderError(w, http.StatusBadGateway, "Map assets are unavailable.")
			return
		}
	}

	page := templates.NewMapPage("Map", s.snippet(v, r.URL.RawQuery))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Execute(w, "map", page); err != nil {
		log.WithError(err).Error("rendering map page")
	}
}

// renderError writes the HTML error page with status.
func (s *Server) renderError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderer.Execute(w, "error", templates.ErrorPage{Title: "Map", Message: msg}); err != nil {
		log.WithError(err).WithField("status", status).Error("rendering error page")
	}
}

// handleAsset serves the Leaflet stylesheet or script of a variant, loaded
// from the asset origin.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	v, ok := s.variant(r.PathValue("variant"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var assetPath string
	switch r.PathValue("file") {
	case "leaflet.css":
		assetPath = v.StylesheetPath()
	case "leaflet.js":
		assetPath = v.ScriptPath()
	default:
		http.NotFound(w, r)
		return
	}

	res, err := s.loader.Load(r.Context(), s.assetURL(assetPath))
	if err != nil {
		log.WithError(err).WithField("variant", v.Name).Error("failed to load map asset")
		writeError(w, http.StatusBadGateway, "map asset unavailable")
		return
	}

	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(res.Body)
}

// assetURL resolves an asset path against the asset origin.
func (s *Server) assetURL(assetPath string) string {
	u := *s.assetOrigin
	u.Path = path.Join(u.Path, assetPath)
	return u.String()
}
