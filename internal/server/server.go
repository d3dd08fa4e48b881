package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-osm/internal/api"
	"github.com/joeblew999/plat-osm/internal/api/stream"
	"github.com/joeblew999/plat-osm/internal/assets"
	"github.com/joeblew999/plat-osm/internal/config"
	"github.com/joeblew999/plat-osm/internal/gateway"
	"github.com/joeblew999/plat-osm/internal/service"
	"github.com/joeblew999/plat-osm/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host string
	Port string
	// Baselink is the ticketing backend's gateway URL.
	Baselink string
	// Variant overrides the default variant of the variants file.
	Variant      string
	VariantsFile string
	// AssetOrigin, when set, makes the server fetch and serve the Leaflet
	// assets itself instead of pointing pages at the host's copies.
	AssetOrigin string
	// CacheDir holds the asset cache; empty keeps it in memory.
	CacheDir string
	// Upstream, when set, turns on proxy mode.
	Upstream  string
	Timeout   time.Duration
	RateLimit float64
}

// Server is the map widget HTTP server.
type Server struct {
	config      Config
	mux         *http.ServeMux
	humaAPI     huma.API
	variants    *config.Config
	services    *api.Services
	renderer    *templates.Renderer
	loader      *assets.Loader
	store       *assets.BadgerStore
	assetOrigin *url.URL
	proxy       http.Handler
}

// New creates a new map server.
func New(cfg Config) (*Server, error) {
	variants, err := config.Load(cfg.VariantsFile)
	if err != nil {
		return nil, err
	}
	if cfg.Variant != "" {
		variants.DefaultVariant = cfg.Variant
	}
	if err := variants.Validate(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-osm API", "1.0.0")
	humaConfig.Info.Description = "OpenStreetMap widget API: overlays for ticketing pages as JSON, GeoJSON or Datastar script streams."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	var upstream *url.URL
	if cfg.Upstream != "" {
		if upstream, err = url.Parse(cfg.Upstream); err != nil {
			return nil, fmt.Errorf("invalid upstream %q: %w", cfg.Upstream, err)
		}
	}

	gwConfig := gateway.Config{
		Baselink:          cfg.Baselink,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RateLimit,
	}
	if upstream != nil {
		// Overlay links stay on the proxy so followed pages get the map too.
		if base, ok := proxyLinkBase(cfg.Baselink, upstream); ok {
			gwConfig.LinkBase = base
		}
	}
	gw := gateway.New(gwConfig)

	services := &api.Services{
		Map: service.NewMapService(gw, variants),
	}

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		variants: variants,
		services: services,
		renderer: renderer,
	}

	if cfg.AssetOrigin != "" {
		if s.assetOrigin, err = url.Parse(cfg.AssetOrigin); err != nil {
			return nil, fmt.Errorf("invalid asset origin %q: %w", cfg.AssetOrigin, err)
		}
		if cfg.CacheDir != "" {
			s.store, err = assets.OpenBadgerStore(cfg.CacheDir)
		} else {
			s.store, err = assets.OpenMemoryStore()
		}
		if err != nil {
			return nil, err
		}
		s.loader = assets.NewLoader(s.store, cfg.Timeout)
	}

	if upstream != nil {
		s.proxy = s.newProxy(upstream)
	}

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the services, e.g. for one-shot CLI commands.
func (s *Server) Services() *api.Services {
	return s.services
}

// Variants returns the effective variant configuration.
func (s *Server) Variants() *config.Config {
	return s.variants
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.Baselink, s.variants.DefaultVariant, s.proxy != nil, s.loader != nil).RegisterRoutes(s.humaAPI)

	// Register widget SSE routes using Huma + Datastar SDK
	stream.NewMapHandler(s.services.Map).RegisterRoutes(s.humaAPI)

	// Page routes
	s.mux.HandleFunc("GET /map", s.handleMap)
	s.mux.HandleFunc("GET /map/{variant}", s.handleMap)

	if s.loader != nil {
		s.mux.HandleFunc("GET /assets/{variant}/{file}", s.handleAsset)
	}

	if s.proxy != nil {
		s.mux.Handle("/", s.proxy)
	} else {
		s.mux.HandleFunc("/", s.handleRoot)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-osm",
		"status":  "running",
	})
}

func (s *Server) variant(name string) (config.Variant, bool) {
	return s.variants.Variant(name)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if _, err := io.WriteString(w, msg); err != nil {
		log.WithError(err).Debug("writing error response")
	}
}
