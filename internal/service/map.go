package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-osm/internal/config"
	"github.com/joeblew999/plat-osm/internal/gateway"
	"github.com/joeblew999/plat-osm/internal/leaflet"
	"github.com/joeblew999/plat-osm/internal/overlay"
	"github.com/joeblew999/plat-osm/internal/query"
)

// Gateway is the backend call MapService depends on.
type Gateway interface {
	FunctionCall(ctx context.Context, params query.Params, opts ...gateway.CallOption) (*overlay.Response, error)
	LinkBase() string
}

// MapService fetches map data and renders it.
type MapService struct {
	gateway  Gateway
	variants *config.Config
}

// NewMapService creates a MapService.
func NewMapService(gw Gateway, variants *config.Config) *MapService {
	if variants == nil {
		variants = config.DefaultConfig()
	}
	return &MapService{gateway: gw, variants: variants}
}

// Fetch parses the widget's query string and asks the backend for the map.
func (s *MapService) Fetch(ctx context.Context, rawQuery string, opts ...gateway.CallOption) (*Result, error) {
	params := query.Parse(rawQuery)
	id := uuid.NewString()

	logger := log.WithFields(log.Fields{
		"request": id,
		"action":  params.Get(query.OriginalActionKey),
	})

	resp, err := s.gateway.FunctionCall(ctx, params, opts...)
	if err != nil {
		logger.WithError(err).Error("map fetch failed")
		return nil, err
	}

	for _, issue := range resp.Issues {
		logger.WithError(issue).Warn("map response issue")
	}

	return &Result{
		ID:       id,
		Params:   params,
		Response: resp,
		LinkBase: s.gateway.LinkBase(),
	}, nil
}

// Instructions renders r onto a Recorder.
func (s *MapService) Instructions(r *Result) *OverlaysBody {
	rec := overlay.NewRecorder()
	stats := overlay.Render(r.Response, rec, r.LinkBase)

	return &OverlaysBody{
		ID:           r.ID,
		Action:       r.Params.Get(query.OriginalActionKey),
		Bounds:       r.Response.Bounds,
		FitOnResize:  r.Response.Bounds != nil,
		Instructions: rec.Instructions(),
		Stats:        stats,
		Issues:       lo.Map(r.Response.Issues, func(err error, _ int) string { return err.Error() }),
	}
}

// Script renders r as a Leaflet script that runs once the map exists.
func (s *MapService) Script(r *Result) (string, overlay.Stats) {
	script := leaflet.NewScript("map")
	stats := overlay.Render(r.Response, script, r.LinkBase)
	return leaflet.Ready(script), stats
}

// GeoJSON renders r as a feature collection.
func (s *MapService) GeoJSON(r *Result) *geojson.FeatureCollection {
	return overlay.FeatureCollection(r.Response, r.LinkBase)
}

// Variant returns the named variant; "" selects the default.
func (s *MapService) Variant(name string) (config.Variant, error) {
	v, ok := s.variants.Variant(name)
	if !ok {
		return config.Variant{}, fmt.Errorf("unknown variant %q", name)
	}
	return v, nil
}

// Variants lists the configured variants sorted by name.
func (s *MapService) Variants() []VariantBody {
	return lo.Map(s.variants.Names(), func(name string, _ int) VariantBody {
		return s.describe(s.variants.Variants[name])
	})
}

// DescribeVariant returns the API view of the named variant.
func (s *MapService) DescribeVariant(name string) (VariantBody, error) {
	v, err := s.Variant(name)
	if err != nil {
		return VariantBody{}, err
	}
	return s.describe(v), nil
}

func (s *MapService) describe(v config.Variant) VariantBody {
	return VariantBody{
		Name:           v.Name,
		MaxZoom:        v.MaxZoom,
		AssetPrefix:    v.AssetPrefix,
		StylesheetPath: v.StylesheetPath(),
		ScriptPath:     v.ScriptPath(),
		Default:        v.Name == s.variants.DefaultVariant,
	}
}
