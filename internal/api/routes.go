// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-osm/internal/gateway"
	"github.com/joeblew999/plat-osm/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Map *service.MapService
}

// Types

type NameInput struct {
	Name string `path:"name" doc:"Variant name" example:"extended"`
}

// QueryInput carries the widget's page query and the caller's session.
type QueryInput struct {
	Q              string `query:"q" doc:"Query string of the page the widget is embedded in, semicolon separated" example:"Action=AgentTicketZoom;TicketID=42"`
	ChallengeToken string `query:"challengeToken" doc:"Backend CSRF token, forwarded as ChallengeToken"`
	Cookie         string `header:"Cookie" doc:"Forwarded to the backend so it sees the user's session"`
}

func (in *QueryInput) callOptions() []gateway.CallOption {
	var opts []gateway.CallOption
	if in.Cookie != "" {
		opts = append(opts, gateway.WithCookie(in.Cookie))
	}
	if in.ChallengeToken != "" {
		opts = append(opts, gateway.WithChallengeToken(in.ChallengeToken))
	}
	return opts
}

type OverlaysOutput struct {
	Body *service.OverlaysBody
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers the REST API handlers.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterVariants registers variant listing routes.
func (h *APIHandler) RegisterVariants(api huma.API) {
	huma.Get(api, "/api/v1/variants", h.GetVariants, huma.OperationTags("variants"))
	huma.Get(api, "/api/v1/variants/{name}", h.GetVariant, huma.OperationTags("variants"))
}

// RegisterOverlays registers the overlay routes.
func (h *APIHandler) RegisterOverlays(api huma.API) {
	huma.Get(api, "/api/v1/overlays", h.GetOverlays, huma.OperationTags("overlays"))
	huma.Get(api, "/api/v1/overlays/geojson", h.GetOverlaysGeoJSON, huma.OperationTags("overlays"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetVariants(ctx context.Context, input *struct{}) (*struct{ Body []service.VariantBody }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return &struct{ Body []service.VariantBody }{Body: []service.VariantBody{}}, nil
	}
	return &struct{ Body []service.VariantBody }{Body: h.svc.Map.Variants()}, nil
}

func (h *APIHandler) GetVariant(ctx context.Context, input *NameInput) (*struct{ Body service.VariantBody }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	v, err := h.svc.Map.DescribeVariant(input.Name)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body service.VariantBody }{Body: v}, nil
}

func (h *APIHandler) GetOverlays(ctx context.Context, input *QueryInput) (*OverlaysOutput, error) {
	res, err := h.fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	return &OverlaysOutput{Body: h.svc.Map.Instructions(res)}, nil
}

func (h *APIHandler) GetOverlaysGeoJSON(ctx context.Context, input *QueryInput) (*GeoJSONOutput, error) {
	res, err := h.fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(h.svc.Map.GeoJSON(res))
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding GeoJSON", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) fetch(ctx context.Context, input *QueryInput) (*service.Result, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	res, err := h.svc.Map.Fetch(ctx, input.Q, input.callOptions()...)
	if err != nil {
		return nil, gatewayError(err)
	}
	return res, nil
}

func gatewayError(err error) error {
	if errors.Is(err, gateway.ErrRateLimited) {
		return huma.Error429TooManyRequests("backend rate limit reached", err)
	}
	return huma.Error502BadGateway("backend request failed", err)
}
