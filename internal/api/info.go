package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	baselink       string
	defaultVariant string
	proxy          bool
	assets         bool
}

func NewInfoHandler(baselink, defaultVariant string, proxy, assets bool) *InfoHandler {
	return &InfoHandler{baselink: baselink, defaultVariant: defaultVariant, proxy: proxy, assets: assets}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name           string   `json:"name" doc:"Service name"`
	Version        string   `json:"version" doc:"Service version"`
	Baselink       string   `json:"baselink" doc:"Backend gateway URL"`
	DefaultVariant string   `json:"default_variant" doc:"Variant used when none is requested"`
	Features       []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"overlays", "geojson", "stream", "map-page"}
	if h.assets {
		features = append(features, "assets")
	}
	if h.proxy {
		features = append(features, "proxy")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:           "plat-osm",
		Version:        "0.1.0",
		Baselink:       h.baselink,
		DefaultVariant: h.defaultVariant,
		Features:       features,
	}}, nil
}
