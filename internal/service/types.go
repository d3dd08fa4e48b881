// Package service contains the map widget's orchestration.
package service

import (
	"github.com/joeblew999/plat-osm/internal/overlay"
	"github.com/joeblew999/plat-osm/internal/query"
)

// Result is one fetched map: the parameters that were sent and what came back.
type Result struct {
	ID       string
	Params   query.Params
	Response *overlay.Response
	// LinkBase is prepended to overlay links.
	LinkBase string
}

// OverlaysBody is the JSON rendering of a Result.
// Huma reads the tags for the OpenAPI schema.
type OverlaysBody struct {
	ID           string                `json:"id" doc:"Request identifier" example:"6f1c0a52-8d8e-4d0a-9c43-3f2b8f0e5a11"`
	Action       string                `json:"action" doc:"Action the widget was embedded in" example:"AgentTicketZoom"`
	Bounds       *overlay.Bounds       `json:"bounds,omitempty" doc:"View the map is fitted to; absent when the response had none"`
	FitOnResize  bool                  `json:"fitOnResize" doc:"Whether the view is refitted when the map is resized"`
	Instructions []overlay.Instruction `json:"instructions" doc:"Markers then lines, in draw order"`
	Stats        overlay.Stats         `json:"stats" doc:"Counts of what was drawn"`
	Issues       []string              `json:"issues,omitempty" doc:"Problems found in the backend response" example:"[\"overlay: missing bounds\"]"`
}

// VariantBody describes one configured widget variant.
type VariantBody struct {
	Name           string `json:"name" doc:"Variant name" example:"default"`
	MaxZoom        int    `json:"maxZoom" doc:"Maximum tile zoom" example:"10"`
	AssetPrefix    string `json:"assetPrefix" doc:"Static asset prefix" example:"/otrs-web"`
	StylesheetPath string `json:"stylesheetPath" doc:"Leaflet stylesheet path"`
	ScriptPath     string `json:"scriptPath" doc:"Leaflet script path"`
	Default        bool   `json:"default" doc:"Whether this is the default variant"`
}
