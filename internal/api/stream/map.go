// Package stream contains the Datastar SSE handlers the widget talks to.
package stream

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-osm/internal/gateway"
	"github.com/joeblew999/plat-osm/internal/humastar"
	"github.com/joeblew999/plat-osm/internal/leaflet"
	"github.com/joeblew999/plat-osm/internal/service"
)

// MapHandler streams overlay scripts to a page holding the map canvas.
type MapHandler struct {
	humastar.Handler
	svc *service.MapService
}

func NewMapHandler(svc *service.MapService) *MapHandler {
	return &MapHandler{svc: svc}
}

func (h *MapHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/map/stream", h.Overlays,
		huma.OperationTags("map"),
	)
}

type OverlaysInput struct {
	Q              string `query:"q" doc:"Query string of the page the widget is embedded in" example:"Action=AgentTicketZoom;TicketID=42"`
	Variant        string `query:"variant" doc:"Variant used when the page has no map yet; empty selects the default"`
	ChallengeToken string `query:"challengeToken" doc:"Backend CSRF token"`
	Cookie         string `header:"Cookie" doc:"Forwarded to the backend"`
}

// Overlays fetches the map data and sends it as scripts: the bootstrap when
// the page has no map, the overlays, then one console warning per issue.
// The counts follow as the osmmap signal. A failed fetch ends up as a
// console error and an osmmap.error signal.
func (h *MapHandler) Overlays(ctx context.Context, input *OverlaysInput) (*huma.StreamResponse, error) {
	v, err := h.svc.Variant(input.Variant)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	var opts []gateway.CallOption
	if input.Cookie != "" {
		opts = append(opts, gateway.WithCookie(input.Cookie))
	}
	if input.ChallengeToken != "" {
		opts = append(opts, gateway.WithChallengeToken(input.ChallengeToken))
	}

	return h.Stream(func(sse humastar.SSE) {
		send := func(err error) {
			if err != nil {
				log.WithError(err).Debug("map stream write failed")
			}
		}

		send(sse.Script(fmt.Sprintf("if(!window.%s){%s}", leaflet.Global, leaflet.Bootstrap(v))))

		res, err := h.svc.Fetch(ctx, input.Q, opts...)
		if err != nil {
			send(sse.Error("OSMMap: " + err.Error()))
			send(sse.Signals(map[string]any{
				"osmmap": map[string]any{"error": err.Error()},
			}))
			return
		}

		script, stats := h.svc.Script(res)
		send(sse.Script(script))
		for _, issue := range res.Response.Issues {
			send(sse.Warn("OSMMap: " + issue.Error()))
		}
		send(sse.Signals(map[string]any{
			"osmmap": map[string]any{
				"markers": stats.Markers,
				"lines":   stats.Lines,
				"issues":  len(res.Response.Issues),
				"error":   "",
			},
		}))

		log.WithFields(log.Fields{
			"request": res.ID,
			"markers": stats.Markers,
			"lines":   stats.Lines,
			"issues":  len(res.Response.Issues),
		}).Debug("map stream sent")
	}), nil
}
