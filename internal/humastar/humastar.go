// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Huma streaming → Datastar SSE protocol via [SSE] and [NewSSE]
//   - Handler: Embeddable base for SSE handlers via [Handler]
//   - DataInit: the data-init attribute that opens a stream from the page
//
// Usage:
//
//	type MapHandler struct {
//	    humastar.Handler
//	    svc *service.MapService
//	}
//
//	func (h *MapHandler) Stream(ctx context.Context, input *StreamInput) (*huma.StreamResponse, error) {
//	    return h.Handler.Stream(func(sse humastar.SSE) {
//	        sse.Script(script)
//	    }), nil
//	}
package humastar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// ---------------------------------------------------------------------------
// Handler: embeddable base for Datastar SSE handlers
// ---------------------------------------------------------------------------

// Handler is an embeddable base for Huma handlers that produce Datastar SSE
// responses.
type Handler struct{}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
// Use this instead of manually constructing &huma.StreamResponse{Body: ...}.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// ---------------------------------------------------------------------------
// SSE: Huma to Datastar bridge
// ---------------------------------------------------------------------------

// SSE wraps a Datastar SSE generator with convenience methods for running
// scripts and reporting to the browser console.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Script runs JavaScript in the page.
func (s SSE) Script(js string) error {
	return s.ExecuteScript(js)
}

// Warn writes msg to the browser console as a warning.
func (s SSE) Warn(msg string) error {
	return s.ExecuteScript(console("warn", msg))
}

// Error writes msg to the browser console as an error.
func (s SSE) Error(msg string) error {
	return s.ExecuteScript(console("error", msg))
}

// Signals patches the page's Datastar signals.
func (s SSE) Signals(signals map[string]any) error {
	return s.MarshalAndPatchSignals(signals)
}

func console(level, msg string) string {
	b, _ := json.Marshal(msg)
	return fmt.Sprintf("console.%s(%s);", level, b)
}

// DataInit returns a Datastar data-init attribute value joining the SSE URLs.
// e.g. "@get('/api/v1/map/stream?q=...')"
func DataInit(urls ...string) string {
	parts := make([]string, len(urls))
	for i, url := range urls {
		parts[i] = fmt.Sprintf("@get('%s')", url)
	}
	return strings.Join(parts, " ")
}
