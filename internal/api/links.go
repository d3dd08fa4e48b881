package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/variants>; rel="variants"`,
		`</api/v1/overlays>; rel="overlays"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/variants>; rel="variants"`,
	},
	"/api/v1/variants": {
		`</api/v1/overlays>; rel="overlays"`,
	},
	"/api/v1/variants/{name}": {
		`</api/v1/variants>; rel="collection"`,
	},
	"/api/v1/overlays": {
		`</api/v1/overlays/geojson>; rel="alternate"; type="application/geo+json"`,
		`</api/v1/map/stream>; rel="stream"; type="text/event-stream"`,
	},
	"/api/v1/overlays/geojson": {
		`</api/v1/overlays>; rel="alternate"; type="application/json"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
