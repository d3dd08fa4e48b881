// Package widget decorates host pages with the map.
//
// A page opts in by containing an element with id "openstreetmap-canvas".
// Inject adds the Leaflet assets, the bootstrap script and the overlay
// stream trigger to such pages and leaves every other page alone.
package widget

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joeblew999/plat-osm/internal/humastar"
	"github.com/joeblew999/plat-osm/internal/leaflet"
)

// DatastarScriptURL is the client bundle matching datastar-go v1.
const DatastarScriptURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// Snippet is what gets added to a page.
type Snippet struct {
	// InstanceID tags the canvas so injected pages can be told apart in logs.
	InstanceID    string
	StylesheetURL string
	ScriptURL     string
	DatastarURL   string
	// Bootstrap is inline JavaScript that creates the map.
	Bootstrap string
	// StreamURL is fetched by Datastar once the canvas is initialised.
	StreamURL string
}

// NewSnippet returns a Snippet with a fresh instance id and the default
// Datastar bundle.
func NewSnippet(stylesheetURL, scriptURL, bootstrap, streamURL string) Snippet {
	return Snippet{
		InstanceID:    uuid.NewString(),
		StylesheetURL: stylesheetURL,
		ScriptURL:     scriptURL,
		DatastarURL:   DatastarScriptURL,
		Bootstrap:     bootstrap,
		StreamURL:     streamURL,
	}
}

// Inject adds s to page. When the page has no map canvas it is returned
// unchanged and the bool is false.
func Inject(page []byte, s Snippet) ([]byte, bool, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, false, fmt.Errorf("widget: parsing page: %w", err)
	}

	canvas := findByID(doc, leaflet.CanvasID)
	if canvas == nil {
		return page, false, nil
	}
	head := findAtom(doc, atom.Head)
	if head == nil {
		// html.Parse always synthesises a head.
		return page, false, fmt.Errorf("widget: page has no head")
	}

	if s.StylesheetURL != "" {
		head.AppendChild(element(atom.Link, "rel", "stylesheet", "href", s.StylesheetURL))
	}
	if s.ScriptURL != "" {
		head.AppendChild(element(atom.Script, "src", s.ScriptURL))
	}
	if s.Bootstrap != "" {
		script := element(atom.Script)
		script.AppendChild(&html.Node{Type: html.TextNode, Data: s.Bootstrap})
		head.AppendChild(script)
	}
	if s.DatastarURL != "" {
		head.AppendChild(element(atom.Script, "type", "module", "src", s.DatastarURL))
	}

	if s.StreamURL != "" {
		setAttr(canvas, "data-init", humastar.DataInit(s.StreamURL))
	}
	if s.InstanceID != "" {
		setAttr(canvas, "data-osmmap-instance", s.InstanceID)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, false, fmt.Errorf("widget: rendering page: %w", err)
	}
	return buf.Bytes(), true, nil
}

// HasCanvas reports whether page contains the map canvas.
func HasCanvas(page []byte) bool {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return false
	}
	return findByID(doc, leaflet.CanvasID) != nil
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func findByID(n *html.Node, id string) *html.Node {
	return find(n, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return true
			}
		}
		return false
	})
}

func findAtom(n *html.Node, a atom.Atom) *html.Node {
	return find(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	})
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}
