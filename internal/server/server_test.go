package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func fetch(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return res, string(body)
}

func TestMapPage(t *testing.T) {
	srv := newTestServer(t, Config{Baselink: "http://backend.invalid/otrs/index.pl"})

	res, body := fetch(t, srv.URL+"/map/extended?Action=AgentTicketZoom;TicketID=42")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}

	for _, want := range []string{
		`id="openstreetmap-canvas"`,
		`/web/js/thirdparty/leaflet-1.4.0/leaflet.js`,
		`maxZoom:20`,
		`q=Action%3DAgentTicketZoom%3BTicketID%3D42`,
		`variant=extended`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if res, _ := fetch(t, srv.URL+"/map/nope"); res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown variant status = %d", res.StatusCode)
	}
}

func TestAssets(t *testing.T) {
	var hits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/otrs-web/js/thirdparty/leaflet-1.4.0/leaflet.js":
			w.Header().Set("Content-Type", "application/javascript")
			w.Write([]byte("window.L={};"))
		case "/otrs-web/skins/Agent/default/css/thirdparty/leaflet-1.4.0/leaflet.css":
			w.Header().Set("Content-Type", "text/css")
			w.Write([]byte(".leaflet-container{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer origin.Close()

	srv := newTestServer(t, Config{AssetOrigin: origin.URL})

	for i := 0; i < 2; i++ {
		res, body := fetch(t, srv.URL+"/assets/default/leaflet.js")
		if res.StatusCode != http.StatusOK || body != "window.L={};" {
			t.Fatalf("leaflet.js: %d %q", res.StatusCode, body)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("origin hits = %d, want 1", n)
	}

	if res, _ := fetch(t, srv.URL+"/assets/extended/leaflet.css"); res.StatusCode != http.StatusBadGateway {
		t.Errorf("missing stylesheet status = %d, want 502", res.StatusCode)
	}
	if res, _ := fetch(t, srv.URL+"/assets/default/other.js"); res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown file status = %d, want 404", res.StatusCode)
	}

	res, page := fetch(t, srv.URL+"/map")
	if res.StatusCode != http.StatusOK || !strings.Contains(page, `src="/assets/default/leaflet.js"`) {
		t.Errorf("page does not use served assets: %d\n%s", res.StatusCode, page)
	}

	res, page = fetch(t, srv.URL+"/map/extended")
	if res.StatusCode != http.StatusBadGateway || strings.Contains(page, "openstreetmap-canvas") {
		t.Errorf("map built without assets: %d\n%s", res.StatusCode, page)
	}
}

func TestProxyInjectsWidget(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/otrs/index.pl":
			if r.URL.RawQuery != "Action=AgentTicketZoom;TicketID=42" {
				t.Errorf("upstream query = %q", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><head><title>Ticket</title></head><body><div id="openstreetmap-canvas"></div></body></html>`))
		case "/plain":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body>no map</body></html>`))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer upstream.Close()

	srv := newTestServer(t, Config{Upstream: upstream.URL, Baselink: upstream.URL + "/otrs/index.pl"})

	res, body := fetch(t, srv.URL+"/otrs/index.pl?Action=AgentTicketZoom;TicketID=42")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	for _, want := range []string{
		`/otrs-web/skins/Agent/default/css/thirdparty/leaflet-1.4.0/leaflet.css`,
		`window.OSMMap`,
		`data-init="@get(&#39;/api/v1/map/stream?q=Action%3DAgentTicketZoom%3BTicketID%3D42&amp;variant=default&#39;)"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("proxied page missing %q:\n%s", want, body)
		}
	}

	if _, body := fetch(t, srv.URL+"/plain"); body != `<html><body>no map</body></html>` {
		t.Errorf("page without canvas changed: %s", body)
	}
	if _, body := fetch(t, srv.URL+"/api.json"); body != `{"ok":true}` {
		t.Errorf("non-HTML response changed: %s", body)
	}

	if res, _ := fetch(t, srv.URL+"/health"); res.StatusCode != http.StatusOK {
		t.Errorf("API shadowed by proxy: %d", res.StatusCode)
	}
}

func TestProxyLinkBase(t *testing.T) {
	tests := []struct {
		baselink string
		upstream string
		want     string
		ok       bool
	}{
		{"https://tickets.example.com/otrs/index.pl", "https://tickets.example.com", "/otrs/index.pl?", true},
		{"https://tickets.example.com/otrs/index.pl?", "https://tickets.example.com/", "/otrs/index.pl?", true},
		{"https://tickets.example.com/otrs/index.pl", "https://tickets.example.com/otrs", "/index.pl?", true},
		{"https://tickets.example.com/other/index.pl", "https://tickets.example.com/otrs", "", false},
		{"https://backend.example.com/otrs/index.pl", "https://tickets.example.com", "", false},
	}

	for _, tt := range tests {
		upstream, err := url.Parse(tt.upstream)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := proxyLinkBase(tt.baselink, upstream)
		if got != tt.want || ok != tt.ok {
			t.Errorf("proxyLinkBase(%q, %q) = %q, %v; want %q, %v", tt.baselink, tt.upstream, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProxyKeepsOverlayLinksOnProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"From":[[10],[20]],"To":[[30],[40]]}`))
	}))
	defer upstream.Close()

	s, err := New(Config{Upstream: upstream.URL, Baselink: upstream.URL + "/otrs/index.pl", Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	res, err := s.Services().Map.Fetch(context.Background(), "Action=AgentTicketZoom;TicketID=42")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.LinkBase != "/otrs/index.pl?" {
		t.Errorf("LinkBase = %q, want /otrs/index.pl?", res.LinkBase)
	}
}

func TestNewRejectsUnknownVariant(t *testing.T) {
	if _, err := New(Config{Variant: "nope"}); err == nil {
		t.Fatal("want error for unknown default variant")
	}
}

// brokenWriter fails every body write, like a client that hung up.
type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(status int)    { w.status = status }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRenderErrorLogsFailure(t *testing.T) {
	s, err := New(Config{Baselink: "http://backend.invalid/otrs/index.pl", Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	hook := logtest.NewGlobal()
	defer hook.Reset()

	w := &brokenWriter{header: http.Header{}}
	s.renderError(w, http.StatusBadGateway, "Map assets are unavailable.")

	if w.status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.status)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.ErrorLevel || entry.Message != "rendering error page" {
		t.Fatalf("log entry = %+v, want rendering error", entry)
	}
	if entry.Data["status"] != http.StatusBadGateway {
		t.Errorf("status field = %v", entry.Data["status"])
	}
}
