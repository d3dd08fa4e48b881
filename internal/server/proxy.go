package server

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-osm/internal/widget"
)

// maxPage caps the HTML documents that are rewritten in proxy mode.
const maxPage = 8 << 20

// newProxy forwards requests to the ticketing application and adds the map
// to every HTML page that has a map canvas.
func (s *Server) newProxy(upstream *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			// ReverseProxy drops query parameters net/url cannot parse,
			// which includes every semicolon-separated ticketing query.
			pr.Out.URL.RawQuery = pr.In.URL.RawQuery
			pr.SetXForwarded()
			// Pages must arrive uncompressed to be rewritten.
			pr.Out.Header.Del("Accept-Encoding")
		},
		ModifyResponse: s.injectWidget,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).WithField("path", r.URL.Path).Error("upstream request failed")
			writeError(w, http.StatusBadGateway, "upstream unavailable")
		},
	}
}

// proxyLinkBase maps the backend baselink to a path on the proxy. It fails
// when the baselink is not served by upstream.
func proxyLinkBase(baselink string, upstream *url.URL) (string, bool) {
	b, err := url.Parse(strings.TrimRight(baselink, "?"))
	if err != nil || b.Host != upstream.Host {
		return "", false
	}
	prefix := strings.TrimRight(upstream.Path, "/")
	if !strings.HasPrefix(b.Path, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(b.Path, prefix) + "?", true
}

func (s *Server) injectWidget(res *http.Response) error {
	if res.StatusCode != http.StatusOK || res.Header.Get("Content-Encoding") != "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/html" {
		return nil
	}

	page, err := io.ReadAll(io.LimitReader(res.Body, maxPage+1))
	res.Body.Close()
	if err != nil {
		return fmt.Errorf("reading upstream page: %w", err)
	}
	if len(page) > maxPage {
		return fmt.Errorf("upstream page larger than %d bytes", maxPage)
	}

	v, _ := s.variant("")
	out, injected, err := widget.Inject(page, s.snippet(v, res.Request.URL.RawQuery))
	if err != nil {
		log.WithError(err).WithField("path", res.Request.URL.Path).Warn("page left unchanged")
		out, injected = page, false
	}

	if injected {
		log.WithFields(log.Fields{
			"path":    res.Request.URL.Path,
			"variant": v.Name,
		}).Debug("map injected")
		res.Header.Del("ETag")
	}

	res.Body = io.NopCloser(bytes.NewReader(out))
	res.ContentLength = int64(len(out))
	res.Header.Set("Content-Length", strconv.Itoa(len(out)))
	return nil
}
