// Package gateway calls the ticketing backend's RPC gateway.
//
// The gateway is the same endpoint the browser-side Core.AJAX.FunctionCall
// talks to: one POST to the Baselink with the parameters form-encoded, and a
// JSON document back.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/joeblew999/plat-osm/internal/overlay"
	"github.com/joeblew999/plat-osm/internal/query"
)

// ErrRateLimited is returned when the client-side limit is exhausted.
var ErrRateLimited = errors.New("gateway: rate limited")

// maxBody caps the response read from the backend.
const maxBody = 16 << 20

// Config holds the gateway client settings.
type Config struct {
	// Baselink is the backend URL, e.g. "https://tickets.example.com/otrs/index.pl".
	Baselink string
	// Timeout bounds a single call. Zero means 15s.
	Timeout time.Duration
	// RequestsPerSecond limits outgoing calls. Zero disables the limit.
	RequestsPerSecond float64
	// Burst is the limiter burst; defaults to 1 when a limit is set.
	Burst int
	// LinkBase overrides the prefix of overlay links, e.g. a path relative
	// to a proxy. Empty means Baselink + "?".
	LinkBase string
}

// Client performs FunctionCall requests.
type Client struct {
	baselink string
	linkBase string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
}

// New creates a gateway client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := &Client{
		baselink: strings.TrimRight(cfg.Baselink, "?"),
		linkBase: cfg.LinkBase,
		timeout:  cfg.Timeout,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// LinkBase is what overlay links are appended to, e.g.
// "https://tickets.example.com/otrs/index.pl?".
func (c *Client) LinkBase() string {
	if c.linkBase != "" {
		return c.linkBase
	}
	return c.baselink + "?"
}

type callOptions struct {
	cookie         string
	challengeToken string
}

// CallOption customises one FunctionCall.
type CallOption func(*callOptions)

// WithCookie forwards the browser's Cookie header so the backend sees the
// user's session.
func WithCookie(cookie string) CallOption {
	return func(o *callOptions) { o.cookie = cookie }
}

// WithChallengeToken adds the CSRF token the backend expects on POSTs.
func WithChallengeToken(token string) CallOption {
	return func(o *callOptions) { o.challengeToken = token }
}

// FunctionCall posts params to the gateway and decodes the map response.
func (c *Client) FunctionCall(ctx context.Context, params query.Params, opts ...CallOption) (*overlay.Response, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	if c.baselink == "" {
		return nil, fmt.Errorf("gateway: no baselink configured")
	}

	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := params.Values()
	if o.challengeToken != "" {
		form.Set("ChallengeToken", o.challengeToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baselink, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("gateway: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if o.cookie != "" {
		req.Header.Set("Cookie", o.cookie)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: POST %s: %w", c.baselink, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("gateway: reading response: %w", err)
	}

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway: POST %s: %s", c.baselink, res.Status)
	}

	resp, err := overlay.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	log.WithFields(log.Fields{
		"action":   params.Get(query.OriginalActionKey),
		"markers":  len(resp.Markers),
		"lines":    len(resp.Lines),
		"issues":   len(resp.Issues),
		"duration": time.Since(start).String(),
	}).Debug("gateway call completed")

	return resp, nil
}
