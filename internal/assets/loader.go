// Package assets loads the mapping library's stylesheet and script.
//
// A load either yields the resource or fails with an error; it never hangs
// past its timeout. Concurrent loads of the same URL share one fetch, and
// loaded resources are kept in a Store.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by a Store for unknown URLs.
var ErrNotFound = errors.New("assets: not found")

// maxAsset caps a single downloaded asset.
const maxAsset = 8 << 20

// Kind tells stylesheets and scripts apart.
type Kind string

const (
	KindStylesheet Kind = "stylesheet"
	KindScript     Kind = "script"
)

// Resource is a loaded asset.
type Resource struct {
	URL         string    `json:"url"`
	Kind        Kind      `json:"kind"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"body"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// Bundle is the pair of assets the map needs.
type Bundle struct {
	Stylesheet *Resource
	Script     *Resource
}

// Store keeps loaded resources.
type Store interface {
	Get(url string) (*Resource, error)
	Put(r *Resource) error
}

// Loader fetches assets over HTTP.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	store   Store
	group   singleflight.Group
}

// NewLoader creates a Loader. store may be nil to disable caching.
func NewLoader(store Store, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		store:   store,
	}
}

// Load returns the resource at url, from the store when present.
func (l *Loader) Load(ctx context.Context, url string) (*Resource, error) {
	if l.store != nil {
		if r, err := l.store.Get(url); err == nil {
			return r, nil
		} else if !errors.Is(err, ErrNotFound) {
			log.WithError(err).WithField("url", url).Warn("asset store read failed")
		}
	}

	v, err, _ := l.group.Do(url, func() (any, error) {
		r, err := l.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if l.store != nil {
			if err := l.store.Put(r); err != nil {
				log.WithError(err).WithField("url", url).Warn("asset store write failed")
			}
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resource), nil
}

// LoadBundle loads the stylesheet and the script in parallel. The bundle is
// returned only when both are available.
func (l *Loader) LoadBundle(ctx context.Context, stylesheetURL, scriptURL string) (*Bundle, error) {
	var b Bundle
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := l.Load(ctx, stylesheetURL)
		b.Stylesheet = r
		return err
	})
	g.Go(func() error {
		r, err := l.Load(ctx, scriptURL)
		b.Script = r
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &b, nil
}

// fetch is shared by every caller waiting on url, so it outlives the
// request that started it and is bounded by the loader timeout only.
func (l *Loader) fetch(ctx context.Context, url string) (*Resource, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}

	res, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assets: GET %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("assets: GET %s: %s", url, res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxAsset))
	if err != nil {
		return nil, fmt.Errorf("assets: reading %s: %w", url, err)
	}

	kind := kindOf(url)
	ct := res.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(path.Ext(url))
	}

	log.WithFields(log.Fields{"url": url, "bytes": len(body)}).Info("asset loaded")

	return &Resource{
		URL:         url,
		Kind:        kind,
		ContentType: ct,
		Body:        body,
		LoadedAt:    time.Now(),
	}, nil
}

func kindOf(url string) Kind {
	if path.Ext(url) == ".css" {
		return KindStylesheet
	}
	return KindScript
}
