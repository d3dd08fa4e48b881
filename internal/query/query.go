// Package query extracts the widget parameters from a ticketing page URL.
//
// The ticketing application uses semicolon-delimited query strings
// ("?Action=AgentITSMConfigItemZoom;ConfigItemID=7"), which net/url refuses
// to parse, so the pairs are split here by hand.
package query

import (
	"net/url"
	"sort"
	"strings"
)

const (
	// ActionKey is the backend dispatch parameter.
	ActionKey = "Action"
	// OriginalActionKey carries the caller's Action so the backend knows the
	// context it was invoked from.
	OriginalActionKey = "OriginalAction"

	// Action is the backend handler that answers map requests.
	Action = "OpenStreetMap"
	// FallbackAction is used when the page URL has no Action
	// (Frontend::CommonParam###Action).
	FallbackAction = "CommonAction"
)

// Params is the parameter set sent to the gateway.
type Params struct {
	values map[string]string
	order  []string
}

// Parse splits a raw query string into Params and applies the
// Action/OriginalAction rewrite.
func Parse(rawQuery string) Params {
	p := Params{values: map[string]string{}}

	actionGiven := false
	for _, fragment := range strings.Split(rawQuery, ";") {
		if fragment == "" {
			continue
		}
		key, value, hasValue := strings.Cut(fragment, "=")
		p.set(key, value)
		if key == ActionKey {
			actionGiven = hasValue
		}
	}

	if actionGiven {
		p.set(OriginalActionKey, p.values[ActionKey])
	} else {
		p.set(OriginalActionKey, FallbackAction)
	}
	p.set(ActionKey, Action)

	return p
}

// FromURL parses the part of rawURL after the first '?'.
// A URL without a query yields the rewritten defaults only.
func FromURL(rawURL string) Params {
	return Parse(RawFromURL(rawURL))
}

// RawFromURL returns the query of rawURL without its fragment, or "" when
// rawURL has no '?'.
func RawFromURL(rawURL string) string {
	_, rawQuery, ok := strings.Cut(rawURL, "?")
	if !ok {
		return ""
	}
	// Fragments are never sent to the backend.
	rawQuery, _, _ = strings.Cut(rawQuery, "#")
	return rawQuery
}

// RawQuery accepts either a page URL or a bare query such as
// "Action=AgentTicketZoom;TicketID=42" and returns the query part.
func RawQuery(s string) string {
	if strings.Contains(s, "?") || strings.Contains(s, "://") || strings.HasPrefix(s, "/") {
		return RawFromURL(s)
	}
	s, _, _ = strings.Cut(s, "#")
	return s
}

func (p *Params) set(key, value string) {
	if _, exists := p.values[key]; !exists {
		p.order = append(p.order, key)
	}
	p.values[key] = value
}

// Get returns the value for key, or "" when absent.
func (p Params) Get(key string) string {
	return p.values[key]
}

// Has reports whether key was present.
func (p Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Len returns the number of distinct keys.
func (p Params) Len() int {
	return len(p.values)
}

// Map returns a copy of the parameters.
func (p Params) Map() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Values returns the parameters as form values for the gateway call.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p.values))
	for _, key := range p.order {
		v.Set(key, p.values[key])
	}
	return v
}

// Encode renders the parameters back into the semicolon form, in the order
// the keys were first seen.
func (p Params) Encode() string {
	parts := make([]string, 0, len(p.order))
	for _, key := range p.order {
		parts = append(parts, key+"="+p.values[key])
	}
	return strings.Join(parts, ";")
}

// Keys returns the parameter names sorted.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
