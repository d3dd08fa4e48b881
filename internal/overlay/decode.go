package overlay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// Column names of the backend tables.
var (
	IconColumns = []string{"Latitude", "Longitude", "Path", "Link", "Description"}
	LineColumns = []string{"From0", "From1", "To0", "To1", "Color", "Weight", "Link", "Description"}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type wireResponse struct {
	From  []json.RawMessage `json:"From"`
	To    []json.RawMessage `json:"To"`
	Icons json.RawMessage   `json:"Icons"`
	Lines json.RawMessage   `json:"Lines"`
}

type markerRecord struct {
	Latitude    float64 `validate:"latitude"`
	Longitude   float64 `validate:"longitude"`
	Path        string
	Link        string
	Description string
}

type lineRecord struct {
	From0       float64 `validate:"latitude"`
	From1       float64 `validate:"longitude"`
	To0         float64 `validate:"latitude"`
	To1         float64 `validate:"longitude"`
	Color       string
	Weight      float64 `validate:"gte=0"`
	Link        string
	Description string
}

// Decode parses a backend map response. Only malformed JSON is an error;
// problems inside the payload end up in Response.Issues.
func Decode(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnmarshalJSON decodes the column-oriented wire shape into row records.
func (r *Response) UnmarshalJSON(data []byte) error {
	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decoding map response: %w", err)
	}

	*r = Response{}

	bounds, err := decodeBounds(wire.From, wire.To)
	if err != nil {
		r.Issues = append(r.Issues, err)
	} else {
		r.Bounds = bounds
	}

	if present(wire.Icons) {
		r.HasIcons = true
		markers, skipped, err := decodeMarkers(wire.Icons)
		if err != nil {
			r.Issues = append(r.Issues, fmt.Errorf("Icons: %w", err))
		} else {
			r.Markers = markers
		}
		for _, err := range skipped {
			r.Issues = append(r.Issues, fmt.Errorf("Icons: %w", err))
		}
	}

	if present(wire.Lines) {
		r.HasLines = true
		lines, skipped, err := decodeLines(wire.Lines)
		if err != nil {
			r.Issues = append(r.Issues, fmt.Errorf("Lines: %w", err))
		} else {
			r.Lines = lines
		}
		for _, err := range skipped {
			r.Issues = append(r.Issues, fmt.Errorf("Lines: %w", err))
		}
	}

	return nil
}

// present treats missing, null, false, "" and [] as an absent section.
func present(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", `""`, "0", "[]":
		return false
	}
	return true
}

func decodeBounds(from, to []json.RawMessage) (*Bounds, error) {
	a, err := corner(from)
	if err != nil {
		return nil, fmt.Errorf("%w: From: %v", ErrMissingBounds, err)
	}
	b, err := corner(to)
	if err != nil {
		return nil, fmt.Errorf("%w: To: %v", ErrMissingBounds, err)
	}
	return &Bounds{From: a, To: b}, nil
}

// corner reads [[lat], [lng]]; bare scalars are accepted too.
func corner(raw []json.RawMessage) (LatLng, error) {
	if len(raw) < 2 {
		return LatLng{}, fmt.Errorf("want 2 coordinates, got %d", len(raw))
	}
	lat, err := firstNumber(raw[0])
	if err != nil {
		return LatLng{}, err
	}
	lng, err := firstNumber(raw[1])
	if err != nil {
		return LatLng{}, err
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}

func firstNumber(raw json.RawMessage) (float64, error) {
	var wrapped []json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if len(wrapped) == 0 {
			return 0, fmt.Errorf("empty coordinate")
		}
		return number(wrapped[0])
	}
	return number(raw)
}

// number accepts JSON numbers and numeric strings. Inf and NaN are
// rejected; neither JSON nor JavaScript literals can carry them.
func number(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// text accepts strings, numbers and null (as "").
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

type column struct {
	name   string
	values []json.RawMessage
}

func (c *column) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("want [name, values], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.name); err != nil {
		return fmt.Errorf("column name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.values); err != nil {
		return fmt.Errorf("column %q: %w", c.name, err)
	}
	return nil
}

// table is the transposition source: column name to values, all columns
// checked for presence and equal length.
type table struct {
	columns map[string][]json.RawMessage
	rows    int
}

func decodeTable(raw json.RawMessage, required []string) (*table, error) {
	var cols []column
	if err := json.Unmarshal(raw, &cols); err != nil {
		return nil, err
	}

	// Later duplicates win.
	byName := lo.SliceToMap(cols, func(c column) (string, []json.RawMessage) {
		return c.name, c.values
	})

	missing := lo.Filter(required, func(name string, _ int) bool {
		_, ok := byName[name]
		return !ok
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	rows := len(byName[required[0]])
	for _, name := range required[1:] {
		if n := len(byName[name]); n != rows {
			return nil, fmt.Errorf("%w: %s has %d values, %s has %d", ErrColumnLength, required[0], rows, name, n)
		}
	}

	return &table{columns: byName, rows: rows}, nil
}

func (t *table) number(name string, row int) (float64, error) {
	f, err := number(t.columns[name][row])
	if err != nil {
		return 0, fmt.Errorf("%w: row %d %s: %v", ErrInvalidRecord, row, name, err)
	}
	return f, nil
}

func (t *table) text(name string, row int) string {
	return text(t.columns[name][row])
}

// decodeMarkers fails when the table itself is broken. Rows with bad
// values are skipped and reported one error per row.
func decodeMarkers(raw json.RawMessage) ([]Marker, []error, error) {
	t, err := decodeTable(raw, IconColumns)
	if err != nil {
		return nil, nil, err
	}

	markers := make([]Marker, 0, t.rows)
	var skipped []error
	for i := 0; i < t.rows; i++ {
		rec, err := t.marker(i)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		markers = append(markers, Marker{
			Position:    orb.Point{rec.Longitude, rec.Latitude},
			IconPath:    rec.Path,
			Link:        rec.Link,
			Description: rec.Description,
		})
	}
	return markers, skipped, nil
}

func (t *table) marker(i int) (markerRecord, error) {
	rec := markerRecord{
		Path:        t.text("Path", i),
		Link:        t.text("Link", i),
		Description: t.text("Description", i),
	}
	var err error
	if rec.Latitude, err = t.number("Latitude", i); err != nil {
		return rec, err
	}
	if rec.Longitude, err = t.number("Longitude", i); err != nil {
		return rec, err
	}
	if err := validate.Struct(rec); err != nil {
		return rec, fmt.Errorf("%w: row %d: %v", ErrInvalidRecord, i, err)
	}
	return rec, nil
}

func decodeLines(raw json.RawMessage) ([]Line, []error, error) {
	t, err := decodeTable(raw, LineColumns)
	if err != nil {
		return nil, nil, err
	}

	lines := make([]Line, 0, t.rows)
	var skipped []error
	for i := 0; i < t.rows; i++ {
		rec, err := t.line(i)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		lines = append(lines, Line{
			From:        orb.Point{rec.From1, rec.From0},
			To:          orb.Point{rec.To1, rec.To0},
			Color:       rec.Color,
			Weight:      rec.Weight,
			Link:        rec.Link,
			Description: rec.Description,
		})
	}
	return lines, skipped, nil
}

func (t *table) line(i int) (lineRecord, error) {
	rec := lineRecord{
		Color:       t.text("Color", i),
		Link:        t.text("Link", i),
		Description: t.text("Description", i),
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"From0", &rec.From0},
		{"From1", &rec.From1},
		{"To0", &rec.To0},
		{"To1", &rec.To1},
		{"Weight", &rec.Weight},
	} {
		v, err := t.number(f.name, i)
		if err != nil {
			return rec, err
		}
		*f.dst = v
	}
	if err := validate.Struct(rec); err != nil {
		return rec, fmt.Errorf("%w: row %d: %v", ErrInvalidRecord, i, err)
	}
	return rec, nil
}
