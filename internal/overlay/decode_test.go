package overlay

import (
	"errors"
	"testing"
)

func TestDecodeIssues(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantIssue error
		markers   int
		lines     int
	}{
		{
			name:      "missing column",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Icons":[["Latitude",[1]],["Longitude",[2]],["Path",[""]],["Link",[""]]]}`,
			wantIssue: ErrMissingColumn,
		},
		{
			name:      "column length mismatch",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Icons":[["Latitude",[1,2]],["Longitude",[2]],["Path",[""]],["Link",[""]],["Description",[""]]]}`,
			wantIssue: ErrColumnLength,
		},
		{
			name:      "latitude out of range",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Icons":[["Latitude",[95]],["Longitude",[2]],["Path",[""]],["Link",[""]],["Description",[""]]]}`,
			wantIssue: ErrInvalidRecord,
		},
		{
			name:      "non numeric weight",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Lines":[["From0",[1]],["From1",[1]],["To0",[2]],["To1",[2]],["Color",["red"]],["Weight",["thick"]],["Link",[""]],["Description",[""]]]}`,
			wantIssue: ErrInvalidRecord,
		},
		{
			name:      "infinite weight",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Lines":[["From0",[1]],["From1",[1]],["To0",[2]],["To1",[2]],["Color",["red"]],["Weight",["Infinity"]],["Link",[""]],["Description",[""]]]}`,
			wantIssue: ErrInvalidRecord,
		},
		{
			name:      "NaN latitude",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Icons":[["Latitude",["NaN"]],["Longitude",[2]],["Path",[""]],["Link",[""]],["Description",[""]]]}`,
			wantIssue: ErrInvalidRecord,
		},
		{
			name:      "bad row skipped, others kept",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Icons":[["Latitude",[1,95,3]],["Longitude",[2,2,4]],["Path",["","",""]],["Link",["","",""]],["Description",["a","b","c"]]]}`,
			wantIssue: ErrInvalidRecord,
			markers:   2,
		},
		{
			name:      "non-finite bounds",
			body:      `{"From":[["-Inf"],[0]],"To":[[1],[1]]}`,
			wantIssue: ErrMissingBounds,
		},
		{
			name:      "missing bounds",
			body:      `{"Icons":[["Latitude",[1]],["Longitude",[2]],["Path",[""]],["Link",[""]],["Description",[""]]]}`,
			wantIssue: ErrMissingBounds,
			markers:   1,
		},
		{
			name:      "bad icons keep good lines",
			body:      `{"From":[[0],[0]],"To":[[1],[1]],"Icons":[["Latitude",[1]]],"Lines":[["From0",[1]],["From1",[1]],["To0",[2]],["To1",[2]],["Color",["red"]],["Weight",[1]],["Link",[""]],["Description",[""]]]}`,
			wantIssue: ErrMissingColumn,
			lines:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Decode([]byte(tt.body))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(resp.Issues) != 1 {
				t.Fatalf("issues = %v, want exactly one", resp.Issues)
			}
			if !errors.Is(resp.Issues[0], tt.wantIssue) {
				t.Errorf("issue = %v, want %v", resp.Issues[0], tt.wantIssue)
			}
			if len(resp.Markers) != tt.markers {
				t.Errorf("markers = %d, want %d", len(resp.Markers), tt.markers)
			}
			if len(resp.Lines) != tt.lines {
				t.Errorf("lines = %d, want %d", len(resp.Lines), tt.lines)
			}
		})
	}
}

func TestDecodeTolerantShapes(t *testing.T) {
	resp, err := Decode([]byte(`{
		"From": [["10.5"], ["20.25"]],
		"To": [30, 40],
		"Icons": [],
		"Lines": null
	}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(resp.Issues) != 0 {
		t.Fatalf("issues = %v", resp.Issues)
	}
	if resp.HasIcons || resp.HasLines {
		t.Errorf("HasIcons=%v HasLines=%v, want both false", resp.HasIcons, resp.HasLines)
	}
	want := Bounds{From: LatLng{10.5, 20.25}, To: LatLng{30, 40}}
	if *resp.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", *resp.Bounds, want)
	}
	if !resp.Empty() {
		t.Error("Empty() = false, want true")
	}
}

func TestDecodeDuplicateColumnLastWins(t *testing.T) {
	resp, err := Decode([]byte(`{"From":[[0],[0]],"To":[[1],[1]],"Icons":[
		["Latitude",[1]],["Longitude",[2]],["Path",[""]],["Link",[""]],
		["Description",["first"]],["Description",["second"]]
	]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := resp.Markers[0].Description; got != "second" {
		t.Errorf("description = %q, want second", got)
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`<html>login</html>`)); err == nil {
		t.Fatal("Decode: want error for non-JSON body")
	}
}
