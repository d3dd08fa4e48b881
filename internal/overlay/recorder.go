package overlay

import (
	"sync"

	"github.com/paulmach/orb"
)

// InstructionKind tells markers and lines apart.
type InstructionKind string

const (
	KindMarker InstructionKind = "marker"
	KindLine   InstructionKind = "line"
)

// Instruction is one overlay to draw, in a form any map client can replay.
type Instruction struct {
	Kind   InstructionKind `json:"kind" enum:"marker,line" doc:"Overlay type"`
	Points []LatLng        `json:"points" doc:"One position for a marker, two for a line"`
	Icon   *Icon           `json:"icon,omitempty" doc:"Custom marker image; absent means the default glyph"`
	Style  *LineStyle      `json:"style,omitempty" doc:"Line stroke"`
	Action Action          `json:"action" doc:"Click or popup behaviour"`
}

// Recorder is a Surface that remembers what was drawn instead of drawing it.
type Recorder struct {
	mu           sync.Mutex
	instructions []*Instruction
	fits         []Bounds
	resizeBounds *Bounds
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) FitBounds(b Bounds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits = append(r.fits, b)
}

func (r *Recorder) RefitOnResize(b Bounds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resizeBounds = &b
}

func (r *Recorder) AddMarker(pos orb.Point, icon *Icon) Overlay {
	return r.add(&Instruction{
		Kind:   KindMarker,
		Points: []LatLng{FromPoint(pos)},
		Icon:   icon,
		Action: Action{Kind: ActionNone},
	})
}

func (r *Recorder) AddLine(from, to orb.Point, style LineStyle) Overlay {
	return r.add(&Instruction{
		Kind:   KindLine,
		Points: []LatLng{FromPoint(from), FromPoint(to)},
		Style:  &style,
		Action: Action{Kind: ActionNone},
	})
}

func (r *Recorder) add(in *Instruction) Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instructions = append(r.instructions, in)
	return &recorded{r: r, in: in}
}

// Resize simulates the map reporting a resize.
func (r *Recorder) Resize() {
	r.mu.Lock()
	b := r.resizeBounds
	r.mu.Unlock()
	if b != nil {
		r.FitBounds(*b)
	}
}

// Instructions returns a copy of the recorded overlays in draw order.
func (r *Recorder) Instructions() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Instruction, len(r.instructions))
	for i, in := range r.instructions {
		out[i] = *in
	}
	return out
}

// Fits returns every FitBounds call in order.
func (r *Recorder) Fits() []Bounds {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Bounds(nil), r.fits...)
}

type recorded struct {
	r  *Recorder
	in *Instruction
}

func (o *recorded) BindPopup(text string) {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	o.in.Action = Action{Kind: ActionPopup, Text: text}
}

func (o *recorded) OnClickNavigate(url string) {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	o.in.Action = Action{Kind: ActionNavigate, URL: url}
}
