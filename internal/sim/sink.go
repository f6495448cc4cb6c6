package sim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	json "github.com/json-iterator/go"
)

// Frame is the transform snapshot of one tick.
type Frame struct {
	Tick        uint64            `json:"tick"`
	Time        float64           `json:"time"`
	Boundary    BoundaryFrame     `json:"boundary"`
	Characters  []CharacterFrame  `json:"characters"`
	Projectiles []ProjectileFrame `json:"projectiles,omitempty"`
	Events      []EventFrame      `json:"events,omitempty"`
}

// BoundaryFrame carries the world edge so a renderer can follow reconfiguration.
type BoundaryFrame struct {
	Radius  float64 `json:"radius"`
	Shape   string  `json:"shape"`
	Version uint64  `json:"version"`
}

// CharacterFrame is one character's transform and status.
type CharacterFrame struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	VX          float64 `json:"vx"`
	VY          float64 `json:"vy"`
	Rotation    float64 `json:"rotation"`
	Grounded    bool    `json:"grounded"`
	FacingRight bool    `json:"facing_right"`
	Health      float64 `json:"health"`
	Alive       bool    `json:"alive"`
}

// ProjectileFrame is one projectile in flight.
type ProjectileFrame struct {
	ID    string  `json:"id"`
	Owner string  `json:"owner"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// EventFrame is one locomotion transition.
type EventFrame struct {
	Character string `json:"character"`
	Kind      string `json:"kind"`
}

// Frame builds the snapshot of the current tick.
func (w *World) Frame(dt float64) Frame {
	f := Frame{
		Tick: w.tick,
		Time: float64(w.tick) * dt,
		Boundary: BoundaryFrame{
			Radius:  w.boundary.Radius(),
			Shape:   w.boundary.Shape().String(),
			Version: w.boundary.Version(),
		},
		Characters: make([]CharacterFrame, 0, len(w.order)),
	}
	for _, c := range w.Characters() {
		r := c.last
		f.Characters = append(f.Characters, CharacterFrame{
			ID:          c.ID.String(),
			Name:        c.Name,
			X:           r.Position.X,
			Y:           r.Position.Y,
			VX:          r.Velocity.X,
			VY:          r.Velocity.Y,
			Rotation:    r.Rotation,
			Grounded:    r.Grounded,
			FacingRight: r.FacingRight,
			Health:      c.Health.Current(),
			Alive:       c.Alive(),
		})
	}
	for _, p := range w.projectiles {
		pos := p.Position()
		f.Projectiles = append(f.Projectiles, ProjectileFrame{
			ID:    p.ID.String(),
			Owner: p.Owner.String(),
			X:     pos.X,
			Y:     pos.Y,
		})
	}
	for _, e := range w.lastTick {
		f.Events = append(f.Events, EventFrame{Character: e.Name, Kind: e.Kind.String()})
	}
	return f
}

// Sink receives one frame per tick.
type Sink interface {
	Write(Frame) error
	Close() error
}

type discard struct{}

func (discard) Write(Frame) error { return nil }
func (discard) Close() error { return nil }

// Discard drops every frame.
var Discard Sink = discard{}

// JSONLinesSink writes frames as newline-delimited JSON.
type JSONLinesSink struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
	frames uint64
}

// NewJSONLinesSink writes to w. Close flushes but does not close w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	buf := bufio.NewWriter(w)
	return &JSONLinesSink{buf: buf, enc: json.NewEncoder(buf)}
}

// CreateJSONLinesFile creates (or truncates) path and writes frames to it.
func CreateJSONLinesFile(path string) (*JSONLinesSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating frame file %s: %w", path, err)
	}
	s := NewJSONLinesSink(f)
	s.closer = f
	return s, nil
}

// Write encodes one frame.
func (s *JSONLinesSink) Write(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(f); err != nil {
		return fmt.Errorf("encoding frame %d: %w", f.Tick, err)
	}
	s.frames++
	return nil
}

// Frames returns how many frames were written.
func (s *JSONLinesSink) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close flushes buffered frames and closes the file if the sink owns one.
func (s *JSONLinesSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.buf.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
