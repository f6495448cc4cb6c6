package boundary

import (
	"fmt"
	"strings"
)

// Kind identifies a boundary shape variant.
type Kind int

const (
	KindCircular Kind = iota
	KindPolygonal
)

// String returns the config name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCircular:
		return "circle"
	case KindPolygonal:
		return "polygon"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Shape is the tagged shape variant. Segments is only meaningful for KindPolygonal.
type Shape struct {
	Kind     Kind
	Segments int
}

// DefaultSegments is the segment count of the stock octagonal world.
const DefaultSegments = 8

// Circular returns the circle shape.
func Circular() Shape {
	return Shape{Kind: KindCircular}
}

// Polygonal returns a regular N-gon shape.
func Polygonal(segments int) Shape {
	return Shape{Kind: KindPolygonal, Segments: segments}
}

// ParseShape builds a shape from its config name ("circle", "polygon", "octagon").
func ParseShape(name string, segments int) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "circle", "circular":
		return Circular(), nil
	case "octagon":
		return Polygonal(DefaultSegments), nil
	case "polygon", "polygonal":
		s := Polygonal(segments)
		if err := s.validate(); err != nil {
			return Shape{}, err
		}
		return s, nil
	default:
		return Shape{}, fmt.Errorf("unknown boundary shape %q", name)
	}
}

func (s Shape) validate() error {
	switch s.Kind {
	case KindCircular:
		return nil
	case KindPolygonal:
		if s.Segments < 3 {
			return fmt.Errorf("segments %d: %w", s.Segments, ErrInvalidSegments)
		}
		return nil
	default:
		return fmt.Errorf("unknown boundary shape kind %d", int(s.Kind))
	}
}

// String describes the shape, e.g. "circle" or "polygon(8)".
func (s Shape) String() string {
	if s.Kind == KindPolygonal {
		return fmt.Sprintf("polygon(%d)", s.Segments)
	}
	return s.Kind.String()
}
