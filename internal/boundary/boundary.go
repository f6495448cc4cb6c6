// Package boundary implements the closed convex world edge characters walk on.
//
// A Boundary is described by a center, a base radius and a shape. Every query is a
// pure function of its arguments and the current configuration snapshot, so one
// Boundary can be shared by any number of characters without locking. The only
// mutation is reconfiguration, which swaps a whole new snapshot in atomically.
package boundary

import (
	"errors"
	"fmt"
	gomath "math"
	"sync/atomic"

	"github.com/Faultbox/ringwalk/pkg/math"
)

// EdgeSoftening is the band, in world units, over which gravity ramps to zero at the surface.
const EdgeSoftening = 0.5

// CenterEpsilon offsets a query that lands exactly on the center so directions stay defined.
const CenterEpsilon = 0.1

// surfaceTolerance absorbs rounding so points projected onto the surface test as inside.
const surfaceTolerance = 1e-9

// Configuration errors.
var (
	ErrInvalidRadius   = errors.New("boundary radius must be finite and positive")
	ErrInvalidSegments = errors.New("polygonal boundary needs at least 3 segments")
	ErrInvalidCenter   = errors.New("boundary center must be finite")
)

// snapshot is one immutable configuration. Derived values are precomputed here so a
// reconfiguration never leaves readers with a half-updated apothem or segment angle.
type snapshot struct {
	center       math.Vec2
	radius       float64
	shape        Shape
	segmentAngle float64 // 2π/N, zero for circles
	apothem      float64 // radius*cos(π/N), radius for circles
	version      uint64
}

// Boundary is the world edge. The zero value is not usable; use New, NewCircular or NewPolygonal.
type Boundary struct {
	snap atomic.Pointer[snapshot]
}

// New creates a boundary with the given center, base radius and shape.
func New(center math.Vec2, radius float64, shape Shape) (*Boundary, error) {
	s, err := newSnapshot(center, radius, shape, 1)
	if err != nil {
		return nil, err
	}
	b := &Boundary{}
	b.snap.Store(s)
	return b, nil
}

// NewCircular creates a circular boundary.
func NewCircular(center math.Vec2, radius float64) (*Boundary, error) {
	return New(center, radius, Circular())
}

// NewPolygonal creates a regular polygon boundary with the given number of segments.
func NewPolygonal(center math.Vec2, radius float64, segments int) (*Boundary, error) {
	return New(center, radius, Polygonal(segments))
}

func newSnapshot(center math.Vec2, radius float64, shape Shape, version uint64) (*snapshot, error) {
	if !center.IsFinite() {
		return nil, fmt.Errorf("center %v: %w", center, ErrInvalidCenter)
	}
	if !math.IsFinite(radius) || radius <= 0 {
		return nil, fmt.Errorf("radius %v: %w", radius, ErrInvalidRadius)
	}
	if err := shape.validate(); err != nil {
		return nil, err
	}

	s := &snapshot{
		center:  center,
		radius:  radius,
		shape:   shape,
		apothem: radius,
		version: version,
	}
	if shape.Kind == KindPolygonal {
		s.segmentAngle = math.TwoPi / float64(shape.Segments)
		s.apothem = radius * gomath.Cos(gomath.Pi/float64(shape.Segments))
	}
	return s, nil
}

func (b *Boundary) load() *snapshot {
	return b.snap.Load()
}

// UpdateRadius replaces the base radius, keeping center and shape.
func (b *Boundary) UpdateRadius(radius float64) error {
	cur := b.load()
	return b.UpdateDimensions(radius, cur.shape)
}

// UpdateDimensions replaces the base radius and shape. The new configuration is
// validated in full before it becomes visible; on error nothing changes.
// It must not race with another writer.
func (b *Boundary) UpdateDimensions(radius float64, shape Shape) error {
	cur := b.load()
	next, err := newSnapshot(cur.center, radius, shape, cur.version+1)
	if err != nil {
		return err
	}
	b.snap.Store(next)
	return nil
}

// Center returns the boundary center.
func (b *Boundary) Center() math.Vec2 { return b.load().center }

// Radius returns the configured base radius (the circumradius for polygons).
func (b *Boundary) Radius() float64 { return b.load().radius }

// Shape returns the configured shape.
func (b *Boundary) Shape() Shape { return b.load().shape }

// Version increases by one on every successful reconfiguration.
func (b *Boundary) Version() uint64 { return b.load().version }

// RadiusAtAngle returns the distance from the center to the surface along angle (radians).
func (b *Boundary) RadiusAtAngle(angle float64) float64 {
	return b.load().radiusAtAngle(angle)
}

func (s *snapshot) radiusAtAngle(angle float64) float64 {
	if s.shape.Kind != KindPolygonal {
		return s.radius
	}

	a := math.NormalizeAngle(angle)
	segment := gomath.Floor(a / s.segmentAngle)
	// Guard against a == 2π-ulp rounding into a segment index of N.
	if int(segment) >= s.shape.Segments {
		segment = float64(s.shape.Segments - 1)
	}
	offset := gomath.Abs(a - (segment+0.5)*s.segmentAngle)
	return s.apothem / gomath.Cos(offset)
}

// Polar returns the distance from the center and the angle (radians, [0, 2π)) of p.
func (b *Boundary) Polar(p math.Vec2) (distance, angle float64) {
	s := b.load()
	rel := p.Sub(s.center)
	return rel.Length(), math.NormalizeAngle(rel.Angle())
}

// degenerate substitutes the fixed off-center position for a query at the exact center.
func (s *snapshot) degenerate(p math.Vec2) math.Vec2 {
	if p == s.center {
		return s.center.Add(math.Vec2{X: 0, Y: -CenterEpsilon})
	}
	return p
}

func (s *snapshot) nearestEdgePoint(p math.Vec2) math.Vec2 {
	rel := s.degenerate(p).Sub(s.center)
	return s.center.Add(rel.Normalize().Scale(s.radiusAtAngle(rel.Angle())))
}

// NearestEdgePoint returns the surface point on the ray from the center through p.
func (b *Boundary) NearestEdgePoint(p math.Vec2) math.Vec2 {
	return b.load().nearestEdgePoint(p)
}

func (s *snapshot) gravityDirection(p math.Vec2) math.Vec2 {
	return s.nearestEdgePoint(p).Sub(s.center).Normalize()
}

// GravityDirection returns the unit "down" vector at p: from the center toward the
// nearest edge point. A query at the center falls back to straight down (0, -1).
func (b *Boundary) GravityDirection(p math.Vec2) math.Vec2 {
	return b.load().gravityDirection(p)
}

// TangentDirection returns GravityDirection rotated 90° counterclockwise.
func (b *Boundary) TangentDirection(p math.Vec2) math.Vec2 {
	return b.load().gravityDirection(p).Perp()
}

// CalculateGravityForce returns the gravity force at p for the given strength.
// The force points down and fades linearly to zero over the last EdgeSoftening
// units before the surface.
func (b *Boundary) CalculateGravityForce(p math.Vec2, strength float64) math.Vec2 {
	s := b.load()
	q := s.degenerate(p)
	rel := q.Sub(s.center)
	distanceToEdge := s.radiusAtAngle(rel.Angle()) - rel.Length()
	multiplier := math.Clamp01(distanceToEdge / EdgeSoftening)
	return s.gravityDirection(q).Scale(strength * multiplier)
}

// IsInside reports whether p lies inside or on the surface.
func (b *Boundary) IsInside(p math.Vec2) bool {
	s := b.load()
	rel := p.Sub(s.center)
	return rel.Length() <= s.radiusAtAngle(rel.Angle())+surfaceTolerance
}

// ConstrainToBoundary projects p radially back onto the surface when it is outside.
// Points already inside are returned unchanged.
func (b *Boundary) ConstrainToBoundary(p math.Vec2) math.Vec2 {
	s := b.load()
	rel := p.Sub(s.center)
	r := s.radiusAtAngle(rel.Angle())
	if rel.Length() <= r+surfaceTolerance {
		return p
	}
	return s.center.Add(rel.Normalize().Scale(r))
}

// IsAtEdge reports whether p is within threshold of the surface (or beyond it).
func (b *Boundary) IsAtEdge(p math.Vec2, threshold float64) bool {
	s := b.load()
	rel := p.Sub(s.center)
	return s.radiusAtAngle(rel.Angle())-rel.Length() <= threshold
}

// AlignmentAngleDegrees returns the angle of the down direction in degrees. Adding
// a further 90° rotates a sprite so its up axis points at the center.
func (b *Boundary) AlignmentAngleDegrees(p math.Vec2) float64 {
	s := b.load()
	toCenter := s.center.Sub(s.nearestEdgePoint(p))
	return toCenter.Angle()*math.Rad2Deg + 180
}

// PointAt returns the point at angleDeg (0 = +X, counterclockwise) and the given
// distance from the center, capped at the surface.
func (b *Boundary) PointAt(angleDeg, distance float64) math.Vec2 {
	s := b.load()
	rad := angleDeg * math.Deg2Rad
	distance = gomath.Min(distance, s.radiusAtAngle(rad))
	return s.center.Add(math.FromAngle(rad).Scale(distance))
}

// AlignPoint moves p along its ray from the center to radiusFactor times the
// surface radius (1 puts it on the surface).
func (b *Boundary) AlignPoint(p math.Vec2, radiusFactor float64) math.Vec2 {
	s := b.load()
	rel := s.degenerate(p).Sub(s.center)
	return s.center.Add(rel.Normalize().Scale(s.radiusAtAngle(rel.Angle()) * radiusFactor))
}

// Vertices returns the polygon corners in counterclockwise order starting at angle
// zero, or nil for a circle.
func (b *Boundary) Vertices() []math.Vec2 {
	s := b.load()
	if s.shape.Kind != KindPolygonal {
		return nil
	}
	out := make([]math.Vec2, s.shape.Segments)
	for i := range out {
		a := float64(i) * s.segmentAngle
		out[i] = s.center.Add(math.FromAngle(a).Scale(s.radiusAtAngle(a)))
	}
	return out
}
