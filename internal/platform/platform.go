// Package platform provides static one-way platforms and the ground probe the
// locomotion controller uses to stand on them.
package platform

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/internal/locomotion"
	"github.com/Faultbox/ringwalk/pkg/math"
)

// parallelEpsilon is the smallest ray/segment cross product treated as an intersection.
const parallelEpsilon = 1e-12

// Platform errors.
var (
	ErrTooFewPoints    = errors.New("platform needs at least 2 points")
	ErrInvalidSegments = errors.New("arc platform needs at least 1 segment")
	ErrInvalidPoint    = errors.New("platform point must be finite")
)

// Platform is an open polyline collider.
type Platform struct {
	Name   string
	points []math.Vec2
}

// NewPolyline creates a platform through the given points.
func NewPolyline(name string, points []math.Vec2) (*Platform, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("platform %q: %w", name, ErrTooFewPoints)
	}
	for i, p := range points {
		if !p.IsFinite() {
			return nil, fmt.Errorf("platform %q point %d: %w", name, i, ErrInvalidPoint)
		}
	}
	pts := make([]math.Vec2, len(points))
	copy(pts, points)
	return &Platform{Name: name, points: pts}, nil
}

// NewArc creates a curved platform that follows the boundary surface at height units
// inside it. The arc spans arcAngleDeg centered on centerAngleDeg and is built from
// segments straight chords.
func NewArc(b *boundary.Boundary, name string, centerAngleDeg, arcAngleDeg, height float64, segments int) (*Platform, error) {
	if b == nil {
		return nil, fmt.Errorf("platform %q: nil boundary", name)
	}
	if segments < 1 {
		return nil, fmt.Errorf("platform %q: %w", name, ErrInvalidSegments)
	}
	if !math.IsFinite(centerAngleDeg) || !math.IsFinite(arcAngleDeg) || !math.IsFinite(height) {
		return nil, fmt.Errorf("platform %q: %w", name, ErrInvalidPoint)
	}

	start := centerAngleDeg - arcAngleDeg/2
	step := arcAngleDeg / float64(segments)
	points := make([]math.Vec2, segments+1)
	for i := range points {
		deg := start + step*float64(i)
		r := b.RadiusAtAngle(deg * math.Deg2Rad)
		points[i] = b.PointAt(deg, gomath.Max(0, r-height))
	}
	return NewPolyline(name, points)
}

// Points returns a copy of the polyline vertices.
func (p *Platform) Points() []math.Vec2 {
	out := make([]math.Vec2, len(p.points))
	copy(out, p.points)
	return out
}

// Segments returns the number of straight pieces.
func (p *Platform) Segments() int {
	return len(p.points) - 1
}

// raycast returns the ray parameter of the nearest crossing with this platform. dir
// must be a unit vector.
func (p *Platform) raycast(origin, dir math.Vec2, maxDistance float64) (float64, bool) {
	best := gomath.Inf(1)
	for i := 0; i+1 < len(p.points); i++ {
		a, e := p.points[i], p.points[i+1].Sub(p.points[i])
		denom := dir.Cross(e)
		if gomath.Abs(denom) < parallelEpsilon {
			continue
		}
		ao := a.Sub(origin)
		t := ao.Cross(e) / denom
		s := ao.Cross(dir) / denom
		if t < 0 || t > maxDistance || s < 0 || s > 1 {
			continue
		}
		if t < best {
			best = t
		}
	}
	return best, !gomath.IsInf(best, 1)
}

// Set is a collection of platforms answering ground probes. It is safe for
// concurrent probes; Add may run alongside them.
type Set struct {
	mu        sync.RWMutex
	platforms []*Platform
}

// NewSet creates a set holding the given platforms.
func NewSet(platforms ...*Platform) *Set {
	s := &Set{}
	for _, p := range platforms {
		s.Add(p)
	}
	return s
}

// Add appends a platform. Nil platforms are ignored.
func (s *Set) Add(p *Platform) {
	if p == nil {
		return
	}
	s.mu.Lock()
	s.platforms = append(s.platforms, p)
	s.mu.Unlock()
}

// Len returns the number of platforms.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.platforms)
}

// Platforms returns a copy of the platform list in insertion order.
func (s *Set) Platforms() []*Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Platform, len(s.platforms))
	copy(out, s.platforms)
	return out
}

// Probe casts a ray and reports the nearest platform hit within maxDistance. On equal
// distances the platform added first wins.
func (s *Set) Probe(origin, direction math.Vec2, maxDistance float64) locomotion.ProbeResult {
	dir := direction.Normalize()
	if dir.IsZero() || !origin.IsFinite() || !math.IsFinite(maxDistance) || maxDistance < 0 {
		return locomotion.ProbeResult{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var res locomotion.ProbeResult
	for _, p := range s.platforms {
		t, ok := p.raycast(origin, dir, maxDistance)
		if !ok || (res.Hit && t >= res.Distance) {
			continue
		}
		res = locomotion.ProbeResult{Hit: true, Point: origin.Add(dir.Scale(t)), Distance: t}
	}
	return res
}

var _ locomotion.PlatformSurface = (*Set)(nil)
