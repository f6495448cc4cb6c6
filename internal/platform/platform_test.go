package platform

import (
	gomath "math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/internal/locomotion"
	"github.com/Faultbox/ringwalk/pkg/math"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func mustPolyline(t *testing.T, name string, pts ...math.Vec2) *Platform {
	t.Helper()
	p, err := NewPolyline(name, pts)
	require.NoError(t, err)
	return p
}

func TestNewPolylineValidates(t *testing.T) {
	_, err := NewPolyline("dot", []math.Vec2{{X: 1, Y: 1}})
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = NewPolyline("nan", []math.Vec2{{X: 0}, {X: gomath.NaN()}})
	assert.ErrorIs(t, err, ErrInvalidPoint)

	src := []math.Vec2{{X: -1}, {X: 1}}
	p, err := NewPolyline("ok", src)
	require.NoError(t, err)
	src[0].X = 42
	assert.Equal(t, -1.0, p.Points()[0].X, "points are copied")
	assert.Equal(t, 1, p.Segments())
}

func TestProbe(t *testing.T) {
	floor := mustPolyline(t, "floor", math.Vec2{X: -2, Y: -5}, math.Vec2{X: 2, Y: -5})
	set := NewSet(floor)
	down := math.Vec2{Y: -1}

	tests := []struct {
		name     string
		origin   math.Vec2
		dir      math.Vec2
		max      float64
		wantHit  bool
		wantDist float64
	}{
		{"straight down", math.Vec2{Y: -4}, down, 2, true, 1},
		{"unnormalized direction", math.Vec2{Y: -4}, math.Vec2{Y: -10}, 2, true, 1},
		{"out of reach", math.Vec2{Y: -4}, down, 0.5, false, 0},
		{"pointing away", math.Vec2{Y: -4}, math.Vec2{Y: 1}, 10, false, 0},
		{"past the end", math.Vec2{X: 3, Y: -4}, down, 2, false, 0},
		{"exact endpoint", math.Vec2{X: 2, Y: -4}, down, 2, true, 1},
		{"parallel", math.Vec2{X: -5, Y: -5}, math.Vec2{X: 1}, 10, false, 0},
		{"zero direction", math.Vec2{Y: -4}, math.Vec2{}, 2, false, 0},
		{"negative reach", math.Vec2{Y: -4}, down, -1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := set.Probe(tt.origin, tt.dir, tt.max)
			assert.Equal(t, tt.wantHit, got.Hit)
			if tt.wantHit {
				assert.InDelta(t, tt.wantDist, got.Distance, 1e-12)
				assert.InDelta(t, -5, got.Point.Y, 1e-12)
			}
		})
	}
}

func TestProbeNearestWins(t *testing.T) {
	far := mustPolyline(t, "far", math.Vec2{X: -1, Y: -8}, math.Vec2{X: 1, Y: -8})
	near := mustPolyline(t, "near", math.Vec2{X: -1, Y: -6}, math.Vec2{X: 1, Y: -6})
	set := NewSet(far, near)

	got := set.Probe(math.Vec2{Y: -5}, math.Vec2{Y: -1}, 10)
	require.True(t, got.Hit)
	assert.InDelta(t, 1, got.Distance, 1e-12)
}

func TestProbeTieFirstAdded(t *testing.T) {
	a := mustPolyline(t, "a", math.Vec2{X: -1, Y: -6}, math.Vec2{X: 0, Y: -6})
	b := mustPolyline(t, "b", math.Vec2{X: 0, Y: -6}, math.Vec2{X: 1, Y: -6})
	set := NewSet(a, b)

	got := set.Probe(math.Vec2{Y: -5}, math.Vec2{Y: -1}, 2)
	require.True(t, got.Hit)
	if diff := cmp.Diff(math.Vec2{X: 0, Y: -6}, got.Point, approx); diff != "" {
		t.Errorf("Probe() point mismatch (-want +got):\n%s", diff)
	}
}

func TestNewArcFollowsSurface(t *testing.T) {
	b, err := boundary.NewCircular(math.Vec2{X: 1, Y: 2}, 10)
	require.NoError(t, err)

	arc, err := NewArc(b, "ledge", 270, 40, 2, 8)
	require.NoError(t, err)
	pts := arc.Points()
	require.Len(t, pts, 9)
	assert.Equal(t, 8, arc.Segments())

	for i, p := range pts {
		d := p.Distance(b.Center())
		assert.InDelta(t, 8, d, 1e-9, "point %d", i)
	}
	if diff := cmp.Diff(math.Vec2{X: 1, Y: -6}, pts[4], approx); diff != "" {
		t.Errorf("arc midpoint mismatch (-want +got):\n%s", diff)
	}

	_, err = NewArc(b, "bad", 0, 30, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidSegments)
	_, err = NewArc(nil, "nil", 0, 30, 1, 4)
	assert.Error(t, err)
}

func TestNewArcOnOctagon(t *testing.T) {
	b, err := boundary.NewPolygonal(math.Vec2{}, 10, 8)
	require.NoError(t, err)

	arc, err := NewArc(b, "ring", 0, 90, 1.5, 12)
	require.NoError(t, err)
	for _, p := range arc.Points() {
		dist, angle := b.Polar(p)
		assert.InDelta(t, b.RadiusAtAngle(angle)-1.5, dist, 1e-9)
	}
}

func TestProbeFromInsideArc(t *testing.T) {
	b, err := boundary.NewCircular(math.Vec2{}, 10)
	require.NoError(t, err)
	arc, err := NewArc(b, "ledge", 270, 60, 2, 16)
	require.NoError(t, err)
	set := NewSet(arc)
	assert.Equal(t, 1, set.Len())

	origin := math.Vec2{X: 1, Y: -7.5}
	got := set.Probe(origin, b.GravityDirection(origin), 1)
	require.True(t, got.Hit)
	assert.InDelta(t, 8, got.Point.Length(), 0.01, "hit lies on the chorded arc")
}

func TestSetAddIgnoresNil(t *testing.T) {
	set := NewSet(nil)
	set.Add(nil)
	assert.Zero(t, set.Len())

	p := mustPolyline(t, "p", math.Vec2{}, math.Vec2{X: 1})
	set.Add(p)
	got := set.Platforms()
	require.Len(t, got, 1)
	assert.Equal(t, "p", got[0].Name)
}

func TestWalkAcrossPlatformStaysGrounded(t *testing.T) {
	const (
		dt    = 0.02
		ticks = 40
	)
	circle, err := boundary.NewCircular(math.Vec2{}, 10)
	require.NoError(t, err)
	octagon, err := boundary.NewPolygonal(math.Vec2{}, 10, 8)
	require.NoError(t, err)
	clearance := locomotion.DefaultConfig().SnapClearance

	ledge := func(t *testing.T, _ *boundary.Boundary) *Platform {
		return mustPolyline(t, "ledge", math.Vec2{X: -3, Y: -8}, math.Vec2{X: 3, Y: -8})
	}
	arc := func(t *testing.T, b *boundary.Boundary) *Platform {
		p, err := NewArc(b, "ledge", 270, 30, 2.5, 12)
		require.NoError(t, err)
		return p
	}
	flatSpawn := func(x float64) func(*boundary.Boundary) math.Vec2 {
		return func(*boundary.Boundary) math.Vec2 { return math.Vec2{X: x, Y: -8 + clearance} }
	}
	arcSpawn := func(deg float64) func(*boundary.Boundary) math.Vec2 {
		return func(b *boundary.Boundary) math.Vec2 {
			return b.PointAt(deg, b.RadiusAtAngle(deg*math.Deg2Rad)-2.5-clearance)
		}
	}

	tests := []struct {
		name     string
		b        *boundary.Boundary
		platform func(*testing.T, *boundary.Boundary) *Platform
		spawn    func(*boundary.Boundary) math.Vec2
		move     float64
	}{
		{"circle ledge right", circle, ledge, flatSpawn(-2.5), 1},
		{"circle ledge left", circle, ledge, flatSpawn(2.5), -1},
		{"circle arc right", circle, arc, arcSpawn(260), 1},
		{"circle arc left", circle, arc, arcSpawn(280), -1},
		{"octagon ledge right", octagon, ledge, flatSpawn(-2.5), 1},
		{"octagon ledge left", octagon, ledge, flatSpawn(2.5), -1},
		{"octagon arc right", octagon, arc, arcSpawn(260), 1},
		{"octagon arc left", octagon, arc, arcSpawn(280), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewSet(tt.platform(t, tt.b))
			spawn := tt.spawn(tt.b)
			c, err := locomotion.NewController(tt.b, set, locomotion.DefaultConfig(), spawn,
				locomotion.WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, err)

			for i := 0; i < ticks; i++ {
				res := c.Step(locomotion.Input{MoveAxis: tt.move}, dt)
				require.True(t, res.Grounded, "tick %d at %v", i, res.Position)

				hit := set.Probe(res.Position, tt.b.GravityDirection(res.Position), 1)
				require.True(t, hit.Hit, "tick %d at %v", i, res.Position)
				assert.LessOrEqual(t, hit.Distance, clearance+1e-9, "tick %d", i)
			}
			assert.Greater(t, c.State().Position.Distance(spawn), 1.0, "character actually walked")
		})
	}
}
