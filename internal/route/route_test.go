package route

import (
	"context"
	"errors"
	"math"
	"testing"
)

var (
	copenhagenCenter = Coordinate{Lat: 55.67, Lng: 12.56}
	copenhagenNorth  = Coordinate{Lat: 55.70, Lng: 12.60}
)

func TestHaversine(t *testing.T) {
	got := Haversine(copenhagenCenter, copenhagenNorth)
	if got < 4.0 || got > 4.4 {
		t.Fatalf("distance out of expected range: %v km", got)
	}
	if d := Haversine(copenhagenCenter, copenhagenCenter); d != 0 {
		t.Fatalf("zero-length distance: want 0, got %v", d)
	}
}

func TestStraightLineFallback(t *testing.T) {
	r := straightLine(copenhagenCenter, copenhagenNorth)

	if r.Source != "fallback" {
		t.Fatalf("source: want fallback, got %q", r.Source)
	}
	if len(r.Points) != 5 {
		t.Fatalf("points: want 5, got %d", len(r.Points))
	}

	first, last := r.Points[0], r.Points[len(r.Points)-1]
	if first.Lat != copenhagenCenter.Lat || first.Lng != copenhagenCenter.Lng || first.Progress != 0 {
		t.Fatalf("first point must be the start with progress 0: %+v", first)
	}
	if last.Lat != copenhagenNorth.Lat || last.Lng != copenhagenNorth.Lng || last.Progress != 1 {
		t.Fatalf("last point must be the end with progress 1: %+v", last)
	}

	for i := 1; i < len(r.Points); i++ {
		if r.Points[i].Progress <= r.Points[i-1].Progress {
			t.Fatalf("progress must increase monotonically: %+v", r.Points)
		}
	}

	if r.DistanceKm <= Haversine(copenhagenCenter, copenhagenNorth) {
		t.Fatalf("fallback distance must include the detour factor, got %v", r.DistanceKm)
	}
	if r.DurationEstimateMin != int(math.Round(r.DistanceKm*4)) {
		t.Fatalf("duration estimate: want %v, got %d", r.DistanceKm*4, r.DurationEstimateMin)
	}
}

func TestStraightLineDeterministic(t *testing.T) {
	a := straightLine(copenhagenCenter, copenhagenNorth)
	b := straightLine(copenhagenCenter, copenhagenNorth)
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("fallback not deterministic at point %d: %+v vs %+v", i, a.Points[i], b.Points[i])
		}
	}
}

func densePath(n int) []Point {
	points := make([]Point, n)
	for i := range points {
		f := float64(i) / float64(n-1)
		points[i] = Point{
			Lat: copenhagenCenter.Lat + (copenhagenNorth.Lat-copenhagenCenter.Lat)*f,
			Lng: copenhagenCenter.Lng + (copenhagenNorth.Lng-copenhagenCenter.Lng)*f,
		}
	}
	return points
}

func TestSimplify(t *testing.T) {
	dense := densePath(200)
	got := Simplify(dense, 12)

	if len(got) > 12 || len(got) < 3 {
		t.Fatalf("simplified length out of range: %d", len(got))
	}
	if got[0].Lat != dense[0].Lat || got[0].Lng != dense[0].Lng {
		t.Fatalf("first point must survive simplification: %+v", got[0])
	}
	last := got[len(got)-1]
	if last.Lat != dense[len(dense)-1].Lat || last.Lng != dense[len(dense)-1].Lng {
		t.Fatalf("last point must survive simplification: %+v", last)
	}
	if got[0].Progress != 0 || last.Progress != 1 {
		t.Fatalf("progress must span [0,1]: first %v, last %v", got[0].Progress, last.Progress)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Progress <= got[i-1].Progress {
			t.Fatalf("progress must increase monotonically: %v", got)
		}
	}
}

func TestSimplifyShortInputKept(t *testing.T) {
	short := densePath(6)
	got := Simplify(short, 12)
	if len(got) != 6 {
		t.Fatalf("input below target must be kept as is, got %d points", len(got))
	}
	if got[0].Progress != 0 || got[len(got)-1].Progress != 1 {
		t.Fatalf("progress must still be renumbered: %v", got)
	}
}

// scriptedProvider returns a fixed route or error for sampler tests.
type scriptedProvider struct {
	name  string
	route Route
	err   error
	calls int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) FetchRoute(context.Context, Coordinate, Coordinate) (Route, error) {
	p.calls++
	if p.err != nil {
		return Route{}, p.err
	}
	return p.route, nil
}

func TestSamplerProviderOrder(t *testing.T) {
	primary := &scriptedProvider{name: "primary", err: errors.New("down")}
	secondary := &scriptedProvider{
		name:  "secondary",
		route: Route{Points: densePath(3), Source: "secondary"},
	}

	s := NewSampler(primary, secondary)
	r := s.Sample(context.Background(), copenhagenCenter, copenhagenNorth)

	if r.Source != "secondary" {
		t.Fatalf("expected the second provider's route, got source %q", r.Source)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("call counts: primary %d, secondary %d", primary.calls, secondary.calls)
	}
}

func TestSamplerFallsBackToStraightLine(t *testing.T) {
	failing := &scriptedProvider{name: "failing", err: errors.New("down")}

	s := NewSampler(failing)
	r := s.Sample(context.Background(), copenhagenCenter, copenhagenNorth)

	if r.Source != "fallback" {
		t.Fatalf("expected straight-line fallback, got source %q", r.Source)
	}
	if len(r.Points) != 5 {
		t.Fatalf("fallback must have 5 points, got %d", len(r.Points))
	}
}

func TestSamplerNoProviders(t *testing.T) {
	s := NewSampler()
	r := s.Sample(context.Background(), copenhagenCenter, copenhagenNorth)
	if r.Source != "fallback" {
		t.Fatalf("no providers must yield the fallback, got %q", r.Source)
	}
}
