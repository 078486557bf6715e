package simplify

import (
	"math"
	"testing"

	"naturatlas/internal/geo/wkt"
	"naturatlas/internal/model"
)

func pt(lon, lat float64) model.WGS84Point { return model.WGS84Point{Lon: lon, Lat: lat} }

func TestRing_NeverIncreasesPointCount(t *testing.T) {
	ring := wkt.Ring{
		pt(0, 0), pt(1, 0.01), pt(2, -0.01), pt(3, 0.02), pt(4, 0),
		pt(4, 4), pt(0, 4), pt(0, 0),
	}
	for _, tol := range []float64{0, 0.001, 0.05, 1, 100} {
		out := Ring(ring, tol)
		if len(out) > len(ring) {
			t.Fatalf("tolerance %g: output %d points > input %d", tol, len(out), len(ring))
		}
	}
}

func TestRing_MinimumValidityPreserved(t *testing.T) {
	tri := wkt.Ring{pt(0, 0), pt(1, 0), pt(0, 1), pt(0, 0)}
	out := Ring(tri, 1e9)
	if len(out) < 4 {
		t.Fatalf("a 4-point ring must stay a valid ring even at huge tolerance, got %d points", len(out))
	}
	if len(out) != 4 || out[0] != tri[0] {
		t.Fatalf("expected the original ring back, got %v", out)
	}
}

func TestRing_ClosureInvariant(t *testing.T) {
	ring := wkt.Ring{
		pt(0, 0), pt(2, 0.2), pt(4, 0), pt(4, 4), pt(2, 4.2), pt(0, 4), pt(0, 0),
	}
	for _, tol := range []float64{0.001, 0.5, 3} {
		out := Ring(ring, tol)
		if out[0] != out[len(out)-1] {
			t.Fatalf("tolerance %g: ring not closed: first %v last %v", tol, out[0], out[len(out)-1])
		}
	}
}

func TestRing_DeviationBoundedByTolerance(t *testing.T) {
	// interior points well above tolerance must be retained
	ring := wkt.Ring{pt(0, 0), pt(2, 1), pt(4, 0), pt(4, -2), pt(0, -2), pt(0, 0)}
	out := Ring(ring, 0.1)
	found := false
	for _, p := range out {
		if p == pt(2, 1) {
			found = true
		}
	}
	if !found {
		t.Fatalf("point deviating 1.0 from baseline must survive tolerance 0.1: %v", out)
	}
}

func TestWKT_DegenerateCollapseExample(t *testing.T) {
	in := "POLYGON ((18.0 59.0, 18.0001 59.0001, 18.0002 59.0, 18.0 59.0))"
	out := WKT(in, 0.001)
	rings := wkt.ParseRings(out)
	if len(rings) != 1 {
		t.Fatalf("want 1 ring, got %d (%q)", len(rings), out)
	}
	// all interior deviation is under ~100 m, so only the original ring survives
	// via the <4-point substitution rule
	if got := len(rings[0]); got != 4 {
		t.Fatalf("sub-tolerance ring must fall back to the original 4 points, got %d (%q)", got, out)
	}
}

func TestWKT_MultiPolygonRingsSimplifiedIndependently(t *testing.T) {
	in := "MULTIPOLYGON (((0 0, 1 0.001, 2 0, 2 2, 0 2, 0 0)), ((5 5, 6 5, 6 6, 5 5)))"
	out := WKT(in, 0.01)
	rings := wkt.ParseRings(out)
	if len(rings) != 2 {
		t.Fatalf("want 2 rings, got %d (%q)", len(rings), out)
	}
	if len(rings[0]) >= 6 {
		t.Errorf("first ring should have dropped its near-collinear point: %v", rings[0])
	}
	if len(rings[1]) != 4 {
		t.Errorf("second ring must be untouched: %v", rings[1])
	}
}

func TestPerpendicularDistance_ZeroBaselineFallsBackToPointDistance(t *testing.T) {
	d := perpendicularDistance(pt(3, 4), pt(0, 0), pt(0, 0))
	if math.Abs(d-5) > 1e-12 {
		t.Fatalf("want Euclidean distance 5, got %g", d)
	}
}
