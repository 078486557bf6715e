package bbox

import (
	"errors"
	"testing"

	"naturatlas/internal/errs"
	"naturatlas/internal/model"
)

func TestExtract_Polygon(t *testing.T) {
	box, err := Extract("POLYGON ((18.0 59.0, 18.5 59.0, 18.5 59.5, 18.0 59.0))")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := model.WGS84BBox{MinLon: 18.0, MinLat: 59.0, MaxLon: 18.5, MaxLat: 59.5}
	if box != want {
		t.Fatalf("got %+v want %+v", box, want)
	}
}

func TestExtract_SurvivesMalformedFraming(t *testing.T) {
	// the flat scan must tolerate broken structure from the defective upstream
	box, err := Extract("MULTIPOLYGON (((10 20, 30 40")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if box.MinLon != 10 || box.MaxLat != 40 {
		t.Fatalf("unexpected box %+v", box)
	}
}

func TestExtract_FailsWithoutCoordinates(t *testing.T) {
	for _, in := range []string{"", "POLYGON EMPTY", "no numbers here"} {
		_, err := Extract(in)
		if err == nil {
			t.Fatalf("Extract(%q): expected failure", in)
		}
		var ge *errs.GeometryError
		if !errors.As(err, &ge) {
			t.Fatalf("Extract(%q): expected GeometryError, got %T", in, err)
		}
	}
}

func TestCombine_AssociativeCommutative(t *testing.T) {
	a := model.WGS84BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}
	b := model.WGS84BBox{MinLon: -2, MinLat: 3, MaxLon: 0.5, MaxLat: 5}
	c := model.WGS84BBox{MinLon: 1, MinLat: -1, MaxLon: 4, MaxLat: 0}

	abc, _ := Combine([]model.WGS84BBox{a, b, c})
	cab, _ := Combine([]model.WGS84BBox{c, a, b})
	if abc != cab {
		t.Fatalf("order must not matter: %+v vs %+v", abc, cab)
	}

	ab, _ := Combine([]model.WGS84BBox{a, b})
	nested, _ := Combine([]model.WGS84BBox{ab, c})
	if abc != nested {
		t.Fatalf("grouping must not matter: %+v vs %+v", abc, nested)
	}
}

func TestCombine_EmptyFails(t *testing.T) {
	_, err := Combine(nil)
	var ge *errs.GeometryError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GeometryError on empty input, got %v", err)
	}
}

func TestToWKT_RoundTripExact(t *testing.T) {
	in := model.WGS84BBox{MinLon: 10, MinLat: 20, MaxLon: 30, MaxLat: 40}
	out, err := Extract(ToWKT(in))
	if err != nil {
		t.Fatalf("Extract(ToWKT): %v", err)
	}
	if out != in {
		t.Fatalf("round trip must be exact: got %+v want %+v", out, in)
	}
}

func TestToWKT_ClosedFivePointRing(t *testing.T) {
	got := ToWKT(model.WGS84BBox{MinLon: 1, MinLat: 2, MaxLon: 3, MaxLat: 4})
	want := "POLYGON ((1 2, 1 4, 3 4, 3 2, 1 2))"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
