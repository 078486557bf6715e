package nvr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"naturatlas/internal/config"
	"naturatlas/internal/errs"
	"naturatlas/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Config{NVR: config.SourceCfg{BaseURL: srv.URL, Timeout: time.Second}}
	s, err := newClient(cfg, nil, srv.Client())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	return s.(*Client)
}

func TestSearchByName_RenamesNativeID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "tyresta" {
			t.Errorf("name param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"areaId": "2001234", "name": "Tyresta", "designation": "Nationalpark",
			 "municipality": "Haninge", "county": "Stockholm", "areaHa": 1962.0,
			 "protectedSince": "1993-09-01"}
		]`))
	})

	areas, err := c.SearchByName(context.Background(), "tyresta")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(areas) != 1 {
		t.Fatalf("got %d areas", len(areas))
	}
	a := areas[0]
	if a.ID != "2001234" {
		t.Fatalf("ID = %q, want the native areaId value", a.ID)
	}
	if a.Source != SourceName {
		t.Fatalf("Source = %q", a.Source)
	}
	if a.Name != "Tyresta" || a.AreaHa != 1962.0 {
		t.Fatalf("unexpected area: %+v", a)
	}
}

func TestSearchByBBox_SendsProjectedCoordinates(t *testing.T) {
	var got map[string]float64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]float64{}
		for _, k := range []string{"minE", "minN", "maxE", "maxN"} {
			f, err := strconv.ParseFloat(r.URL.Query().Get(k), 64)
			if err != nil {
				t.Errorf("param %s: %v", k, err)
			}
			got[k] = f
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	b := model.WGS84BBox{MinLon: 17.8, MinLat: 59.2, MaxLon: 18.3, MaxLat: 59.5}
	if _, err := c.SearchByBBox(context.Background(), b); err != nil {
		t.Fatalf("SearchByBBox: %v", err)
	}

	// Stockholm sits east of the central meridian, so eastings exceed 500 km
	if got["minE"] < 500_000 || got["maxE"] < got["minE"] {
		t.Fatalf("eastings out of order: %+v", got)
	}
	// northings around latitude 59 are in the 6.5M range
	if got["minN"] < 6_000_000 || got["maxN"] < got["minN"] {
		t.Fatalf("northings out of order: %+v", got)
	}
}

func TestSearchByBBox_OutsideEnvelopeFailsBeforeIO(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	b := model.WGS84BBox{MinLon: 4.0, MinLat: 39.0, MaxLon: 5.0, MaxLat: 40.0}
	_, err := c.SearchByBBox(context.Background(), b)

	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error type = %T", err)
	}
	if called {
		t.Fatalf("upstream called despite invalid bbox")
	}
}

func TestDetail_CarriesGeometry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/areas/2001234" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"areaId": "2001234", "name": "Tyresta",
			"geometryWkt": "POLYGON ((18.2 59.17, 18.3 59.17, 18.3 59.25, 18.2 59.17))"}`))
	})

	d, err := c.Detail(context.Background(), "2001234")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.ID != "2001234" || d.Source != SourceName {
		t.Fatalf("unexpected detail: %+v", d.Area)
	}
	if d.GeometryWKT == "" {
		t.Fatalf("geometry missing")
	}
}

func TestDetail_UpstreamFailurePropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := c.Detail(context.Background(), "nope")

	var ue *errs.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T", err)
	}
	if ue.Status != http.StatusNotFound {
		t.Fatalf("status = %d", ue.Status)
	}
}

func TestExtent_ReturnsWKTText(t *testing.T) {
	const wkt = "POLYGON ((18.2 59.17, 18.2 59.25, 18.3 59.25, 18.3 59.17, 18.2 59.17))"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/areas/2001234/extent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(wkt))
	})

	got, err := c.Extent(context.Background(), "2001234")
	if err != nil {
		t.Fatalf("Extent: %v", err)
	}
	if got != wkt {
		t.Fatalf("Extent = %q", got)
	}
}
