package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"naturatlas/internal/errs"
)

func TestGetJSON_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/areas" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("name"); got != "tyresta" {
			t.Errorf("name param = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("accept = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 3}`))
	}))
	defer srv.Close()

	c, err := New("nvr", srv.URL, srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out struct {
		Count int `json:"count"`
	}
	params := url.Values{"name": {"tyresta"}}
	if err := c.GetJSON(context.Background(), "/areas", params, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Count != 3 {
		t.Fatalf("count = %d", out.Count)
	}
}

func TestGetJSON_Non2xxCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "registry unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New("nvr", srv.URL, srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out map[string]any
	err = c.GetJSON(context.Background(), "/areas", nil, &out)

	var ue *errs.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T", err)
	}
	if ue.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", ue.Status)
	}
	if ue.Source != "nvr" {
		t.Fatalf("source = %q", ue.Source)
	}
	if ue.Msg != "registry unavailable" {
		t.Fatalf("msg = %q", ue.Msg)
	}
}

func TestGetJSON_TimeoutIsStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c, err := New("natura", srv.URL, srv.Client(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out map[string]any
	err = c.GetJSON(context.Background(), "/sites", nil, &out)

	var ue *errs.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T", err)
	}
	if ue.Status != 0 {
		t.Fatalf("status = %d, want 0 for unreached origin", ue.Status)
	}
}

func TestGetJSON_UnreachableHostIsStatusZero(t *testing.T) {
	// reserved TEST-NET-1 address; nothing listens there
	c, err := New("ramsar", "http://192.0.2.1:9", &http.Client{Timeout: 200 * time.Millisecond}, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out map[string]any
	err = c.GetJSON(context.Background(), "/wetlands", nil, &out)

	var ue *errs.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T", err)
	}
	if ue.Status != 0 {
		t.Fatalf("status = %d, want 0", ue.Status)
	}
}

func TestGetJSON_RejectsNonJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login page</html>"))
	}))
	defer srv.Close()

	c, err := New("nvr", srv.URL, srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out map[string]any
	err = c.GetJSON(context.Background(), "/areas", nil, &out)

	var ue *errs.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T", err)
	}
	if ue.Status != http.StatusOK {
		t.Fatalf("status = %d", ue.Status)
	}
}

func TestGetJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"truncated":`))
	}))
	defer srv.Close()

	c, err := New("nvr", srv.URL, srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out map[string]any
	err = c.GetJSON(context.Background(), "/areas", nil, &out)

	var ue *errs.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T", err)
	}
}

func TestGetText_ReturnsRawBody(t *testing.T) {
	const wkt = "POLYGON ((17 59, 18 59, 18 60, 17 59))"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(wkt))
	}))
	defer srv.Close()

	c, err := New("nvr", srv.URL, srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := c.GetText(context.Background(), "/areas/1/extent", nil)
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if got != wkt {
		t.Fatalf("GetText = %q", got)
	}
}
