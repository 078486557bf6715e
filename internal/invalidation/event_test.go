package invalidation

import (
	"strings"
	"testing"
	"time"
)

func validEvent() Event {
	return Event{
		Version: 1,
		Op:      "update",
		Source:  "nvr",
		AreaID:  "2001234",
		TS:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		BBox:    &BBox{MinLon: 17.9, MinLat: 59.2, MaxLon: 18.2, MaxLat: 59.4},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validEvent().Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	noBox := validEvent()
	noBox.BBox = nil
	if err := noBox.Validate(); err != nil {
		t.Fatalf("bbox must be optional: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Event)
	}{
		{"bad version", func(e *Event) { e.Version = 2 }},
		{"bad op", func(e *Event) { e.Op = "upsert" }},
		{"missing source", func(e *Event) { e.Source = " " }},
		{"missing area id", func(e *Event) { e.AreaID = "" }},
		{"zero ts", func(e *Event) { e.TS = time.Time{} }},
		{"inverted bbox", func(e *Event) { e.BBox.MinLon, e.BBox.MaxLon = e.BBox.MaxLon, e.BBox.MinLon }},
		{"lat out of range", func(e *Event) { e.BBox.MaxLat = 95 }},
	}
	for _, tc := range cases {
		e := validEvent()
		tc.mutate(&e)
		if err := e.Validate(); err == nil {
			t.Errorf("%s: expected rejection", tc.name)
		}
	}
}

func TestParse(t *testing.T) {
	raw := `{"version":1,"op":"delete","source":"natura","area_id":"SE0110001","ts":"2026-03-01T12:00:00Z"}`
	e, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if e.Source != "natura" || e.Op != "delete" {
		t.Fatalf("unexpected event: %+v", e)
	}

	if _, err := Parse([]byte(`{"version":1`)); err == nil || !strings.Contains(err.Error(), "parse event") {
		t.Fatalf("malformed json must fail with parse error, got %v", err)
	}
}
