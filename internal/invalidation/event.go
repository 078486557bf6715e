// Package invalidation defines the registry-update event that drives cache
// invalidation.
package invalidation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event is one registry update. BBox is optional: events without one
// invalidate every cached search that touched the source.
type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	Source  string    `json:"source"`
	AreaID  string    `json:"area_id"`
	TS      time.Time `json:"ts"`
	BBox    *BBox     `json:"bbox,omitempty"`
}

type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete")
	}
	if strings.TrimSpace(e.Source) == "" {
		return fmt.Errorf("source is required")
	}
	if strings.TrimSpace(e.AreaID) == "" {
		return fmt.Errorf("area_id is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if b := e.BBox; b != nil {
		if !(b.MinLon >= -180 && b.MinLon <= 180 && b.MaxLon >= -180 && b.MaxLon <= 180) {
			return fmt.Errorf("bbox longitude out of range")
		}
		if !(b.MinLat >= -90 && b.MinLat <= 90 && b.MaxLat >= -90 && b.MaxLat <= 90) {
			return fmt.Errorf("bbox latitude out of range")
		}
		if !(b.MaxLon > b.MinLon && b.MaxLat > b.MinLat) {
			return fmt.Errorf("bbox must satisfy max > min on both axes")
		}
	}
	return nil
}

func Parse(raw []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, fmt.Errorf("invalid event: %w", err)
	}
	return e, nil
}
