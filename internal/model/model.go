// Package model defines core domain types shared across the service.
package model

import "fmt"

// WGS84Point is a geographic coordinate in EPSG:4326 (degrees).
type WGS84Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProjectedPoint is a planar coordinate in SWEREF 99 TM (EPSG:3006, meters).
type ProjectedPoint struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
}

// WGS84BBox is an axis-aligned box in EPSG:4326.
type WGS84BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// String representation matching the bbox query-parameter format
func (b WGS84BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// ProjectedBBox is an axis-aligned box in EPSG:3006.
type ProjectedBBox struct {
	MinEasting  float64 `json:"min_easting"`
	MinNorthing float64 `json:"min_northing"`
	MaxEasting  float64 `json:"max_easting"`
	MaxNorthing float64 `json:"max_northing"`
}

// Area is one protected-area record after source tagging. ID holds the
// canonical identifier regardless of what the source calls it natively.
type Area struct {
	ID             string  `json:"id"`
	Source         string  `json:"source"`
	Name           string  `json:"name"`
	Designation    string  `json:"designation,omitempty"`
	Municipality   string  `json:"municipality,omitempty"`
	County         string  `json:"county,omitempty"`
	AreaHa         float64 `json:"area_ha,omitempty"`
	ProtectedSince string  `json:"protected_since,omitempty"`
}

// AreaDetail extends Area with the boundary geometry as WKT text.
type AreaDetail struct {
	Area
	GeometryWKT string `json:"geometry_wkt,omitempty"`
}

// SourceError records one upstream registry that failed during an
// aggregated request.
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

type SearchMode int

const (
	SearchByName SearchMode = iota
	SearchByBBox
)

// SearchRequest is one validated search, by free-text query or by bbox.
type SearchRequest struct {
	Mode  SearchMode
	Query string
	BBox  *WGS84BBox
}

// AreaRef identifies one area in one source, e.g. for extent requests.
type AreaRef struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

func (r AreaRef) String() string { return r.Source + ":" + r.ID }

// AggregatedResult is the merged outcome of a fan-out search. It is
// constructed fresh per request and never persisted.
type AggregatedResult struct {
	Areas      []Area         `json:"areas"`
	Counts     map[string]int `json:"counts"`
	TotalCount int            `json:"total_count"`
	Errors     []SourceError  `json:"errors"`
}
