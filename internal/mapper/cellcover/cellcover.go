// Package cellcover maps WGS84 boxes to covering H3 cells.
//
// The cover keys cached bbox searches and lets invalidation events find the
// entries that spatially overlap an updated area.
package cellcover

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"naturatlas/internal/model"
)

type Mapper struct {
	res int
}

func New(res int) (*Mapper, error) {
	if res < 0 || res > 15 {
		return nil, fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return &Mapper{res: res}, nil
}

// CellsForBBox returns the unique covering cells for a box, sorted for
// determinism.
func (m *Mapper) CellsForBBox(b model.WGS84BBox) ([]string, error) {
	outer := h3.GeoLoop{
		{Lat: b.MinLat, Lng: b.MinLon},
		{Lat: b.MinLat, Lng: b.MaxLon},
		{Lat: b.MaxLat, Lng: b.MaxLon},
		{Lat: b.MaxLat, Lng: b.MinLon},
	}

	cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: outer}, m.res)
	if err != nil {
		return nil, fmt.Errorf("polygon to cells: %w", err)
	}
	if len(cells) == 0 {
		// a box smaller than one cell still overlaps the cell under its center
		c, err := h3.LatLngToCell(h3.LatLng{
			Lat: (b.MinLat + b.MaxLat) / 2,
			Lng: (b.MinLon + b.MaxLon) / 2,
		}, m.res)
		if err != nil {
			return nil, fmt.Errorf("center cell: %w", err)
		}
		cells = []h3.Cell{c}
	}

	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.String())
	}
	sort.Strings(out)
	return out, nil
}
