// Package simplify reduces the coordinate density of polygon rings with
// Douglas–Peucker line simplification.
package simplify

import (
	"math"

	"naturatlas/internal/geo/wkt"
	"naturatlas/internal/model"
)

// DefaultTolerance is the perpendicular-deviation cutoff in degrees,
// roughly 100 m at Swedish latitudes.
const DefaultTolerance = 0.001

// Ring simplifies one closed ring. Rings that would fall below 4 points
// are returned unmodified, since a shorter "ring" cannot enclose an area,
// and the closure is re-established if the closing duplicate was dropped.
func Ring(ring wkt.Ring, tolerance float64) wkt.Ring {
	if len(ring) < 4 {
		return ring
	}
	out := douglasPeucker(ring, tolerance)
	if len(out) > 0 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	if len(out) < 4 {
		return ring
	}
	return out
}

// WKT simplifies every ring of a polygon or multipolygon WKT string.
func WKT(text string, tolerance float64) string {
	return wkt.MapRings(text, func(r wkt.Ring) wkt.Ring {
		return Ring(r, tolerance)
	})
}

func douglasPeucker(pts wkt.Ring, tolerance float64) wkt.Ring {
	if len(pts) <= 2 {
		return pts
	}

	first := pts[0]
	last := pts[len(pts)-1]

	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(pts)-1; i++ {
		if d := perpendicularDistance(pts[i], first, last); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return wkt.Ring{first, last}
	}

	left := douglasPeucker(pts[:maxIdx+1], tolerance)
	right := douglasPeucker(pts[maxIdx:], tolerance)
	// the split point appears in both halves; drop it from the left
	return append(left[:len(left)-1:len(left)-1], right...)
}

// perpendicularDistance is the distance from p to the line through a and b,
// falling back to point distance when the baseline is zero length (which
// happens at the top level of every closed ring).
func perpendicularDistance(p, a, b model.WGS84Point) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	if dx == 0 && dy == 0 {
		return math.Hypot(p.Lon-a.Lon, p.Lat-a.Lat)
	}
	return math.Abs(dy*p.Lon-dx*p.Lat+b.Lon*a.Lat-b.Lat*a.Lon) / math.Hypot(dx, dy)
}
