// Package wkt reads and rewrites the coordinate rings of WKT polygon and
// multipolygon text.
//
// Only innermost parenthesized groups are touched; the outer POLYGON /
// MULTIPOLYGON framing is carried through as opaque text, which lets the
// same code handle both shapes uniformly.
package wkt

import (
	"math"
	"strconv"
	"strings"

	"naturatlas/internal/model"
)

// Ring is one closed boundary loop, first point equal to last.
type Ring []model.WGS84Point

// group marks one innermost parenthesized span in the source text,
// excluding the parentheses themselves.
type group struct {
	start, end int
}

// innermostGroups scans for balanced parenthesized groups that contain no
// nested parentheses. A single regex cannot do this for multipolygons, so
// the scan tracks the most recent opener and emits a group whenever the
// matching closer arrives without another opener in between.
func innermostGroups(s string) []group {
	var groups []group
	open := -1
	for i, r := range s {
		switch r {
		case '(':
			open = i
		case ')':
			if open >= 0 {
				groups = append(groups, group{start: open + 1, end: i})
				open = -1
			}
		}
	}
	return groups
}

// parsePairs splits one coordinate group into points. Pairs that do not
// parse as two finite numbers are dropped: a slightly lossy geometry is
// more useful here than rejecting the whole string.
func parsePairs(s string) Ring {
	parts := strings.Split(s, ",")
	ring := make(Ring, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			continue
		}
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		ring = append(ring, model.WGS84Point{Lon: x, Lat: y})
	}
	return ring
}

// ParseRings extracts every coordinate ring from wkt, in textual order.
func ParseRings(wkt string) []Ring {
	groups := innermostGroups(wkt)
	rings := make([]Ring, 0, len(groups))
	for _, g := range groups {
		rings = append(rings, parsePairs(wkt[g.start:g.end]))
	}
	return rings
}

// SerializeRing emits a ring as "x y" pairs joined by ", ". The original
// formatting and precision of the input is not preserved.
func SerializeRing(ring Ring) string {
	pairs := make([]string, 0, len(ring))
	for _, p := range ring {
		pairs = append(pairs, strconv.FormatFloat(p.Lon, 'f', -1, 64)+" "+
			strconv.FormatFloat(p.Lat, 'f', -1, 64))
	}
	return strings.Join(pairs, ", ")
}

// MapRings rewrites every innermost group of wkt through fn, preserving all
// surrounding text. len(ParseRings(out)) == len(ParseRings(wkt)).
func MapRings(wkt string, fn func(Ring) Ring) string {
	groups := innermostGroups(wkt)
	if len(groups) == 0 {
		return wkt
	}
	var b strings.Builder
	b.Grow(len(wkt))
	prev := 0
	for _, g := range groups {
		b.WriteString(wkt[prev:g.start])
		b.WriteString(SerializeRing(fn(parsePairs(wkt[g.start:g.end]))))
		prev = g.end
	}
	b.WriteString(wkt[prev:])
	return b.String()
}
