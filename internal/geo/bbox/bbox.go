// Package bbox extracts, combines and serializes axis-aligned bounds from
// WKT text.
//
// Extraction deliberately ignores ring and parenthesis structure: this path
// works around a known upstream extent-aggregation defect and must survive
// slightly malformed text. It would also accept arbitrary numeric text, so
// it stays internal and is not a general-purpose WKT parser.
package bbox

import (
	"math"
	"strconv"
	"strings"

	"naturatlas/internal/errs"
	"naturatlas/internal/model"
)

// Extract folds every numeric coordinate pair found in the text into
// running min/max bounds.
func Extract(wkt string) (model.WGS84BBox, error) {
	box := model.WGS84BBox{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}

	fields := strings.FieldsFunc(wkt, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E'
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
			nums = append(nums, v)
		}
	}

	pairs := 0
	for i := 0; i+1 < len(nums); i += 2 {
		x, y := nums[i], nums[i+1]
		pairs++
		box.MinLon = math.Min(box.MinLon, x)
		box.MinLat = math.Min(box.MinLat, y)
		box.MaxLon = math.Max(box.MaxLon, x)
		box.MaxLat = math.Max(box.MaxLat, y)
	}

	if pairs == 0 {
		return model.WGS84BBox{}, errs.Geometry("no coordinate pairs found in %q", truncate(wkt, 64))
	}
	return box, nil
}

// Combine folds min/max pairwise across all boxes. Associative and
// commutative: input order does not affect the result.
func Combine(boxes []model.WGS84BBox) (model.WGS84BBox, error) {
	if len(boxes) == 0 {
		return model.WGS84BBox{}, errs.Geometry("no boxes to combine")
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out.MinLon = math.Min(out.MinLon, b.MinLon)
		out.MinLat = math.Min(out.MinLat, b.MinLat)
		out.MaxLon = math.Max(out.MaxLon, b.MaxLon)
		out.MaxLat = math.Max(out.MaxLat, b.MaxLat)
	}
	return out, nil
}

// ToWKT serializes a box as a closed 5-point rectangle, clockwise from the
// min corner, which is the ring order importing systems expect.
func ToWKT(b model.WGS84BBox) string {
	var sb strings.Builder
	sb.WriteString("POLYGON ((")
	writePair(&sb, b.MinLon, b.MinLat)
	sb.WriteString(", ")
	writePair(&sb, b.MinLon, b.MaxLat)
	sb.WriteString(", ")
	writePair(&sb, b.MaxLon, b.MaxLat)
	sb.WriteString(", ")
	writePair(&sb, b.MaxLon, b.MinLat)
	sb.WriteString(", ")
	writePair(&sb, b.MinLon, b.MinLat)
	sb.WriteString("))")
	return sb.String()
}

func writePair(sb *strings.Builder, x, y float64) {
	sb.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(y, 'f', -1, 64))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
