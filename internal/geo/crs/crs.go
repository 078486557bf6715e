// Package crs converts coordinates between SWEREF 99 TM (EPSG:3006) and
// WGS84 (EPSG:4326).
//
// The conversion is a transverse Mercator on the GRS80 ellipsoid evaluated
// with the Krüger n-series to order n^4, which is accurate well below a
// millimeter anywhere inside the Swedish envelope.
package crs

import (
	"math"

	"naturatlas/internal/errs"
	"naturatlas/internal/model"
)

// SWEREF 99 TM projection parameters (EPSG:3006).
const (
	semiMajor     = 6378137.0         // GRS80 a
	flattening    = 1 / 298.257222101 // GRS80 f
	scale         = 0.9996
	centralLonDeg = 15.0
	falseEasting  = 500000.0
	falseNorthing = 0.0
)

// Geographic envelope within which the projection definition is trusted.
// A fixed rectangle approximating Swedish territory; points outside it are
// rejected rather than silently projected with growing error.
const (
	EnvelopeMinLat = 55.0
	EnvelopeMaxLat = 69.1
	EnvelopeMinLon = 10.5
	EnvelopeMaxLon = 24.2
)

// Derived projection constants, computed once at startup and never mutated.
var (
	ecc  = math.Sqrt(flattening * (2 - flattening)) // first eccentricity
	nval = flattening / (2 - flattening)            // third flattening

	// rectifying radius
	radA = semiMajor / (1 + nval) * (1 + nval*nval/4 + nval*nval*nval*nval/64)

	alpha = [4]float64{
		nval/2 - 2*nval*nval/3 + 5*nval*nval*nval/16 + 41*nval*nval*nval*nval/180,
		13*nval*nval/48 - 3*nval*nval*nval/5 + 557*nval*nval*nval*nval/1440,
		61*nval*nval*nval/240 - 103*nval*nval*nval*nval/140,
		49561 * nval * nval * nval * nval / 161280,
	}
	beta = [4]float64{
		nval/2 - 2*nval*nval/3 + 37*nval*nval*nval/96 - nval*nval*nval*nval/360,
		nval*nval/48 + nval*nval*nval/15 - 437*nval*nval*nval*nval/1440,
		17*nval*nval*nval/480 - 37*nval*nval*nval*nval/840,
		4397 * nval * nval * nval * nval / 161280,
	}
	delta = [4]float64{
		2*nval - 2*nval*nval/3 - 2*nval*nval*nval + 116*nval*nval*nval*nval/45,
		7*nval*nval/3 - 8*nval*nval*nval/5 - 227*nval*nval*nval*nval/45,
		56*nval*nval*nval/15 - 136*nval*nval*nval*nval/35,
		4279 * nval * nval * nval * nval / 630,
	}
)

// InEnvelope reports whether p lies inside the trusted envelope.
func InEnvelope(p model.WGS84Point) bool {
	return p.Lat >= EnvelopeMinLat && p.Lat <= EnvelopeMaxLat &&
		p.Lon >= EnvelopeMinLon && p.Lon <= EnvelopeMaxLon
}

// ToWGS84 converts a SWEREF 99 TM coordinate to WGS84. Pure; projected
// space needs no bound check here.
func ToWGS84(p model.ProjectedPoint) model.WGS84Point {
	xi := (p.Northing - falseNorthing) / (scale * radA)
	eta := (p.Easting - falseEasting) / (scale * radA)

	xiP := xi
	etaP := eta
	for j := 0; j < 4; j++ {
		k := float64(2 * (j + 1))
		xiP -= beta[j] * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= beta[j] * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	lat := chi
	for j := 0; j < 4; j++ {
		k := float64(2 * (j + 1))
		lat += delta[j] * math.Sin(k*chi)
	}
	lon := centralLonDeg*math.Pi/180 + math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	return model.WGS84Point{
		Lat: lat * 180 / math.Pi,
		Lon: lon * 180 / math.Pi,
	}
}

// ToProjected converts a WGS84 coordinate to SWEREF 99 TM. Points outside
// the envelope are rejected: the projection is only trusted inside it, and
// failing fast beats returning a silently wrong position.
func ToProjected(p model.WGS84Point) (model.ProjectedPoint, error) {
	if !InEnvelope(p) {
		return model.ProjectedPoint{}, errs.Validation("coordinates",
			"point (%.4f, %.4f) outside supported area (lat %.1f..%.1f, lon %.1f..%.1f)",
			p.Lat, p.Lon, EnvelopeMinLat, EnvelopeMaxLat, EnvelopeMinLon, EnvelopeMaxLon)
	}

	lat := p.Lat * math.Pi / 180
	dLon := (p.Lon - centralLonDeg) * math.Pi / 180

	// conformal latitude
	s := math.Sin(lat)
	t := math.Sinh(math.Atanh(s) - ecc*math.Atanh(ecc*s))

	xiP := math.Atan2(t, math.Cos(dLon))
	etaP := math.Asinh(math.Sin(dLon) / math.Hypot(t, math.Cos(dLon)))

	xi := xiP
	eta := etaP
	for j := 0; j < 4; j++ {
		k := float64(2 * (j + 1))
		xi += alpha[j] * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += alpha[j] * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	return model.ProjectedPoint{
		Easting:  falseEasting + scale*radA*eta,
		Northing: falseNorthing + scale*radA*xi,
	}, nil
}

// BBoxToProjected converts a WGS84 box to SWEREF 99 TM by converting the
// two corners independently. No edge re-sampling: the projection is close
// to locally linear at registry-query scale, so corner conversion is an
// acceptable approximation even though large boxes pick up some distortion.
func BBoxToProjected(b model.WGS84BBox) (model.ProjectedBBox, error) {
	minCorner, err := ToProjected(model.WGS84Point{Lat: b.MinLat, Lon: b.MinLon})
	if err != nil {
		return model.ProjectedBBox{}, err
	}
	maxCorner, err := ToProjected(model.WGS84Point{Lat: b.MaxLat, Lon: b.MaxLon})
	if err != nil {
		return model.ProjectedBBox{}, err
	}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return model.ProjectedBBox{}, errs.Validation("bbox",
			"degenerate box: need min_lat < max_lat and min_lon < max_lon (got %s)", b.String())
	}
	return model.ProjectedBBox{
		MinEasting:  minCorner.Easting,
		MinNorthing: minCorner.Northing,
		MaxEasting:  maxCorner.Easting,
		MaxNorthing: maxCorner.Northing,
	}, nil
}
