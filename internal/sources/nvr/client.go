// Package nvr is the client for the national protected-area registry.
//
// The registry's geographic endpoint speaks SWEREF 99 TM, so bbox searches
// are converted from WGS84 before the call. Its native identifier field is
// areaId, renamed to the canonical id during tagging.
package nvr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"naturatlas/internal/config"
	"naturatlas/internal/geo/crs"
	"naturatlas/internal/httpclient"
	"naturatlas/internal/model"
	"naturatlas/internal/sources"
)

const SourceName = "nvr"

func init() {
	sources.Register(SourceName, newClient)
}

type Client struct {
	api *httpclient.Client
	log *slog.Logger
}

func newClient(cfg config.Config, logger *slog.Logger, hc *http.Client) (sources.Source, error) {
	api, err := httpclient.New(SourceName, cfg.NVR.BaseURL, hc, cfg.NVR.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, log: logger}, nil
}

func (c *Client) Name() string { return SourceName }

// record is the registry's native search-result shape.
type record struct {
	AreaID         string  `json:"areaId"`
	Name           string  `json:"name"`
	Designation    string  `json:"designation"`
	Municipality   string  `json:"municipality"`
	County         string  `json:"county"`
	AreaHa         float64 `json:"areaHa"`
	ProtectedSince string  `json:"protectedSince"`
}

func (r record) toArea() model.Area {
	return model.Area{
		ID:             r.AreaID,
		Source:         SourceName,
		Name:           r.Name,
		Designation:    r.Designation,
		Municipality:   r.Municipality,
		County:         r.County,
		AreaHa:         r.AreaHa,
		ProtectedSince: r.ProtectedSince,
	}
}

func (c *Client) SearchByName(ctx context.Context, q string) ([]model.Area, error) {
	params := url.Values{}
	params.Set("name", q)

	var recs []record
	if err := c.api.GetJSON(ctx, "/areas", params, &recs); err != nil {
		return nil, err
	}
	return toAreas(recs), nil
}

func (c *Client) SearchByBBox(ctx context.Context, b model.WGS84BBox) ([]model.Area, error) {
	pb, err := crs.BBoxToProjected(b)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("minE", strconv.FormatFloat(pb.MinEasting, 'f', 1, 64))
	params.Set("minN", strconv.FormatFloat(pb.MinNorthing, 'f', 1, 64))
	params.Set("maxE", strconv.FormatFloat(pb.MaxEasting, 'f', 1, 64))
	params.Set("maxN", strconv.FormatFloat(pb.MaxNorthing, 'f', 1, 64))

	var recs []record
	if err := c.api.GetJSON(ctx, "/areas", params, &recs); err != nil {
		return nil, err
	}
	return toAreas(recs), nil
}

func (c *Client) Detail(ctx context.Context, id string) (model.AreaDetail, error) {
	var rec struct {
		record
		GeometryWKT string `json:"geometryWkt"`
	}
	if err := c.api.GetJSON(ctx, "/areas/"+url.PathEscape(id), nil, &rec); err != nil {
		return model.AreaDetail{}, err
	}
	return model.AreaDetail{Area: rec.toArea(), GeometryWKT: rec.GeometryWKT}, nil
}

func (c *Client) Extent(ctx context.Context, id string) (string, error) {
	wkt, err := c.api.GetText(ctx, fmt.Sprintf("/areas/%s/extent", url.PathEscape(id)), nil)
	if err != nil {
		return "", err
	}
	return wkt, nil
}

func toAreas(recs []record) []model.Area {
	out := make([]model.Area, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toArea())
	}
	return out
}
