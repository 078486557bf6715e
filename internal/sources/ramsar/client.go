// Package ramsar is the client for the international Ramsar wetland
// registry. It offers name search and detail only; bbox searches return
// sources.ErrNoGeoSearch. Its native identifier field is ramsarId.
package ramsar

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"naturatlas/internal/config"
	"naturatlas/internal/httpclient"
	"naturatlas/internal/model"
	"naturatlas/internal/sources"
)

const SourceName = "ramsar"

func init() {
	sources.Register(SourceName, newClient)
}

type Client struct {
	api *httpclient.Client
	log *slog.Logger
}

func newClient(cfg config.Config, logger *slog.Logger, hc *http.Client) (sources.Source, error) {
	api, err := httpclient.New(SourceName, cfg.Ramsar.BaseURL, hc, cfg.Ramsar.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, log: logger}, nil
}

func (c *Client) Name() string { return SourceName }

type wetland struct {
	RamsarID       string  `json:"ramsarId"`
	Name           string  `json:"name"`
	AreaHa         float64 `json:"areaHa"`
	DesignatedDate string  `json:"designatedDate"`
}

func (s wetland) toArea() model.Area {
	return model.Area{
		ID:             s.RamsarID,
		Source:         SourceName,
		Name:           s.Name,
		Designation:    "ramsar site",
		AreaHa:         s.AreaHa,
		ProtectedSince: s.DesignatedDate,
	}
}

func (c *Client) SearchByName(ctx context.Context, q string) ([]model.Area, error) {
	params := url.Values{}
	params.Set("search", q)

	var recs []wetland
	if err := c.api.GetJSON(ctx, "/sites", params, &recs); err != nil {
		return nil, err
	}
	out := make([]model.Area, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toArea())
	}
	return out, nil
}

// SearchByBBox is unsupported: the registry has no geographic endpoint.
func (c *Client) SearchByBBox(_ context.Context, _ model.WGS84BBox) ([]model.Area, error) {
	return nil, sources.ErrNoGeoSearch
}

// HasGeoSearch marks this source as not applicable to bbox searches.
func (c *Client) HasGeoSearch() bool { return false }

func (c *Client) Detail(ctx context.Context, id string) (model.AreaDetail, error) {
	var resp struct {
		wetland
		GeometryWKT string `json:"geometryWkt"`
	}
	if err := c.api.GetJSON(ctx, "/sites/"+url.PathEscape(id), nil, &resp); err != nil {
		return model.AreaDetail{}, err
	}
	return model.AreaDetail{Area: resp.toArea(), GeometryWKT: resp.GeometryWKT}, nil
}

func (c *Client) Extent(ctx context.Context, id string) (string, error) {
	return c.api.GetText(ctx, "/sites/"+url.PathEscape(id)+"/extent", nil)
}
