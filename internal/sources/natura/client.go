// Package natura is the client for the EU Natura 2000 registry. Its native
// identifier field is sitecode, renamed to the canonical id during tagging.
package natura

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

const SourceName = "natura"

func init() {
	sources.Register(SourceName, newClient)
}

type Client struct {
	api *httpclient.Client
	log *slog.Logger
}

func newClient(cfg config.Config, logger *slog.Logger, hc *http.Client) (sources.Source, error) {
	api, err := httpclient.New(SourceName, cfg.Natura.BaseURL, hc, cfg.Natura.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, log: logger}, nil
}

func (c *Client) Name() string { return SourceName }

type site struct {
	Sitecode string  `json:"sitecode"`
	Sitename string  `json:"sitename"`
	Sitetype string  `json:"sitetype"`
	AreaHa   float64 `json:"areaHa"`
}

func (s site) toArea() model.Area {
	return model.Area{
		ID:          s.Sitecode,
		Source:      SourceName,
		Name:        s.Sitename,
		Designation: s.Sitetype,
		AreaHa:      s.AreaHa,
	}
}

func (c *Client) SearchByName(ctx context.Context, q string) ([]model.Area, error) {
	params := url.Values{}
	params.Set("sitename", q)
	return c.search(ctx, params)
}

func (c *Client) SearchByBBox(ctx context.Context, b model.WGS84BBox) ([]model.Area, error) {
	params := url.Values{}
	params.Set("bbox", b.String())
	return c.search(ctx, params)
}

func (c *Client) search(ctx context.Context, params url.Values) ([]model.Area, error) {
	var resp struct {
		Sites []site `json:"sites"`
	}
	if err := c.api.GetJSON(ctx, "/sites", params, &resp); err != nil {
		return nil, err
	}
	out := make([]model.Area, 0, len(resp.Sites))
	for _, s := range resp.Sites {
		out = append(out, s.toArea())
	}
	return out, nil
}

func (c *Client) Detail(ctx context.Context, id string) (model.AreaDetail, error) {
	var resp struct {
		site
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
