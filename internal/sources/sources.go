// Package sources defines the upstream registry interface and a name-keyed
// factory registry for the concrete clients.
package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"naturatlas/internal/config"
	"naturatlas/internal/model"
)

// ErrNoGeoSearch is returned by sources without a geographic query
// endpoint when asked for a bbox search.
var ErrNoGeoSearch = errors.New("source has no geographic search endpoint")

// Source is one upstream protected-area registry.
type Source interface {
	Name() string
	SearchByName(ctx context.Context, q string) ([]model.Area, error)
	SearchByBBox(ctx context.Context, b model.WGS84BBox) ([]model.Area, error)
	Detail(ctx context.Context, id string) (model.AreaDetail, error)
	// Extent returns the raw extent geometry for one area as WKT text.
	Extent(ctx context.Context, id string) (string, error)
}

type Factory func(cfg config.Config, logger *slog.Logger, hc *http.Client) (Source, error)

var reg = map[string]Factory{}

func Register(name string, f Factory) {
	reg[name] = f
}

// New constructs one registered source by name.
func New(name string, cfg config.Config, logger *slog.Logger, hc *http.Client) (Source, error) {
	f, ok := reg[name]
	if !ok {
		return nil, fmt.Errorf("no factory for source %q", name)
	}
	return f(cfg, logger, hc)
}

// All constructs every registered source, in stable name order.
func All(cfg config.Config, logger *slog.Logger, hc *http.Client) ([]Source, error) {
	names := make([]string, 0, len(reg))
	for n := range reg {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]Source, 0, len(names))
	for _, n := range names {
		s, err := New(n, cfg, logger, hc)
		if err != nil {
			return nil, fmt.Errorf("construct source %s: %w", n, err)
		}
		out = append(out, s)
	}
	return out, nil
}
