// Package aggregator fans one logical request out to every applicable
// registry concurrently and merges the per-source outcomes.
//
// Each source settles independently: a failure becomes a SourceError entry
// in the result, never an error from the aggregate operation itself, and
// never a reason to cancel a sibling call.
package aggregator

import (
	"context"
	"log/slog"
	"sync"

	"naturatlas/internal/errs"
	"naturatlas/internal/geo/bbox"
	"naturatlas/internal/model"
	"naturatlas/internal/observability"
	"naturatlas/internal/sources"
)

type Aggregator struct {
	srcs []sources.Source
	log  *slog.Logger
}

func New(srcs []sources.Source, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{srcs: srcs, log: logger}
}

// sourceResult is one settled branch of a fan-out.
type sourceResult struct {
	areas []model.Area
	err   error
}

// Search runs req against every applicable source and merges the results.
// The same physical place may legitimately appear under several sources
// (overlapping protection regimes); repeats are kept.
func (a *Aggregator) Search(ctx context.Context, req model.SearchRequest) model.AggregatedResult {
	applicable := a.applicable(req.Mode)

	results := make([]sourceResult, len(applicable))
	var wg sync.WaitGroup
	for i, src := range applicable {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			var areas []model.Area
			var err error
			switch req.Mode {
			case model.SearchByBBox:
				areas, err = src.SearchByBBox(ctx, *req.BBox)
			default:
				areas, err = src.SearchByName(ctx, req.Query)
			}
			results[i] = sourceResult{areas: areas, err: err}
		}(i, src)
	}
	wg.Wait()

	out := model.AggregatedResult{
		Areas:  make([]model.Area, 0, 32),
		Counts: make(map[string]int, len(applicable)),
		Errors: []model.SourceError{},
	}
	for i, src := range applicable {
		res := results[i]
		observability.IncSourceResult(src.Name(), res.err == nil)
		if res.err != nil {
			a.log.Warn("source failed", "source", src.Name(), "err", res.err)
			out.Errors = append(out.Errors, model.SourceError{
				Source:  src.Name(),
				Message: res.err.Error(),
			})
			continue
		}
		out.Areas = append(out.Areas, res.areas...)
		out.Counts[src.Name()] = len(res.areas)
		out.TotalCount += len(res.areas)
	}
	return out
}

// CombinedExtent fetches the extent of every referenced area concurrently,
// reduces each to a bounding box and combines the boxes. Refs whose source
// fails are reported in errors; the combined box covers what succeeded.
// With an empty refs list a ValidationError is returned before any I/O.
func (a *Aggregator) CombinedExtent(ctx context.Context, refs []model.AreaRef) (model.WGS84BBox, []model.SourceError, error) {
	if len(refs) == 0 {
		return model.WGS84BBox{}, nil, errs.Validation("refs", "at least one source:id reference is required")
	}

	byName := make(map[string]sources.Source, len(a.srcs))
	for _, s := range a.srcs {
		byName[s.Name()] = s
	}

	type extentResult struct {
		box model.WGS84BBox
		err error
	}
	results := make([]extentResult, len(refs))

	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref model.AreaRef) {
			defer wg.Done()
			src, ok := byName[ref.Source]
			if !ok {
				results[i] = extentResult{err: errs.Validation("refs", "unknown source %q", ref.Source)}
				return
			}
			wkt, err := src.Extent(ctx, ref.ID)
			if err != nil {
				results[i] = extentResult{err: err}
				return
			}
			// the upstream aggregation defect can mangle ring structure, so
			// the box is recovered by the tolerant flat scan
			box, err := bbox.Extract(wkt)
			results[i] = extentResult{box: box, err: err}
		}(i, ref)
	}
	wg.Wait()

	boxes := make([]model.WGS84BBox, 0, len(refs))
	var srcErrs []model.SourceError
	for i, ref := range refs {
		if err := results[i].err; err != nil {
			srcErrs = append(srcErrs, model.SourceError{Source: ref.Source, Message: err.Error()})
			continue
		}
		boxes = append(boxes, results[i].box)
	}

	combined, err := bbox.Combine(boxes)
	if err != nil {
		// every ref failed; srcErrs tells the caller why
		return model.WGS84BBox{}, srcErrs, err
	}
	return combined, srcErrs, nil
}

// applicable returns the sources that can serve the given mode. Name
// queries go to every source; bbox queries only to those with a geographic
// endpoint.
func (a *Aggregator) applicable(mode model.SearchMode) []sources.Source {
	if mode != model.SearchByBBox {
		return a.srcs
	}
	out := make([]sources.Source, 0, len(a.srcs))
	for _, s := range a.srcs {
		if hasGeoSearch(s) {
			out = append(out, s)
		}
	}
	return out
}

// hasGeoSearch probes statically-declared capability: sources without a
// geographic endpoint answer ErrNoGeoSearch without touching the network.
func hasGeoSearch(s sources.Source) bool {
	type geoCapable interface{ HasGeoSearch() bool }
	if gc, ok := s.(geoCapable); ok {
		return gc.HasGeoSearch()
	}
	return true
}
