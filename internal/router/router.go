// Package router validates incoming requests and serves the API handlers.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"naturatlas/internal/aggregator"
	"naturatlas/internal/cache"
	"naturatlas/internal/cache/cellindex"
	"naturatlas/internal/cache/keys"
	"naturatlas/internal/cache/memcache"
	"naturatlas/internal/errs"
	"naturatlas/internal/geo/bbox"
	"naturatlas/internal/geo/simplify"
	"naturatlas/internal/mapper/cellcover"
	"naturatlas/internal/model"
	"naturatlas/internal/observability"
	"naturatlas/internal/sources"
)

// CacheSet bundles the optional search-cache dependencies. A nil CacheSet
// (or nil Store) means every request goes straight upstream.
type CacheSet struct {
	Store     cache.Interface
	Index     *cellindex.Index
	Mapper    *cellcover.Mapper
	TTL       time.Duration
	OpTimeout time.Duration
}

type Handlers struct {
	logger *slog.Logger
	agg    *aggregator.Aggregator
	srcs   map[string]sources.Source
	cache  *CacheSet
	detail *memcache.DetailCache
}

func NewHandlers(logger *slog.Logger, agg *aggregator.Aggregator, srcs []sources.Source, cs *CacheSet, detail *memcache.DetailCache) *Handlers {
	byName := make(map[string]sources.Source, len(srcs))
	for _, s := range srcs {
		byName[s.Name()] = s
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{logger: logger, agg: agg, srcs: byName, cache: cs, detail: detail}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func observe(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

// Search validates and serves GET /search.
func (h *Handlers) Search() http.HandlerFunc {
	return observe("/search", func(w http.ResponseWriter, r *http.Request) {
		req, err := ParseSearchRequest(r)
		if err != nil {
			h.writeError(w, err)
			return
		}

		key, cells, cacheable := h.searchKey(req)
		if cacheable {
			if raw, ok := h.cacheGet(r.Context(), key); ok {
				writeRawJSON(w, raw)
				return
			}
		}

		res := h.agg.Search(r.Context(), req)

		raw, err := json.Marshal(res)
		if err != nil {
			h.writeError(w, fmt.Errorf("marshal result: %w", err))
			return
		}
		// only complete results are cached; a cached partial failure would
		// pin the gap until expiry
		if cacheable && len(res.Errors) == 0 {
			h.cachePut(r.Context(), key, raw, res, cells)
		}
		writeRawJSON(w, raw)
	})
}

// Detail serves GET /areas/{source}/{id}.
func (h *Handlers) Detail() http.HandlerFunc {
	return observe("/areas/{source}/{id}", func(w http.ResponseWriter, r *http.Request) {
		src, ok := h.srcs[chi.URLParam(r, "source")]
		if !ok {
			h.writeError(w, errs.Validation("source", "unknown source %q", chi.URLParam(r, "source")))
			return
		}
		id := chi.URLParam(r, "id")

		tolerance := simplify.DefaultTolerance
		if raw := strings.TrimSpace(r.URL.Query().Get("tolerance")); raw != "" {
			t, err := strconv.ParseFloat(raw, 64)
			if err != nil || t < 0 {
				h.writeError(w, errs.Validation("tolerance", "must be a non-negative number, got %q", raw))
				return
			}
			tolerance = t
		}

		key := keys.Detail(src.Name(), id, tolerance)
		if h.detail != nil {
			if d, ok := h.detail.Get(key); ok {
				writeJSON(w, http.StatusOK, d)
				return
			}
		}

		d, err := src.Detail(r.Context(), id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if d.GeometryWKT != "" {
			d.GeometryWKT = simplify.WKT(d.GeometryWKT, tolerance)
		}
		if h.detail != nil {
			h.detail.Add(key, d)
		}
		writeJSON(w, http.StatusOK, d)
	})
}

// AreaExtent serves GET /areas/{source}/{id}/extent.
func (h *Handlers) AreaExtent() http.HandlerFunc {
	return observe("/areas/{source}/{id}/extent", func(w http.ResponseWriter, r *http.Request) {
		src, ok := h.srcs[chi.URLParam(r, "source")]
		if !ok {
			h.writeError(w, errs.Validation("source", "unknown source %q", chi.URLParam(r, "source")))
			return
		}

		wkt, err := src.Extent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		box, err := bbox.Extract(wkt)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, extentResponse{BBox: box, WKT: bbox.ToWKT(box)})
	})
}

// CombinedExtent serves GET /extent?refs=source:id,source:id.
func (h *Handlers) CombinedExtent() http.HandlerFunc {
	return observe("/extent", func(w http.ResponseWriter, r *http.Request) {
		refs, err := parseRefs(r.URL.Query().Get("refs"))
		if err != nil {
			h.writeError(w, err)
			return
		}

		box, srcErrs, err := h.agg.CombinedExtent(r.Context(), refs)
		if err != nil {
			var ge *errs.GeometryError
			if errors.As(err, &ge) && len(srcErrs) > 0 {
				// every ref failed upstream; report them all
				writeJSON(w, http.StatusBadGateway, struct {
					Errors []model.SourceError `json:"errors"`
				}{Errors: srcErrs})
				return
			}
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, combinedExtentResponse{
			BBox:   box,
			WKT:    bbox.ToWKT(box),
			Errors: srcErrs,
		})
	})
}

type extentResponse struct {
	BBox model.WGS84BBox `json:"bbox"`
	WKT  string          `json:"wkt"`
}

type combinedExtentResponse struct {
	BBox   model.WGS84BBox     `json:"bbox"`
	WKT    string              `json:"wkt"`
	Errors []model.SourceError `json:"errors"`
}

// ParseSearchRequest validates GET /search query parameters. Exactly one
// of q and bbox must be present.
func ParseSearchRequest(r *http.Request) (model.SearchRequest, error) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	rawBBox := strings.TrimSpace(r.URL.Query().Get("bbox"))

	switch {
	case q == "" && rawBBox == "":
		return model.SearchRequest{}, errs.Validation("query", "one of q or bbox is required")
	case q != "" && rawBBox != "":
		return model.SearchRequest{}, errs.Validation("query", "q and bbox are mutually exclusive")
	case q != "":
		return model.SearchRequest{Mode: model.SearchByName, Query: q}, nil
	}

	b, err := parseBBox(rawBBox)
	if err != nil {
		return model.SearchRequest{}, err
	}
	return model.SearchRequest{Mode: model.SearchByBBox, BBox: &b}, nil
}

func parseBBox(raw string) (model.WGS84BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.WGS84BBox{}, errs.Validation("bbox", "expected 4 comma-separated values: minLon,minLat,maxLon,maxLat")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.WGS84BBox{}, errs.Validation("bbox", "value %d is not a number", i+1)
		}
		vals[i] = f
	}
	b := model.WGS84BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}

	if !(b.MinLon >= -180 && b.MinLon <= 180 && b.MaxLon >= -180 && b.MaxLon <= 180) {
		return model.WGS84BBox{}, errs.Validation("bbox", "longitude must be in [-180,180]")
	}
	if !(b.MinLat >= -90 && b.MinLat <= 90 && b.MaxLat >= -90 && b.MaxLat <= 90) {
		return model.WGS84BBox{}, errs.Validation("bbox", "latitude must be in [-90,90]")
	}
	if b.MaxLon <= b.MinLon || b.MaxLat <= b.MinLat {
		return model.WGS84BBox{}, errs.Validation("bbox", "must satisfy maxLon>minLon and maxLat>minLat")
	}
	return b, nil
}

func parseRefs(raw string) ([]model.AreaRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errs.Validation("refs", "at least one source:id reference is required")
	}
	parts := strings.Split(raw, ",")
	refs := make([]model.AreaRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		src, id, ok := strings.Cut(p, ":")
		if !ok || src == "" || id == "" {
			return nil, errs.Validation("refs", "malformed reference %q (want source:id)", p)
		}
		refs = append(refs, model.AreaRef{Source: src, ID: id})
	}
	if len(refs) == 0 {
		return nil, errs.Validation("refs", "at least one source:id reference is required")
	}
	return refs, nil
}

// searchKey derives the cache key and cell cover for a request. Bbox
// requests whose cover cannot be computed are served uncached.
func (h *Handlers) searchKey(req model.SearchRequest) (string, []string, bool) {
	if h.cache == nil || h.cache.Store == nil {
		return "", nil, false
	}
	srcNames := make([]string, 0, len(h.srcs))
	for n := range h.srcs {
		srcNames = append(srcNames, n)
	}

	switch req.Mode {
	case model.SearchByBBox:
		cells, err := h.cache.Mapper.CellsForBBox(*req.BBox)
		if err != nil {
			h.logger.Warn("cell cover failed; serving uncached", "err", err)
			return "", nil, false
		}
		return keys.Search("bbox", srcNames, cells, req.BBox.String()), cells, true
	default:
		return keys.Search("name", srcNames, nil, req.Query), nil, true
	}
}

// opCtx bounds one cache round trip so a slow cache never stalls the
// request path.
func (h *Handlers) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cache.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.cache.OpTimeout)
}

func (h *Handlers) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := h.opCtx(ctx)
	defer cancel()
	raw, ok, err := h.cache.Store.Get(ctx, key)
	if err != nil {
		h.logger.Warn("cache get failed; serving uncached", "err", err)
		return nil, false
	}
	return raw, ok
}

func (h *Handlers) cachePut(ctx context.Context, key string, raw []byte, res model.AggregatedResult, cells []string) {
	ctx, cancel := h.opCtx(ctx)
	defer cancel()
	if err := h.cache.Store.Set(ctx, key, raw, h.cache.TTL); err != nil {
		h.logger.Warn("cache set failed", "err", err)
		return
	}
	if h.cache.Index == nil {
		return
	}
	srcNames := make([]string, 0, len(res.Counts))
	for n := range res.Counts {
		srcNames = append(srcNames, n)
	}
	if err := h.cache.Index.Record(ctx, key, srcNames, cells, h.cache.TTL); err != nil {
		h.logger.Warn("cache index failed", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	type envelope struct {
		Error string `json:"error"`
		Field string `json:"field,omitempty"`
	}

	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, envelope{Error: ve.Error(), Field: ve.Field})
		return
	}
	var ge *errs.GeometryError
	if errors.As(err, &ge) {
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Error: ge.Error()})
		return
	}
	var ue *errs.UpstreamError
	if errors.As(err, &ue) {
		status := http.StatusBadGateway
		if ue.Status == 0 {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, envelope{Error: ue.Error()})
		return
	}

	h.logger.Error("internal error", "err", err)
	writeJSON(w, http.StatusInternalServerError, envelope{Error: "internal server error"})
}
