// Package cellindex maintains the reverse index from H3 cells and sources
// to the cached search keys that touched them.
package cellindex

import (
	"context"
	"fmt"
	"time"

	"naturatlas/internal/cache/keys"
	"naturatlas/internal/cache/rediscache"
)

type Index struct {
	cli *rediscache.Client
}

func New(cli *rediscache.Client) *Index {
	return &Index{cli: cli}
}

// Record registers a cached search key under its source sets and, for bbox
// searches, under every covering cell.
func (ix *Index) Record(ctx context.Context, searchKey string, srcNames, cells []string, ttl time.Duration) error {
	for _, s := range srcNames {
		if err := ix.cli.SAdd(ctx, keys.SourceSet(s), ttl, searchKey); err != nil {
			return fmt.Errorf("index source %s: %w", s, err)
		}
	}
	for _, c := range cells {
		if err := ix.cli.SAdd(ctx, keys.CellSet(c), ttl, searchKey); err != nil {
			return fmt.Errorf("index cell %s: %w", c, err)
		}
	}
	return nil
}

// KeysForCells returns the cached search keys recorded under any of the
// given cells, deduplicated.
func (ix *Index) KeysForCells(ctx context.Context, cells []string) ([]string, error) {
	return ix.collect(ctx, cellSets(cells))
}

// KeysForSource returns every cached search key that touched the source.
func (ix *Index) KeysForSource(ctx context.Context, source string) ([]string, error) {
	return ix.collect(ctx, []string{keys.SourceSet(source)})
}

func cellSets(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, keys.CellSet(c))
	}
	return out
}

func (ix *Index) collect(ctx context.Context, sets []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, set := range sets {
		members, err := ix.cli.SMembers(ctx, set)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}
