package memcache

import (
	"fmt"
	"testing"

	"naturatlas/internal/cache/keys"
	"naturatlas/internal/model"
)

func TestAddGet(t *testing.T) {
	c, err := New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	d := model.AreaDetail{
		Area:        model.Area{ID: "1", Source: "nvr", Name: "Tyresta"},
		GeometryWKT: "POLYGON ((18 59, 18.1 59, 18.1 59.1, 18 59))",
	}
	key := keys.Detail("nvr", "1", 0.001)
	c.Add(key, d)

	got, ok := c.Get(key)
	if !ok || got.Name != "Tyresta" {
		t.Fatalf("Get = %+v ok=%v", got, ok)
	}
	if _, ok := c.Get(keys.Detail("nvr", "1", 0.05)); ok {
		t.Fatalf("unexpected hit for different tolerance")
	}
}

func TestDropArea_EvictsAllTolerances(t *testing.T) {
	c, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, tol := range []float64{0.001, 0.01, 0.05} {
		c.Add(keys.Detail("nvr", "1", tol), model.AreaDetail{})
	}
	c.Add(keys.Detail("nvr", "2", 0.001), model.AreaDetail{})
	c.Add(keys.Detail("natura", "1", 0.001), model.AreaDetail{})

	c.DropArea(keys.DetailPrefix("nvr", "1"))

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get(keys.Detail("nvr", "2", 0.001)); !ok {
		t.Fatalf("sibling area evicted")
	}
	if _, ok := c.Get(keys.Detail("natura", "1", 0.001)); !ok {
		t.Fatalf("same id under another source evicted")
	}
}

func TestSizeBound(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 10; i++ {
		c.Add(fmt.Sprintf("detail:nvr:%d:t=0.001", i), model.AreaDetail{})
	}
	if c.Len() != 4 {
		t.Fatalf("Len = %d, want 4", c.Len())
	}
}
