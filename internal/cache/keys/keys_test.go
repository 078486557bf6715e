package keys

import (
	"strings"
	"testing"
)

func TestSearch_DeterministicAcrossOrdering(t *testing.T) {
	a := Search("bbox", []string{"nvr", "natura"}, []string{"cellB", "cellA"}, "10,55,12,57")
	b := Search("bbox", []string{"natura", "nvr"}, []string{"cellA", "cellB"}, "10,55,12,57")
	if a != b {
		t.Fatalf("key depends on input order:\n%s\n%s", a, b)
	}
}

func TestSearch_DistinguishesModeAndQuery(t *testing.T) {
	srcs := []string{"nvr"}
	if Search("name", srcs, nil, "abisko") == Search("name", srcs, nil, "tyresta") {
		t.Fatalf("different queries collided")
	}
	if Search("name", srcs, nil, "x") == Search("bbox", srcs, nil, "x") {
		t.Fatalf("different modes collided")
	}
}

func TestSearch_LongQueryStaysBounded(t *testing.T) {
	long := strings.Repeat("a", 500)
	k := Search("name", []string{"nvr"}, nil, long)
	if len(k) > 200 {
		t.Fatalf("key too long: %d", len(k))
	}
	// distinct long queries with the same truncated text still differ via the hash
	other := Search("name", []string{"nvr"}, nil, long+"b")
	if k == other {
		t.Fatalf("truncated queries collided")
	}
}

func TestSearch_SanitizesQueryText(t *testing.T) {
	k := Search("name", []string{"nvr"}, nil, "abisko\nnational   park\x00ö")
	if strings.ContainsAny(k, " \n\x00") {
		t.Fatalf("unsafe characters in key: %q", k)
	}
	for _, r := range k {
		if r > 127 {
			t.Fatalf("non-ASCII rune %q in key %q", r, k)
		}
	}
}

func TestDetail_SharesPrefixAcrossTolerances(t *testing.T) {
	p := DetailPrefix("nvr", "2001234")
	k1 := Detail("nvr", "2001234", 0.001)
	k2 := Detail("nvr", "2001234", 0.05)
	if !strings.HasPrefix(k1, p) || !strings.HasPrefix(k2, p) {
		t.Fatalf("detail keys do not share the prefix %q: %q %q", p, k1, k2)
	}
	if k1 == k2 {
		t.Fatalf("tolerance variants collided")
	}
}

func TestIndexSetNames(t *testing.T) {
	if got := SourceSet("nvr"); got != "idx:src:nvr" {
		t.Fatalf("SourceSet = %q", got)
	}
	if got := CellSet("841f059ffffffff"); got != "idx:cell:841f059ffffffff" {
		t.Fatalf("CellSet = %q", got)
	}
}
