// Package keys builds deterministic, ASCII-safe cache keys for search
// responses.
package keys

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Search builds the key for one search-mode request. cells is the H3 cover
// for bbox searches (empty for name searches); q is the free-text query for
// name searches. The raw query text is hashed so the key stays bounded and
// safe regardless of input.
func Search(mode string, srcNames []string, cells []string, q string) string {
	names := append([]string(nil), srcNames...)
	sort.Strings(names)

	cellPart := "-"
	if len(cells) > 0 {
		cs := append([]string(nil), cells...)
		sort.Strings(cs)
		cellPart = strings.Join(cs, "_")
	}

	qSafe := sanitizeForKey(q)
	const maxQueryTextLen = 80
	if len(qSafe) > maxQueryTextLen {
		qSafe = qSafe[:maxQueryTextLen]
	}

	sum := xxhash.Sum64String(q)

	return fmt.Sprintf("search:%s:%s:%s:q=%s:h=%016x",
		mode, strings.Join(names, "+"), cellPart, qSafe, sum)
}

// Detail builds the key for one simplified detail geometry.
func Detail(source, id string, tolerance float64) string {
	return fmt.Sprintf("%st=%g", DetailPrefix(source, id), tolerance)
}

// DetailPrefix is the shared prefix of every tolerance variant of one
// area's detail key, used for prefix eviction on invalidation.
func DetailPrefix(source, id string) string {
	return fmt.Sprintf("detail:%s:%s:", source, sanitizeForKey(id))
}

// SourceSet names the redis set holding every search key that touched the
// given source, used for source-wide invalidation.
func SourceSet(source string) string {
	return "idx:src:" + sanitizeForKey(source)
}

// CellSet names the redis set holding every search key whose bbox cover
// includes the given cell.
func CellSet(cell string) string {
	return "idx:cell:" + sanitizeForKey(cell)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '=':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
