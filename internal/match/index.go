package match

import (
	"sort"
	"strings"

	"github.com/banilabs/banitrack/pkg/corpus"
)

// invertedIndex maps normalized words to the library line indices containing
// them. It prefilters cold-start scans: only lines sharing at least one word
// with the query get scored, with a full scan as fallback when the query
// shares no vocabulary with the corpus.
type invertedIndex struct {
	postings map[string][]int
}

func buildIndex(lib *corpus.Library) *invertedIndex {
	idx := &invertedIndex{postings: make(map[string][]int)}
	for i := 0; i < lib.Len(); i++ {
		for _, w := range strings.Fields(lib.At(i).Normalized) {
			p := idx.postings[w]
			if n := len(p); n > 0 && p[n-1] == i {
				continue
			}
			idx.postings[w] = append(p, i)
		}
	}
	return idx
}

// candidates returns the sorted union of line indices sharing any word with
// the normalized query. An empty result means the prefilter has nothing to
// offer and the caller should fall back to a full scan.
func (idx *invertedIndex) candidates(normalizedQuery string) []int {
	seen := make(map[int]struct{})
	for _, w := range strings.Fields(normalizedQuery) {
		for _, i := range idx.postings[w] {
			seen[i] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	// Ascending order keeps tie-breaking deterministic: on equal scores the
	// lowest line index wins.
	sort.Ints(out)
	return out
}
