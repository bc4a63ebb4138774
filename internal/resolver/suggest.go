package resolver

import (
	"sort"

	"github.com/antzucaro/matchr"
)

const (
	defaultMinSimilarity = 0.6
	defaultMaxSuggest    = 3
)

// Suggestion is one did-you-mean candidate for a failed resolution.
type Suggestion struct {
	// ID and Name identify the suggested commodity.
	ID   string
	Name string

	// Similarity is the best Jaro-Winkler score across the record's match
	// strings, in [0.6, 1].
	Similarity float64
}

// Suggest ranks catalog records by Jaro-Winkler similarity to the query and
// returns at most max of them, best first. Records below 0.6 similarity are
// left out; ties keep catalog order. max values below 1 mean 3.
//
// Suggest is meant for the "not found, did you mean ..." message after
// [Resolver.Resolve] came up empty. It never consults the Resolve threshold.
func (r *Resolver) Suggest(query string, max int) []Suggestion {
	q := r.normalizeQuery(query)
	if q == "" {
		return nil
	}
	if max < 1 {
		max = defaultMaxSuggest
	}

	var out []Suggestion
	for i, cands := range r.candidates {
		best := 0.0
		for _, c := range cands {
			if s := matchr.JaroWinkler(q, c.norm, false); s > best {
				best = s
			}
		}
		if best >= defaultMinSimilarity {
			out = append(out, Suggestion{
				ID:         r.records[i].ID,
				Name:       r.records[i].Name,
				Similarity: best,
			})
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Similarity > out[b].Similarity
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}
