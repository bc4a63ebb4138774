// Package resolver maps free-form vendor queries to commodity records.
//
// Queries arrive the way vendors actually type or say them: "tomatoes",
// "tamatar ka bhav", "aaj pyaz ka rate". Resolution proceeds in two stages:
//
//  1. Normalization: the query is lowercased, punctuation becomes whitespace,
//     runs of whitespace collapse, and market filler words ("bhav", "price",
//     "ka", "aaj", ...) are dropped so only the commodity words remain.
//
//  2. Scoring: the normalized query is scored against every name, alias and
//     local name in the catalog. Exact equality scores 1.0, containment in
//     either direction 0.8, anything else the Jaccard similarity of the two
//     rune sets. The best score wins if it strictly exceeds the threshold
//     (default 0.5); ties keep the first maximum in catalog order so results
//     are stable across runs.
//
// For queries that miss the threshold, [Resolver.Suggest] ranks did-you-mean
// candidates by Jaro-Winkler similarity for the caller's error message.
package resolver

import (
	"strings"
	"unicode"

	"github.com/mandika-app/mandika/internal/catalog"
)

const defaultThreshold = 0.5

// defaultFiller are the query words normalization drops before scoring:
// price words in English, Hindi and common transliterations, plus generic
// question words. A query consisting only of filler resolves to nothing.
var defaultFiller = []string{
	"price", "rate", "cost", "value",
	"bhav", "bhaav", "daam", "dam", "keemat", "kimat", "dar", "mol", "mulya",
	"भाव", "दाम", "कीमत", "दर", "मूल्य",
	"of", "for", "ka", "ki", "kya", "what", "today", "aaj",
}

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithThreshold sets the score a match must strictly exceed to be accepted.
// Default: 0.5.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) {
		r.threshold = threshold
	}
}

// WithFillerWords replaces the default filler word set dropped during query
// normalization.
func WithFillerWords(words ...string) Option {
	return func(r *Resolver) {
		r.filler = make(map[string]struct{}, len(words))
		for _, w := range words {
			r.filler[strings.ToLower(w)] = struct{}{}
		}
	}
}

// Match is a successful resolution.
type Match struct {
	// Commodity is the resolved record.
	Commodity catalog.Commodity

	// Score is the similarity that won, in (threshold, 1].
	Score float64

	// MatchedOn is the name, alias or local name that produced the score,
	// in its original casing.
	MatchedOn string
}

// candidate is one precomputed match string of a record.
type candidate struct {
	norm    string
	display string
}

// Resolver scores queries against a fixed catalog. It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	records    []catalog.Commodity
	candidates [][]candidate
	threshold  float64
	filler     map[string]struct{}
}

// New returns a [Resolver] over the given catalog. Match strings are
// normalized once up front so each Resolve call only scores.
func New(cat *catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		records:   cat.All(),
		threshold: defaultThreshold,
	}
	WithFillerWords(defaultFiller...)(r)
	for _, o := range opts {
		o(r)
	}

	r.candidates = make([][]candidate, len(r.records))
	for i, rec := range r.records {
		for _, s := range rec.MatchStrings() {
			if n := fold(s); n != "" {
				r.candidates[i] = append(r.candidates[i], candidate{norm: n, display: s})
			}
		}
	}
	return r
}

// Resolve finds the catalog record best matching query. The boolean is false
// when the query is empty after normalization or no record scores above the
// threshold.
func (r *Resolver) Resolve(query string) (Match, bool) {
	q := r.normalizeQuery(query)
	if q == "" {
		return Match{}, false
	}

	var best Match
	for i, cands := range r.candidates {
		for _, c := range cands {
			s := score(q, c.norm)
			if s > best.Score {
				best = Match{Commodity: r.records[i], Score: s, MatchedOn: c.display}
			}
		}
	}

	if best.Score > r.threshold {
		return best, true
	}
	return Match{}, false
}

// normalizeQuery folds the query and drops filler words.
func (r *Resolver) normalizeQuery(query string) string {
	fields := strings.Fields(fold(query))
	kept := fields[:0]
	for _, f := range fields {
		if _, skip := r.filler[f]; !skip {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// fold lowercases s, turns punctuation and symbols into spaces and collapses
// whitespace runs.
func fold(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// score rates a normalized query against a normalized candidate.
func score(query, cand string) float64 {
	if query == cand {
		return 1.0
	}
	if strings.Contains(cand, query) || strings.Contains(query, cand) {
		return 0.8
	}
	return jaccard(query, cand)
}

// jaccard computes intersection over union of the rune sets of the two
// strings.
func jaccard(a, b string) float64 {
	as := runeSet(a)
	bs := runeSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for r := range as {
		if _, ok := bs[r]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
