// Package phrasebook provides an offline translator.Backend backed by a
// static market-vocabulary dictionary.
//
// The backend covers English, Hindi, and Marathi and works phrase-by-phrase:
// the input is split into whitespace tokens, the longest dictionary phrase
// starting at each position wins, and anything the dictionary does not know
// (names, numerals, placeholder tokens) passes through untouched. Punctuation
// attached to a token is kept in place around the translated core.
//
// It never returns an error and involves no network, which makes it the
// fallback engine when no online service is configured and a convenient
// deterministic backend for tests.
package phrasebook

import (
	"context"
	"strings"
	"unicode"

	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
)

// row is one concept across the supported languages. An empty cell means the
// concept has no entry in that language and is skipped for pairs touching it.
type row struct {
	en, hi, mr string
}

// rows is the bundled market vocabulary. Order matters only for collisions:
// when two rows share a source word the earlier row wins.
var rows = []row{
	{"price", "भाव", "भाव"},
	{"rate", "दर", "दर"},
	{"market", "बाज़ार", "बाजार"},
	{"onion", "प्याज़", "कांदा"},
	{"tomato", "टमाटर", "टोमॅटो"},
	{"potato", "आलू", "बटाटा"},
	{"fresh", "ताज़ा", "ताजे"},
	{"good", "अच्छा", "चांगला"},
	{"cheap", "सस्ता", "स्वस्त"},
	{"expensive", "महंगा", "महाग"},
	{"today", "आज", "आज"},
	{"yes", "हाँ", "हो"},
	{"no", "नहीं", "नाही"},
	{"how much", "कितना", "किती"},
	{"per", "प्रति", "प्रति"},
	{"is", "है", "आहे"},
	{"give", "दो", "द्या"},
	{"take", "लो", "घ्या"},
	{"brother", "भैया", "दादा"},
	{"thank you", "धन्यवाद", "धन्यवाद"},
	{"deal", "सौदा", "सौदा"},
	{"final", "आख़िरी", "शेवटचा"},
	{"quality", "गुणवत्ता", "दर्जा"},
	{"discount", "छूट", "सूट"},
	{"little", "थोड़ा", "थोडा"},
	{"more", "ज़्यादा", "जास्त"},
	{"less", "कम", "कमी"},
	{"okay", "ठीक", "ठीक"},
	{"what", "क्या", "काय"},
}

// pair identifies one translation direction.
type pair struct {
	from, to lang.Code
}

// Backend is an offline dictionary translator for en, hi, and mr.
// It is safe for concurrent use; all state is read-only after construction.
type Backend struct {
	dicts   map[pair]map[string]string
	maxLens map[pair]int
}

// New builds the per-direction lookup tables from the bundled vocabulary.
func New() *Backend {
	fields := map[lang.Code]func(row) string{
		lang.English: func(r row) string { return r.en },
		lang.Hindi:   func(r row) string { return r.hi },
		lang.Marathi: func(r row) string { return r.mr },
	}

	b := &Backend{
		dicts:   make(map[pair]map[string]string),
		maxLens: make(map[pair]int),
	}
	for from, src := range fields {
		for to, dst := range fields {
			if from == to {
				continue
			}
			p := pair{from: from, to: to}
			dict := make(map[string]string, len(rows))
			maxLen := 1
			for _, r := range rows {
				s, d := src(r), dst(r)
				if s == "" || d == "" {
					continue
				}
				key := strings.ToLower(s)
				if _, taken := dict[key]; taken {
					continue
				}
				dict[key] = d
				if n := len(strings.Fields(key)); n > maxLen {
					maxLen = n
				}
			}
			b.dicts[p] = dict
			b.maxLens[p] = maxLen
		}
	}
	return b
}

// Translate renders text word-by-word (longest phrase first) into the target
// language. Unknown tokens and unsupported language pairs pass through
// unchanged. It never returns an error.
func (b *Backend) Translate(_ context.Context, text string, from, to lang.Code) (string, error) {
	from, to = lang.Normalize(from), lang.Normalize(to)
	if from == to {
		return text, nil
	}
	dict, ok := b.dicts[pair{from: from, to: to}]
	if !ok {
		return text, nil
	}
	maxLen := b.maxLens[pair{from: from, to: to}]

	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		matched := false
		limit := min(maxLen, len(tokens)-i)
		for n := limit; n >= 1; n-- {
			key := phraseKey(tokens[i : i+n])
			dst, found := dict[key]
			if !found {
				continue
			}
			lead, _, _ := splitToken(tokens[i])
			_, _, trail := splitToken(tokens[i+n-1])
			out = append(out, lead+dst+trail)
			i += n
			matched = true
			break
		}
		if !matched {
			out = append(out, tokens[i])
			i++
		}
	}
	return strings.Join(out, " "), nil
}

// phraseKey joins the lowercased cores of tokens into a dictionary key.
func phraseKey(tokens []string) string {
	cores := make([]string, len(tokens))
	for i, t := range tokens {
		_, core, _ := splitToken(t)
		cores[i] = strings.ToLower(core)
	}
	return strings.Join(cores, " ")
}

// splitToken peels leading and trailing punctuation off a token so "price?"
// can match the dictionary entry for "price" and keep its question mark.
func splitToken(tok string) (lead, core, trail string) {
	runes := []rune(tok)
	start, end := 0, len(runes)
	for start < end && unicode.IsPunct(runes[start]) {
		start++
	}
	for end > start && unicode.IsPunct(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

// Ensure Backend implements translator.Backend at compile time.
var _ translator.Backend = (*Backend)(nil)
