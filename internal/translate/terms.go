package translate

import (
	"regexp"
	"strconv"
	"strings"
)

// currencyPattern matches a currency amount: a symbol or a textual
// abbreviation, optional whitespace, then digits with optional comma or
// space thousands separators and an optional decimal part. "₹500",
// "Rs. 1,05,000" and "usd 12.50" all match.
var currencyPattern = regexp.MustCompile(
	`(?i)(?:[₹$€£]|\b(?:rs\.?|inr|usd|eur|gbp))\s*\d+(?:[, ]\d+)*(?:\.\d+)?`,
)

// domainVocab is the fixed market vocabulary preserved verbatim across
// translation. Matching is case-insensitive on whole words. Entries are
// ASCII because the word-boundary assertion in the regexp engine only
// understands ASCII word characters; Devanagari commodity names reach the
// list through their romanised spellings.
var domainVocab = []string{
	// units and quantity words
	"kg", "kilo", "kilogram", "gram", "quintal", "dozen", "litre", "liter",
	"piece", "crate", "sack",
	// quality and grade words
	"grade", "quality", "premium",
	// market and transaction words
	"mandi", "bhav", "rate", "wholesale", "retail", "advance", "credit",
	"udhaar", "cash", "nagad",
	// commodity names, English and romanised Hindi
	"onion", "pyaaz", "pyaz", "tomato", "tamatar", "potato", "aloo",
	"okra", "bhindi", "brinjal", "baingan", "wheat", "gehu", "rice",
	"chawal", "dal", "garlic", "lahsun", "ginger", "adrak", "chilli",
	"mirch", "mango", "aam", "banana", "kela",
}

// vocabPattern matches any domainVocab entry as a whole word. The trailing
// word boundary stops "kilo" from matching inside "kilogram" regardless of
// alternation order.
var vocabPattern = regexp.MustCompile(
	`(?i)\b(?:` + strings.Join(quoteAll(domainVocab), "|") + `)\b`,
)

func quoteAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = regexp.QuoteMeta(w)
	}
	return out
}

// term is one preserved substring and the placeholder standing in for it.
type term struct {
	original    string
	placeholder string
}

// extraction is the placeholder-substituted working text together with the
// substitutions that produced it.
type extraction struct {
	working string
	terms   []term
}

// placeholderPrefix opens every placeholder token. extractTerms lengthens it
// until it does not occur in the input, which guarantees no token collides
// with pre-existing text.
const placeholderPrefix = "[[T"

// extractTerms replaces currency amounts, then domain vocabulary, with
// unique placeholder tokens. Terms are recorded in replacement order, which
// is also the order restoreTerms puts them back in.
func extractTerms(text string) extraction {
	prefix := placeholderPrefix
	for strings.Contains(text, prefix) {
		prefix += "T"
	}

	ex := extraction{working: text}
	next := func(match string) string {
		tok := prefix + strconv.Itoa(len(ex.terms)) + "]]"
		ex.terms = append(ex.terms, term{original: match, placeholder: tok})
		return tok
	}
	ex.working = currencyPattern.ReplaceAllStringFunc(ex.working, next)
	ex.working = vocabPattern.ReplaceAllStringFunc(ex.working, next)
	return ex
}

// restore swaps every placeholder in translated back for its original
// substring, in extraction order. Placeholders the backend dropped are
// simply absent; ones it duplicated are restored once.
func (ex extraction) restore(translated string) string {
	for _, t := range ex.terms {
		translated = strings.Replace(translated, t.placeholder, t.original, 1)
	}
	return translated
}

// originals returns the preserved substrings in extraction order.
func (ex extraction) originals() []string {
	if len(ex.terms) == 0 {
		return nil
	}
	out := make([]string, len(ex.terms))
	for i, t := range ex.terms {
		out[i] = t.original
	}
	return out
}
