// Package lang defines the language codes shared across the Mandika core.
//
// Codes follow ISO 639-1 ("en", "hi", ...). The set below covers the markets
// Mandika ships phrase and dictionary data for; any other code is still legal
// on the wire and simply falls back to [Default] wherever localised content
// is needed.
package lang

import "strings"

// Code is a lowercase ISO 639-1 language code.
type Code string

const (
	// English is the default and fallback language.
	English Code = "en"

	// Hindi is the primary vernacular for the bundled catalog and phrasebook.
	Hindi Code = "hi"

	// Marathi is covered by the bundled phrasebook.
	Marathi Code = "mr"

	// Bengali is recognised but served via the [Default] fallback.
	Bengali Code = "bn"

	// Tamil is recognised but served via the [Default] fallback.
	Tamil Code = "ta"
)

// Default is the language used when a requested language has no localised
// content of its own.
const Default = English

// Known lists the codes Mandika recognises, in display order.
var Known = []Code{English, Hindi, Marathi, Bengali, Tamil}

// Normalize lowercases c and strips any region subtag ("en-US" becomes "en").
// The empty code normalises to [Default].
func Normalize(c Code) Code {
	s := strings.ToLower(strings.TrimSpace(string(c)))
	if s == "" {
		return Default
	}
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	return Code(s)
}

// IsKnown reports whether c (after normalisation) is one of the codes Mandika
// ships content for.
func (c Code) IsKnown() bool {
	n := Normalize(c)
	for _, k := range Known {
		if k == n {
			return true
		}
	}
	return false
}

// String returns the code as a plain string.
func (c Code) String() string { return string(c) }
