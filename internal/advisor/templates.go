package advisor

import (
	"fmt"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/currency"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/hi"

	"github.com/mandika-app/mandika/pkg/lang"
)

type phraseKey struct {
	kind Kind
	code lang.Code
}

// phrases holds the phrasing sets per (kind, language). Counter and reject
// phrasings carry exactly one %s for the formatted price; accept and info
// phrasings stand alone. Languages without a set of their own phrase in
// [lang.Default].
var phrases = map[phraseKey][]string{
	{KindCounter, lang.English}: {
		"How about %s? That should work for both of us.",
		"I can come to %s, that is my best rate.",
	},
	{KindReject, lang.English}: {
		"That is too low for today's market. I cannot go below %s.",
		"At that price I make a loss. %s is my floor today.",
	},
	{KindAccept, lang.English}: {
		"Deal. Let us close at your price.",
		"Accepted, that is a fair offer.",
	},
	{KindInfo, lang.English}: {
		"I have no reliable market rate for this right now. Price from your cost plus your usual margin.",
		"No current rate on hand for this one. Start from cost and add your margin.",
	},

	{KindCounter, lang.Hindi}: {
		"%s ठीक रहेगा? दोनों के लिए सही भाव है।",
		"%s तक आ सकता हूँ, यही सही भाव है।",
	},
	{KindReject, lang.Hindi}: {
		"यह भाव बहुत कम है। %s से नीचे नहीं दे पाऊँगा।",
		"इस भाव पर घाटा होगा। आज %s से कम नहीं।",
	},
	{KindAccept, lang.Hindi}: {
		"सौदा पक्का। आपके भाव पर दे देता हूँ।",
		"ठीक है, यह भाव सही है।",
	},
	{KindInfo, lang.Hindi}: {
		"इसका आज का भाव मेरे पास नहीं है। अपनी लागत पर मुनाफ़ा जोड़कर भाव लगाइए।",
		"ताज़ा भाव नहीं मिला। लागत से ऊपर ही भाव रखिए।",
	},
}

// formatters renders prices per phrasing language. The Hindi locale applies
// lakh grouping (₹1,05,000), the English locale thousands grouping.
var formatters = map[lang.Code]locales.Translator{
	lang.English: en.New(),
	lang.Hindi:   hi.New(),
}

// phrase picks one phrasing of kind in the buyer's language and fills in the
// price when one is present.
func (ad *Advisor) phrase(kind Kind, code lang.Code, price float64) string {
	code = lang.Normalize(code)
	set, ok := phrases[phraseKey{kind: kind, code: code}]
	if !ok {
		code = lang.Default
		set = phrases[phraseKey{kind: kind, code: code}]
	}
	p := set[ad.pick(len(set))]
	if price <= 0 {
		return p
	}
	return fmt.Sprintf(p, formatPrice(price, code))
}

// formatPrice renders price as Indian rupees in the given phrasing language.
func formatPrice(price float64, code lang.Code) string {
	f, ok := formatters[code]
	if !ok {
		f = formatters[lang.Default]
	}
	return f.FmtCurrency(price, 0, currency.INR)
}
