package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// UnidentifiedLocation replaces the "S/I" (sin identificar) location marker.
const UnidentifiedLocation = "Unidentified"

// Credit-statement rows look like
//
//	Las Condes 19/07/2025 Mercadopago *sociedad A2 89.990 89.990 01/01 sep-2025 89.990
//
// that is: place, date, description, optional transaction code, operation
// amount, total amount, installment n/m, billing period, installment charge.
// Extraction from PDFs often drops the whitespace between columns, which the
// condensed grammars allow for.

// tabularBody builds the part of a credit row from the date onwards.
func tabularBody(condensed, signed bool) string {
	amt := amountToken
	if signed {
		amt = `-?` + amountToken
	}
	if !condensed {
		return `(?P<date>` + fullDate + `)\s+(?P<desc>.+?)\s+` +
			`(?:(?P<code>[A-Z]{1,2}\d?)\s+)?` +
			`(?P<amount>` + amt + `)\s+(?P<total>` + amt + `)\s+` +
			`(?P<inst>` + installment + `)\s+(?P<period>` + periodToken + `)\s+` +
			`(?P<charge>` + amt + `)$`
	}
	return `(?P<date>` + fullDate + `)\s*(?P<desc>.+?)\s*` +
		`(?:(?P<code>[A-Z]{1,2}\d?)\s+|(?P<tcode>[A-Z]{1,2}))?` +
		`(?P<amount>` + amt + `)\s*(?P<total>` + amt + `)\s*` +
		`(?P<inst>` + installment + `)\s*(?P<period>` + periodToken + `)\s*` +
		`(?P<charge>` + amt + `)$`
}

var (
	spacedPattern       = regexp.MustCompile(`^(?P<loc>` + placeName + `)\s+` + tabularBody(false, false))
	condensedPattern    = regexp.MustCompile(`^(?P<loc>` + placeName + `)\s*` + tabularBody(true, false))
	unidentifiedPattern = regexp.MustCompile(`^(?i:S/I)\s*` + tabularBody(true, false))
	citylessPattern     = regexp.MustCompile(`^` + tabularBody(true, false))
	reversalPattern     = regexp.MustCompile(`^(?:(?P<loc>(?i:S/I)|` + placeName + `)\s*)?` + tabularBody(true, true))
	fallbackPattern     = regexp.MustCompile(`^(?P<label>.*?)\s*(?P<date>` + fullDate + `)(?P<rest>.*)$`)
)

var creditGrammars = []Grammar{
	regexGrammar(GrammarSpaced, spacedPattern, buildTabular),
	regexGrammar(GrammarCondensed, condensedPattern, buildTabular),
	regexGrammar(GrammarUnidentified, unidentifiedPattern, func(g map[string]string) (models.RawTransaction, bool) {
		g["loc"] = UnidentifiedLocation
		return buildTabular(g)
	}),
	regexGrammar(GrammarCityless, citylessPattern, buildTabular),
	regexGrammar(GrammarReversal, reversalPattern, buildReversal),
	{Name: GrammarFallback, Match: matchTabularFallback},
}

func buildTabular(g map[string]string) (models.RawTransaction, bool) {
	return models.RawTransaction{
		Location:    strings.TrimSpace(g["loc"]),
		Date:        g["date"],
		Description: g["desc"],
		Amount:      g["amount"],
		Sign:        models.SignOutflow,
	}, true
}

// buildReversal keeps the first negative amount token. Rows without one
// are not reversals and belong to the earlier grammars.
func buildReversal(g map[string]string) (models.RawTransaction, bool) {
	var amount string
	for _, key := range []string{"amount", "total", "charge"} {
		if strings.HasPrefix(g[key], "-") {
			amount = g[key]
			break
		}
	}
	if amount == "" {
		return models.RawTransaction{}, false
	}

	loc := strings.TrimSpace(g["loc"])
	if strings.EqualFold(loc, "S/I") {
		loc = UnidentifiedLocation
	}
	return models.RawTransaction{
		Location:    loc,
		Date:        g["date"],
		Description: g["desc"],
		Amount:      amount,
		Sign:        models.SignOutflow,
		Reversal:    true,
	}, true
}

// matchTabularFallback accepts any line with a full date and at least one
// number after it. The last numeric run is the amount and every token
// holding a digit is dropped from the description.
func matchTabularFallback(line string) (models.RawTransaction, bool) {
	m := fallbackPattern.FindStringSubmatch(line)
	if m == nil {
		return models.RawTransaction{}, false
	}
	g := namedGroups(fallbackPattern, m)

	runs := numericRunPattern.FindAllString(g["rest"], -1)
	if len(runs) == 0 {
		return models.RawTransaction{}, false
	}
	last := strings.TrimRight(runs[len(runs)-1], ".")
	amount := validAmountSuffix.FindString(last)
	if amount == "" {
		return models.RawTransaction{}, false
	}

	label := strings.TrimSpace(g["label"])
	if strings.EqualFold(label, "S/I") {
		label = UnidentifiedLocation
	} else if numericTokenPattern.MatchString(label) {
		label = ""
	}

	return models.RawTransaction{
		Location:    label,
		Date:        g["date"],
		Description: stripNumerics(g["rest"]),
		Amount:      strings.TrimPrefix(amount, "-"),
		Sign:        models.SignOutflow,
	}, true
}
