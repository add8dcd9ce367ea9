package parser

import (
	"regexp"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// Grammar extracts a RawTransaction from one line shape. Match must anchor
// on the whole line and return false when the line does not fit.
type Grammar struct {
	Name  string
	Match func(line string) (models.RawTransaction, bool)
}

// Grammar names, also used as metric labels.
const (
	GrammarSpaced       = "spaced"
	GrammarCondensed    = "condensed"
	GrammarUnidentified = "unidentified-location"
	GrammarCityless     = "cityless"
	GrammarReversal     = "reversal"
	GrammarFallback     = "fallback"

	GrammarLedgerFull  = "ledger-full"
	GrammarLedgerLoose = "ledger-loose"
	GrammarLedgerAny   = "ledger-fallback"
)

// CreditGrammarOrder is the priority of the credit-statement grammars,
// most specific first. The first grammar that matches a line wins.
var CreditGrammarOrder = []string{
	GrammarSpaced,
	GrammarCondensed,
	GrammarUnidentified,
	GrammarCityless,
	GrammarReversal,
	GrammarFallback,
}

// LedgerGrammarOrder is the priority of the running-ledger grammars.
var LedgerGrammarOrder = []string{
	GrammarLedgerFull,
	GrammarLedgerLoose,
	GrammarLedgerAny,
}

// GrammarsFor returns the ordered grammar list of a dialect.
func GrammarsFor(d models.Dialect) []Grammar {
	if d == models.DialectLedger {
		return ledgerGrammars
	}
	return creditGrammars
}

// MatchLine tries each grammar in order and commits to the first match.
func MatchLine(line string, grammars []Grammar) (models.RawTransaction, bool) {
	for _, g := range grammars {
		if raw, ok := g.Match(line); ok {
			raw.Grammar = g.Name
			return raw, true
		}
	}
	return models.RawTransaction{}, false
}

// regexGrammar wraps an anchored expression with named groups.
func regexGrammar(name string, re *regexp.Regexp, build func(g map[string]string) (models.RawTransaction, bool)) Grammar {
	return Grammar{
		Name: name,
		Match: func(line string) (models.RawTransaction, bool) {
			m := re.FindStringSubmatch(line)
			if m == nil {
				return models.RawTransaction{}, false
			}
			return build(namedGroups(re, m))
		},
	}
}
