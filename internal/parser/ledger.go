package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

// Current-account (cartola) rows carry the transaction amount and the
// running balance glued together:
//
//	15/07 SANTIAGO 1234567 TRANSFERENCIA A TERCEROS 50.0001.234.567
//
// The grammars capture the whole digit run and SelectLedgerAmount splits it.

const ledgerDate = shortDate + `(?:/\d{2,4})?`

var (
	ledgerFullPattern  = regexp.MustCompile(`^(?P<date>` + shortDate + `)\s+(?P<loc>` + placeName + `)\s+(?P<code>\d{3,})\s+(?P<desc>.+?)\s*(?P<run>\d[\d.]*\d)$`)
	ledgerLoosePattern = regexp.MustCompile(`^(?P<date>` + ledgerDate + `)\s+(?P<desc>.+?)\s+(?P<run>\d[\d.]*\d|\d)$`)
	ledgerAnyPattern   = regexp.MustCompile(`^(?P<date>` + ledgerDate + `)(?P<rest>.*\d.*)$`)
)

var ledgerGrammars = []Grammar{
	regexGrammar(GrammarLedgerFull, ledgerFullPattern, buildLedger),
	regexGrammar(GrammarLedgerLoose, ledgerLoosePattern, buildLedger),
	{Name: GrammarLedgerAny, Match: matchLedgerFallback},
}

func buildLedger(g map[string]string) (models.RawTransaction, bool) {
	return models.RawTransaction{
		Location:    strings.TrimSpace(g["loc"]),
		Date:        g["date"],
		Description: g["desc"],
		Amount:      g["run"],
	}, true
}

func matchLedgerFallback(line string) (models.RawTransaction, bool) {
	m := ledgerAnyPattern.FindStringSubmatch(line)
	if m == nil {
		return models.RawTransaction{}, false
	}
	g := namedGroups(ledgerAnyPattern, m)

	runs := numericRunPattern.FindAllString(g["rest"], -1)
	if len(runs) == 0 {
		return models.RawTransaction{}, false
	}
	return models.RawTransaction{
		Date:        g["date"],
		Description: stripNumerics(g["rest"]),
		Amount:      strings.Trim(runs[len(runs)-1], ".-"),
	}, true
}

// SelectLedgerAmount isolates the transaction amount inside a digit run
// that may hold several thousand-separated numbers written back to back.
// The largest number is taken to be the running balance and any number
// equal to the sum of the remaining ones to be a subtotal; the first
// number left over is the amount. ok is false when nothing is left.
func SelectLedgerAmount(run string) (string, bool) {
	run = strings.Trim(run, ".")
	if run == "" {
		return "", false
	}

	loc := thousandRunPattern.FindAllStringIndex(run, -1)
	if len(loc) == 0 {
		if _, err := strconv.ParseUint(run, 10, 64); err != nil {
			return "", false
		}
		return run, true
	}

	var parts []string
	// Leading digits too short to form a thousands group are an amount
	// of their own ("5001.234.567" is 500 then 1.234.567).
	if prefix := run[:loc[0][0]]; prefix != "" {
		if _, err := strconv.ParseUint(prefix, 10, 64); err == nil {
			parts = append(parts, prefix)
		}
	}
	for _, l := range loc {
		parts = append(parts, run[l[0]:l[1]])
	}
	if len(parts) == 1 {
		return parts[0], true
	}

	values := make([]float64, len(parts))
	maxIdx := 0
	for i, p := range parts {
		v, ok := ParseAmount(p)
		if !ok {
			return "", false
		}
		values[i] = v
		if v > values[maxIdx] {
			maxIdx = i
		}
	}

	var candidates []int
	for i := range parts {
		if i != maxIdx {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) > 1 {
		var total float64
		for _, i := range candidates {
			total += values[i]
		}
		kept := candidates[:0]
		for _, i := range candidates {
			if values[i] != total-values[i] {
				kept = append(kept, i)
			}
		}
		candidates = kept
	}
	if len(candidates) == 0 {
		return "", false
	}
	return parts[candidates[0]], true
}

// InferLedgerSign marks a running-ledger transaction as an outflow when its
// description holds an expense keyword. Anything else is treated as income.
func InferLedgerSign(description string, t *tables.Tables) models.Sign {
	if _, ok := tables.ContainsAny(tables.Fold(description), t.ExpenseKeywords); ok {
		return models.SignOutflow
	}
	return models.SignInflow
}
