package parser

import (
	"strings"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

// DialectScore holds the indicator counts behind a dialect decision.
type DialectScore struct {
	Credit int
	Ledger int
}

// DetectDialect picks the grammar family for a document by counting
// occurrences of each indicator set in the whole text. Ties go to the
// credit-statement dialect.
func DetectDialect(text string, t *tables.Tables) (models.Dialect, DialectScore) {
	folded := tables.Fold(text)

	var score DialectScore
	for _, kw := range t.CreditIndicators {
		score.Credit += strings.Count(folded, kw)
	}
	for _, kw := range t.LedgerIndicators {
		score.Ledger += strings.Count(folded, kw)
	}

	if score.Ledger > score.Credit {
		return models.DialectLedger, score
	}
	return models.DialectCredit, score
}
