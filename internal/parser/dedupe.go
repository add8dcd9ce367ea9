package parser

import (
	"strconv"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// Dedupe drops transactions whose date, description and signed amount all
// equal an earlier one. A reversal never collapses into the purchase it
// credits back. Document order is kept and the number of dropped
// transactions is returned. Dedupe(Dedupe(x)) == Dedupe(x).
func Dedupe(txns []models.Transaction) ([]models.Transaction, int) {
	seen := make(map[string]struct{}, len(txns))
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		key := dedupeKey(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out, len(txns) - len(out)
}

func dedupeKey(t models.Transaction) string {
	return t.Date.Format("2006-01-02") + "\x00" + t.Description + "\x00" +
		strconv.FormatFloat(t.SignedAmount, 'f', -1, 64) + "\x00" + strconv.FormatBool(t.Reversal)
}
