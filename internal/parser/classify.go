package parser

import (
	"unicode/utf8"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

// MinLineLength returns the shortest candidate line for a dialect.
func MinLineLength(d models.Dialect, t *tables.Tables) int {
	if d == models.DialectLedger {
		return t.MinLength.Ledger
	}
	return t.MinLength.Credit
}

// ClassifyLine tags one line as noise or candidate. The length filter runs
// before the noise signatures.
func ClassifyLine(line models.TextLine, d models.Dialect, t *tables.Tables) models.ClassifiedLine {
	cl := models.ClassifiedLine{TextLine: line, Class: models.LineNoise}
	if utf8.RuneCountInString(line.Content) < MinLineLength(d, t) {
		return cl
	}
	if t.IsNoise(tables.Fold(line.Content)) {
		return cl
	}
	cl.Class = models.LineCandidate
	return cl
}

// Classify tags every line of a document.
func Classify(lines []models.TextLine, d models.Dialect, t *tables.Tables) []models.ClassifiedLine {
	out := make([]models.ClassifiedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, ClassifyLine(l, d, t))
	}
	return out
}
