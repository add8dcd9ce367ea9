package parser

import (
	"strings"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// SplitLines breaks extracted text into trimmed, non-empty lines. Index is
// the zero-based line number in the original text.
func SplitLines(text string) []models.TextLine {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")

	var lines []models.TextLine
	for i, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, models.TextLine{Index: i, Content: l})
		}
	}
	return lines
}
