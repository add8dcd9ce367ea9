package parser

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

// rowColumns holds the field positions of one row, -1 when absent.
type rowColumns struct {
	date, description, amount, debit, credit int
}

// locateColumns finds each field by matching folded header names against
// the synonym lists. Synonyms are tried in table order and a field is used
// for at most one role.
func locateColumns(row models.Row, syn tables.HeaderSynonyms) rowColumns {
	names := make([]string, len(row))
	for i, f := range row {
		names[i] = tables.Fold(strings.TrimSpace(f.Name))
	}
	used := make([]bool, len(row))

	find := func(synonyms []string) int {
		for _, s := range synonyms {
			for i, n := range names {
				if !used[i] && strings.Contains(n, s) {
					used[i] = true
					return i
				}
			}
		}
		return -1
	}

	var c rowColumns
	c.date = find(syn.Date)
	c.description = find(syn.Description)
	c.amount = find(syn.Amount)
	c.debit = find(syn.Debit)
	c.credit = find(syn.Credit)
	return c
}

func fieldValue(row models.Row, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i].Value)
}

// parseRowAmount accepts both the statement locale ("1.234.567", "1.234,5")
// and plain decimal exports ("1234.56"). A lone dot followed by other than
// three digits is read as a decimal point.
func parseRowAmount(token string) (float64, bool) {
	s := strings.TrimSpace(token)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ",") && strings.Count(s, ".") == 1 {
		if frac := s[strings.LastIndex(s, ".")+1:]; len(frac) != 3 {
			clean := strings.NewReplacer("$", "", " ", "", "\u00A0", "").Replace(s)
			v, err := strconv.ParseFloat(clean, 64)
			return v, err == nil && isFinite(v)
		}
	}
	return ParseAmount(s)
}

// parseRowDate accepts the date formats of exported spreadsheets. A time
// suffix ("2025-07-19 00:00:00") is ignored.
func parseRowDate(token string, defaultYear int) (time.Time, bool) {
	fields := strings.Fields(token)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	return ParseDate(fields[0], defaultYear)
}

// ParseRows turns field-map rows from delimited or spreadsheet documents
// into transactions. Rows that fail validation are counted and skipped.
func (p *Parser) ParseRows(rows []models.Row) ([]models.Transaction, *models.Diagnostics) {
	diag := models.NewDiagnostics(models.DialectRows)
	diag.TotalLines = len(rows)

	out := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		txn, reason, ok := p.parseRow(row)
		if !ok {
			diag.Reject(reason)
			p.log.Debug("row rejected", zap.Int("row", i), zap.String("reason", string(reason)))
			continue
		}
		diag.GrammarHits[string(models.DialectRows)]++
		out = append(out, txn)
	}
	return out, diag
}

func (p *Parser) parseRow(row models.Row) (models.Transaction, models.RejectReason, bool) {
	cols := locateColumns(row, p.tables.HeaderSynonyms)

	date, ok := parseRowDate(fieldValue(row, cols.date), p.year)
	if !ok {
		return models.Transaction{}, models.RejectInvalidRecord, false
	}
	desc, ok := CleanDescription(fieldValue(row, cols.description))
	if !ok {
		return models.Transaction{}, models.RejectInvalidRecord, false
	}

	var amount float64
	var typ models.TransactionType
	switch {
	case cols.amount >= 0 && fieldValue(row, cols.amount) != "":
		v, ok := parseRowAmount(fieldValue(row, cols.amount))
		if !ok || v == 0 {
			return models.Transaction{}, models.RejectInvalidRecord, false
		}
		amount, typ = v, models.TypeIncome
		if v < 0 {
			amount, typ = -v, models.TypeExpense
		}
	default:
		debit, _ := parseRowAmount(fieldValue(row, cols.debit))
		credit, _ := parseRowAmount(fieldValue(row, cols.credit))
		switch {
		case debit != 0:
			amount, typ = abs(debit), models.TypeExpense
		case credit != 0:
			amount, typ = abs(credit), models.TypeIncome
		default:
			return models.Transaction{}, models.RejectInvalidRecord, false
		}
	}

	return p.newTransaction(date, desc, "", amount, typ), "", true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
