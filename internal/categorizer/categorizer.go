// Package categorizer assigns spending categories by keyword and builds the
// per-category expense breakdown.
package categorizer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

// IncomeCategory is only given to income transactions. An expense whose
// description mentions e.g. "abono" keeps scanning past it.
const IncomeCategory = "income"

// Categorizer scans the ordered category table; first match wins.
type Categorizer struct {
	tables *tables.Tables
}

// New returns a Categorizer over t, or over the default tables when t is nil.
func New(t *tables.Tables) *Categorizer {
	if t == nil {
		t = tables.Default()
	}
	return &Categorizer{tables: t}
}

// Categorize returns the first category whose keywords occur in the
// description, or "other".
func (c *Categorizer) Categorize(description string, typ models.TransactionType) string {
	folded := tables.Fold(description)
	for _, cat := range c.tables.Categories {
		if cat.Name == IncomeCategory && typ == models.TypeExpense {
			continue
		}
		if _, ok := tables.ContainsAny(folded, cat.Keywords); ok {
			return cat.Name
		}
	}
	return tables.OtherCategory
}

// Apply returns a copy of txns with Category set on each transaction.
func (c *Categorizer) Apply(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txns))
	for i, t := range txns {
		t.Category = c.Categorize(t.Description, t.Type)
		out[i] = t
	}
	return out
}

// Stats builds the expense breakdown of categorized transactions, sorted by
// total amount descending. Reversals are netted inside their category and a
// category total never goes below zero; percentages are shares of the sum
// of those totals. Categories without expense transactions are left out.
func (c *Categorizer) Stats(txns []models.Transaction) []models.CategoryStat {
	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, t := range txns {
		if t.Type != models.TypeExpense {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(decimal.NewFromFloat(t.NetExpense()))
		counts[t.Category]++
	}

	grand := decimal.Zero
	for name, total := range totals {
		if total.IsNegative() {
			totals[name] = decimal.Zero
			continue
		}
		grand = grand.Add(total)
	}

	stats := make([]models.CategoryStat, 0, len(totals))
	for name, total := range totals {
		pct := decimal.Zero
		if grand.IsPositive() {
			pct = total.Div(grand).Mul(decimal.NewFromInt(100))
		}
		stats = append(stats, models.CategoryStat{
			Name:                 name,
			TotalAmount:          total.Round(2).InexactFloat64(),
			PercentageOfExpenses: pct.Round(2).InexactFloat64(),
			TransactionCount:     counts[name],
			Color:                c.tables.Color(name),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalAmount != stats[j].TotalAmount {
			return stats[i].TotalAmount > stats[j].TotalAmount
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}
