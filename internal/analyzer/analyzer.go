// Package analyzer aggregates categorized transactions into totals, trends
// and rule-based recommendations.
package analyzer

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Analyzer builds an AnalysisResult. It holds no per-run state.
type Analyzer struct {
	newID              func() string
	maxRecommendations int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithIDFunc replaces the recommendation ID generator.
func WithIDFunc(fn func() string) Option {
	return func(a *Analyzer) { a.newID = fn }
}

// New returns an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{newID: uuid.NewString, maxRecommendations: MaxRecommendations}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze aggregates txns and attaches the recommendations. breakdown is
// the category breakdown of the same transactions.
func (a *Analyzer) Analyze(txns []models.Transaction, breakdown []models.CategoryStat) *models.AnalysisResult {
	res := Aggregate(txns, breakdown)
	res.Recommendations = a.Recommend(res)
	return res
}

// Aggregate computes totals, savings rate, average amount, date range and
// monthly trend. Income and expenses are split by transaction type and a
// reversal's amount is subtracted from expenses. Money values are rounded to 2 decimals
// and TotalSavings is derived from the rounded totals.
func Aggregate(txns []models.Transaction, breakdown []models.CategoryStat) *models.AnalysisResult {
	income, expenses, absSum := decimal.Zero, decimal.Zero, decimal.Zero
	months := make(map[string]*monthSums)

	res := &models.AnalysisResult{
		TransactionCount:  len(txns),
		CategoryBreakdown: breakdown,
	}
	if res.CategoryBreakdown == nil {
		res.CategoryBreakdown = []models.CategoryStat{}
	}

	for i, t := range txns {
		absSum = absSum.Add(decimal.NewFromFloat(t.Amount).Abs())

		key := t.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &monthSums{income: decimal.Zero, expenses: decimal.Zero}
			months[key] = m
		}
		if t.Type == models.TypeIncome {
			amt := decimal.NewFromFloat(t.Amount)
			income = income.Add(amt)
			m.income = m.income.Add(amt)
		} else {
			amt := decimal.NewFromFloat(t.NetExpense())
			expenses = expenses.Add(amt)
			m.expenses = m.expenses.Add(amt)
		}

		if i == 0 || t.Date.Before(res.DateRange.Start) {
			res.DateRange.Start = t.Date
		}
		if i == 0 || t.Date.After(res.DateRange.End) {
			res.DateRange.End = t.Date
		}
	}

	income, expenses = income.Round(2), expenses.Round(2)
	savings := income.Sub(expenses)
	res.TotalIncome = income.InexactFloat64()
	res.TotalExpenses = expenses.InexactFloat64()
	res.TotalSavings = savings.InexactFloat64()
	if income.IsPositive() {
		res.SavingsRate = savings.Div(income).Mul(hundred).Round(2).InexactFloat64()
	}
	if len(txns) > 0 {
		res.AverageTransactionAmount = absSum.Div(decimal.NewFromInt(int64(len(txns)))).Round(2).InexactFloat64()
	}

	res.MonthlyTrend = make([]models.MonthlyTrend, 0, len(months))
	for key, m := range months {
		inc, exp := m.income.Round(2), m.expenses.Round(2)
		res.MonthlyTrend = append(res.MonthlyTrend, models.MonthlyTrend{
			Month:    key,
			Income:   inc.InexactFloat64(),
			Expenses: exp.InexactFloat64(),
			Savings:  inc.Sub(exp).InexactFloat64(),
		})
	}
	sort.Slice(res.MonthlyTrend, func(i, j int) bool {
		return res.MonthlyTrend[i].Month < res.MonthlyTrend[j].Month
	})
	return res
}

type monthSums struct {
	income, expenses decimal.Decimal
}
