package analyzer

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

const (
	// TargetSavingsRate is the savings rate, in percent, the rules aim for.
	TargetSavingsRate = 20.0
	// MaxRecommendations caps the number of recommendations per result.
	MaxRecommendations = 6
	// HighActivityCount is the transaction count above which the
	// consolidation rule fires.
	HighActivityCount = 100

	topCategories = 3
)

// categoryRule is a spending alert for one category.
type categoryRule struct {
	threshold float64 // percent of expenses that triggers the alert
	reduction float64 // suggested cut, as a fraction of the category total
	title     string
	advice    string
}

var categoryRules = map[string]categoryRule{
	"food": {
		threshold: 15, reduction: 0.20,
		title:  "Food spending is high",
		advice: "Plan weekly menus and cook at home more often to cut delivery and restaurant spending.",
	},
	"transport": {
		threshold: 20, reduction: 0.15,
		title:  "Transport spending is high",
		advice: "Combine trips, use public transport or share rides where possible.",
	},
	"entertainment": {
		threshold: 10, reduction: 0.30,
		title:  "Entertainment spending is high",
		advice: "Review subscriptions you rarely use and set a monthly leisure budget.",
	},
}

// Recommend evaluates the rule set against an aggregated result. Rules run
// in a fixed order; the output is sorted by priority and capped.
func (a *Analyzer) Recommend(res *models.AnalysisResult) []models.Recommendation {
	var recs []models.Recommendation
	add := func(r models.Recommendation) {
		r.ID = a.newID()
		recs = append(recs, r)
	}

	if res.SavingsRate < TargetSavingsRate {
		add(a.improveSavings(res))
	} else {
		add(models.Recommendation{
			Category: models.RecPraise,
			Title:    "Great savings habit",
			Body:     fmt.Sprintf("You are saving %.1f%% of your income, at or above the %.0f%% target. Keep it up.", res.SavingsRate, TargetSavingsRate),
			Impact:   "Consider moving part of the surplus to an emergency fund or investments.",
			Priority: models.PriorityLow,
		})
	}

	for i, stat := range res.CategoryBreakdown {
		if i >= topCategories {
			break
		}
		rule, ok := categoryRules[stat.Name]
		if !ok || stat.PercentageOfExpenses <= rule.threshold {
			continue
		}
		savings := decimal.NewFromFloat(stat.TotalAmount).Mul(decimal.NewFromFloat(rule.reduction)).Round(2)
		priority := models.PriorityMedium
		if stat.PercentageOfExpenses >= 2*rule.threshold {
			priority = models.PriorityHigh
		}
		add(models.Recommendation{
			Category:         models.RecSpendingAlert,
			Title:            rule.title,
			Body:             fmt.Sprintf("%s is %.1f%% of your expenses (threshold %.0f%%). %s", stat.Name, stat.PercentageOfExpenses, rule.threshold, rule.advice),
			Impact:           fmt.Sprintf("Cutting %.0f%% would save about %s.", rule.reduction*100, money(savings)),
			PotentialSavings: savings.InexactFloat64(),
			Priority:         priority,
		})
	}

	if res.TransactionCount > HighActivityCount {
		add(models.Recommendation{
			Category: models.RecSpendingAlert,
			Title:    "Consolidate your purchases",
			Body:     fmt.Sprintf("%d transactions in the period. Many small purchases add up; group them into fewer planned ones.", res.TransactionCount),
			Impact:   "Fewer impulse purchases and lower card fees.",
			Priority: models.PriorityLow,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	if len(recs) > a.maxRecommendations {
		recs = recs[:a.maxRecommendations]
	}
	return recs
}

// improveSavings sizes the gap between the current savings and the target.
func (a *Analyzer) improveSavings(res *models.AnalysisResult) models.Recommendation {
	priority := models.PriorityMedium
	if res.SavingsRate < TargetSavingsRate/2 {
		priority = models.PriorityHigh
	}

	income := decimal.NewFromFloat(res.TotalIncome)
	if !income.IsPositive() {
		return models.Recommendation{
			Category: models.RecSavings,
			Title:    "Improve your savings",
			Body:     "No income was detected in this statement, so every expense reduces your balance.",
			Impact:   fmt.Sprintf("Aim to save at least %.0f%% of what you earn.", TargetSavingsRate),
			Priority: models.PriorityHigh,
		}
	}

	target := income.Mul(decimal.NewFromFloat(TargetSavingsRate)).Div(hundred)
	gap := target.Sub(decimal.NewFromFloat(res.TotalSavings)).Round(2)
	return models.Recommendation{
		Category:         models.RecSavings,
		Title:            "Improve your savings",
		Body:             fmt.Sprintf("You are saving %.1f%% of your income; the target is %.0f%%.", res.SavingsRate, TargetSavingsRate),
		Impact:           fmt.Sprintf("Saving %s more per period would reach the target.", money(gap)),
		PotentialSavings: gap.InexactFloat64(),
		Priority:         priority,
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(0)
}
