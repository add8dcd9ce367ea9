package models

import "time"

// CategoryStat aggregates expense transactions of one category.
type CategoryStat struct {
	Name                 string  `json:"name"`
	TotalAmount          float64 `json:"totalAmount"`
	PercentageOfExpenses float64 `json:"percentageOfExpenses"`
	TransactionCount     int     `json:"transactionCount"`
	Color                string  `json:"colorToken"`
}

// DateRange is the span covered by the analyzed transactions.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthlyTrend holds per-calendar-month sums.
type MonthlyTrend struct {
	Month    string  `json:"month"` // YYYY-MM
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Savings  float64 `json:"savings"`
}

// RecommendationCategory groups recommendations.
type RecommendationCategory string

const (
	RecSavings       RecommendationCategory = "savings"
	RecSpendingAlert RecommendationCategory = "spending-alert"
	RecPraise        RecommendationCategory = "praise"
)

// Priority orders recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sort key where lower means more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recommendation is a single piece of rule-based advice.
type Recommendation struct {
	ID               string                 `json:"id"`
	Category         RecommendationCategory `json:"category"`
	Title            string                 `json:"title"`
	Body             string                 `json:"body"`
	Impact           string                 `json:"impact"`
	PotentialSavings float64                `json:"potentialSavings"`
	Priority         Priority               `json:"priority"`
}

// AnalysisResult is the terminal artifact of one pipeline run.
type AnalysisResult struct {
	TotalIncome              float64          `json:"totalIncome"`
	TotalExpenses            float64          `json:"totalExpenses"`
	TotalSavings             float64          `json:"totalSavings"`
	SavingsRate              float64          `json:"savingsRate"`
	TransactionCount         int              `json:"transactionCount"`
	AverageTransactionAmount float64          `json:"averageTransactionAmount"`
	DateRange                DateRange        `json:"dateRange"`
	CategoryBreakdown        []CategoryStat   `json:"categoryBreakdown"`
	MonthlyTrend             []MonthlyTrend   `json:"monthlyTrend"`
	Recommendations          []Recommendation `json:"recommendations"`
}
