package analyzer

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expense(date time.Time, amount float64, category string) models.Transaction {
	return models.Transaction{Date: date, Amount: amount, SignedAmount: -amount, Type: models.TypeExpense, Category: category}
}

func reversal(date time.Time, amount float64, category string) models.Transaction {
	t := expense(date, amount, category)
	t.Reversal = true
	return t
}

func income(date time.Time, amount float64) models.Transaction {
	return models.Transaction{Date: date, Amount: amount, SignedAmount: amount, Type: models.TypeIncome, Category: "income"}
}

func TestAggregate(t *testing.T) {
	txns := []models.Transaction{
		income(day(2025, 7, 1), 1000000),
		expense(day(2025, 7, 19), 89990, "shopping"),
		reversal(day(2025, 8, 6), 17040, "other"),
		expense(day(2025, 6, 30), 100000.555, "food"),
	}

	res := Aggregate(txns, nil)

	if res.TotalIncome != 1000000 {
		t.Errorf("income = %v, want 1000000", res.TotalIncome)
	}
	if res.TotalExpenses != 172950.56 {
		t.Errorf("expenses = %v, want 172950.56", res.TotalExpenses)
	}
	if res.TotalSavings != 827049.44 {
		t.Errorf("savings = %v, want 827049.44", res.TotalSavings)
	}
	if math.Abs(res.TotalIncome-res.TotalExpenses-res.TotalSavings) > 0.005 {
		t.Error("income - expenses != savings")
	}
	if res.SavingsRate != 82.7 {
		t.Errorf("savings rate = %v, want 82.7", res.SavingsRate)
	}
	if res.TransactionCount != 4 {
		t.Errorf("count = %d, want 4", res.TransactionCount)
	}
	// (1000000 + 89990 + 17040 + 100000.555) / 4
	if res.AverageTransactionAmount != 301757.64 {
		t.Errorf("average = %v, want 301757.64", res.AverageTransactionAmount)
	}
	if !res.DateRange.Start.Equal(day(2025, 6, 30)) || !res.DateRange.End.Equal(day(2025, 8, 6)) {
		t.Errorf("date range = %+v", res.DateRange)
	}
	if res.CategoryBreakdown == nil {
		t.Error("breakdown should be an empty slice, not nil")
	}

	wantTrend := []models.MonthlyTrend{
		{Month: "2025-06", Income: 0, Expenses: 100000.56, Savings: -100000.56},
		{Month: "2025-07", Income: 1000000, Expenses: 89990, Savings: 910010},
		{Month: "2025-08", Income: 0, Expenses: -17040, Savings: 17040},
	}
	if len(res.MonthlyTrend) != len(wantTrend) {
		t.Fatalf("trend = %+v", res.MonthlyTrend)
	}
	for i, w := range wantTrend {
		if res.MonthlyTrend[i] != w {
			t.Errorf("trend %d = %+v, want %+v", i, res.MonthlyTrend[i], w)
		}
	}
}

func TestAggregateNoIncome(t *testing.T) {
	res := Aggregate([]models.Transaction{expense(day(2025, 7, 1), 5000, "food")}, nil)
	if res.SavingsRate != 0 {
		t.Errorf("savings rate = %v, want 0 without income", res.SavingsRate)
	}
	if res.TotalSavings != -5000 {
		t.Errorf("savings = %v, want -5000", res.TotalSavings)
	}
}

func sequentialIDs() Option {
	n := 0
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	})
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name  string
		res   models.AnalysisResult
		want  []models.RecommendationCategory
		first models.Priority
	}{
		{
			name: "praise when saving enough",
			res:  models.AnalysisResult{TotalIncome: 1000, TotalExpenses: 700, TotalSavings: 300, SavingsRate: 30},
			want: []models.RecommendationCategory{models.RecPraise},
		},
		{
			name: "low savings with food alert",
			res: models.AnalysisResult{
				TotalIncome: 1000, TotalExpenses: 950, TotalSavings: 50, SavingsRate: 5,
				CategoryBreakdown: []models.CategoryStat{
					{Name: "food", TotalAmount: 500, PercentageOfExpenses: 52.6},
					{Name: "shopping", TotalAmount: 300, PercentageOfExpenses: 31.6},
					{Name: "transport", TotalAmount: 150, PercentageOfExpenses: 15.8},
				},
			},
			want:  []models.RecommendationCategory{models.RecSavings, models.RecSpendingAlert},
			first: models.PriorityHigh,
		},
		{
			name: "entertainment outside top three is ignored",
			res: models.AnalysisResult{
				TotalIncome: 1000, TotalSavings: 250, SavingsRate: 25,
				CategoryBreakdown: []models.CategoryStat{
					{Name: "shopping", PercentageOfExpenses: 40},
					{Name: "utilities", PercentageOfExpenses: 25},
					{Name: "health", PercentageOfExpenses: 20},
					{Name: "entertainment", PercentageOfExpenses: 15},
				},
			},
			want: []models.RecommendationCategory{models.RecPraise},
		},
		{
			name: "many transactions",
			res:  models.AnalysisResult{TotalIncome: 1000, TotalSavings: 200, SavingsRate: 20, TransactionCount: 150},
			want: []models.RecommendationCategory{models.RecPraise, models.RecSpendingAlert},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := New(sequentialIDs()).Recommend(&tt.res)
			if len(recs) != len(tt.want) {
				t.Fatalf("got %d recommendations, want %d: %+v", len(recs), len(tt.want), recs)
			}
			for i, c := range tt.want {
				if recs[i].Category != c {
					t.Errorf("rec %d category = %q, want %q", i, recs[i].Category, c)
				}
				if recs[i].ID == "" || recs[i].Title == "" || recs[i].Body == "" {
					t.Errorf("rec %d incomplete: %+v", i, recs[i])
				}
			}
			if tt.first != "" && recs[0].Priority != tt.first {
				t.Errorf("first priority = %q, want %q", recs[0].Priority, tt.first)
			}
		})
	}
}

func TestRecommendSavingsGap(t *testing.T) {
	res := &models.AnalysisResult{TotalIncome: 1000000, TotalExpenses: 880000, TotalSavings: 120000, SavingsRate: 12}
	recs := New().Recommend(res)
	if len(recs) != 1 || recs[0].Category != models.RecSavings {
		t.Fatalf("got %+v", recs)
	}
	if recs[0].PotentialSavings != 80000 {
		t.Errorf("potential savings = %v, want 80000", recs[0].PotentialSavings)
	}
	if recs[0].Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want medium", recs[0].Priority)
	}
}

func TestRecommendCapAndOrder(t *testing.T) {
	a := New(sequentialIDs())
	a.maxRecommendations = 2
	res := &models.AnalysisResult{
		TotalIncome: 1000, TotalSavings: 300, SavingsRate: 30, TransactionCount: 500,
		CategoryBreakdown: []models.CategoryStat{
			{Name: "food", TotalAmount: 400, PercentageOfExpenses: 57},
			{Name: "entertainment", TotalAmount: 150, PercentageOfExpenses: 21},
			{Name: "transport", TotalAmount: 150, PercentageOfExpenses: 22},
		},
	}
	recs := a.Recommend(res)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	for _, r := range recs {
		if r.Priority != models.PriorityHigh {
			t.Errorf("%q priority = %q, want only high-priority rules kept", r.Title, r.Priority)
		}
	}
	if recs[0].PotentialSavings != 80 || recs[1].PotentialSavings != 45 {
		t.Errorf("potential savings = %v, %v; want 80, 45", recs[0].PotentialSavings, recs[1].PotentialSavings)
	}
}

func TestAnalyze(t *testing.T) {
	res := New().Analyze([]models.Transaction{income(day(2025, 7, 1), 1000), expense(day(2025, 7, 2), 900, "other")}, nil)
	if len(res.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
	if len(res.Recommendations) > MaxRecommendations {
		t.Errorf("got %d recommendations, cap is %d", len(res.Recommendations), MaxRecommendations)
	}
}
