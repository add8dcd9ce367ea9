package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

func sampleExport() Export {
	jul19 := time.Date(2025, 7, 19, 0, 0, 0, 0, time.UTC)
	aug06 := time.Date(2025, 8, 6, 0, 0, 0, 0, time.UTC)
	return Export{
		Dialect: models.DialectCredit,
		Result: &models.AnalysisResult{
			TotalExpenses: 72950,
			DateRange:     models.DateRange{Start: jul19, End: aug06},
		},
		Transactions: []models.Transaction{
			{Date: jul19, Description: "Mercadopago *sociedad", Category: "shopping", Type: models.TypeExpense, Amount: 89990},
			{Date: aug06, Description: "Anulacion pago, automatico", Category: "other", Type: models.TypeExpense, Amount: 17040, SignedAmount: -17040, Reversal: true},
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, sampleExport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Dialect,credit-statement") {
		t.Error("expected dialect metadata header")
	}
	if !strings.Contains(output, "# Period,2025-07-19 to 2025-08-06") {
		t.Error("expected period metadata")
	}
	if !strings.Contains(output, "Date,Description,Category,Type,Amount") {
		t.Error("expected column headers")
	}
	if !strings.Contains(output, "2025-07-19,Mercadopago *sociedad,shopping,expense,89990.00") {
		t.Error("expected first transaction row")
	}
	if !strings.Contains(output, `2025-08-06,"Anulacion pago, automatico",other,expense,-17040.00`) {
		t.Error("expected quoted reversal row")
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 5 metadata lines + 1 header + 2 transactions = 8
	if len(lines) != 8 {
		t.Errorf("expected 8 lines, got %d:\n%s", len(lines), output)
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, sampleExport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "# Dialect") {
		t.Error("should not have metadata when header=false")
	}
	if !strings.HasPrefix(output, "Date,Description,Category,Type,Amount") {
		t.Error("expected column headers first without metadata")
	}
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{}
	if err := w.WriteToFile(path, sampleExport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Errorf("expected 3 lines, got %d", got)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{25.99, "25.99"},
		{89990, "89990.00"},
		{-17040, "-17040.00"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := formatAmount(tt.input); got != tt.expected {
			t.Errorf("formatAmount(%f): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
