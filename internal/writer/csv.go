package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// Export is what gets written: the categorized transactions plus the
// figures shown in the metadata rows.
type Export struct {
	Dialect      models.Dialect
	Result       *models.AnalysisResult
	Transactions []models.Transaction
}

// csvRow is one output line.
type csvRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Category    string `csv:"Category"`
	Type        string `csv:"Type"`
	Amount      string `csv:"Amount"`
}

// CSVWriter writes categorized transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the export to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, ex Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, ex); err != nil {
		return err
	}
	return f.Close()
}

// Write writes the export in CSV format. Metadata rows start with "#".
func (w *CSVWriter) Write(out io.Writer, ex Export) error {
	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(out))

	if w.IncludeHeader {
		meta := [][]string{}
		if ex.Dialect != "" {
			meta = append(meta, []string{"# Dialect", string(ex.Dialect)})
		}
		if r := ex.Result; r != nil {
			if !r.DateRange.Start.IsZero() {
				meta = append(meta, []string{"# Period", r.DateRange.Start.Format("2006-01-02") + " to " + r.DateRange.End.Format("2006-01-02")})
			}
			meta = append(meta,
				[]string{"# Total Income", formatAmount(r.TotalIncome)},
				[]string{"# Total Expenses", formatAmount(r.TotalExpenses)},
				[]string{"# Savings Rate", strconv.FormatFloat(r.SavingsRate, 'f', 2, 64) + "%"},
			)
		}
		for _, m := range meta {
			if err := writer.Write(m); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	rows := make([]csvRow, 0, len(ex.Transactions))
	for _, txn := range ex.Transactions {
		// Reversals are written negative so the column sums to net spend.
		amount := txn.Amount
		if txn.IsReversal() {
			amount = -amount
		}
		rows = append(rows, csvRow{
			Date:        txn.Date.Format("2006-01-02"),
			Description: txn.Description,
			Category:    txn.Category,
			Type:        string(txn.Type),
			Amount:      formatAmount(amount),
		})
	}
	if err := gocsv.MarshalCSV(rows, writer); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
