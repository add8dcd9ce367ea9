package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/observability"
	"github.com/insightdelivered/statement-analyzer/internal/parser"
	"github.com/insightdelivered/statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/statement-analyzer/internal/store"
)

const statementText = `ESTADO DE CUENTA
Las Condes 19/07/2025 Mercadopago *sociedad A2 89.990 89.990 01/01 sep-2025 89.990
S/I27/07/2025Compra falabella plaza vespucio T37.90537.90501/01sep-202537.905`

func newTestAnalyzer(t *testing.T) (*Analyzer, *observability.Metrics) {
	t.Helper()
	results := store.New[*Stored](time.Minute)
	t.Cleanup(results.Close)
	metrics := observability.NewMetrics()
	p := pipeline.New(nil, pipeline.WithParserOptions(parser.WithYear(2025)))
	return NewAnalyzer(p, results, metrics, nil), metrics
}

func TestAnalyzeUploadText(t *testing.T) {
	a, metrics := newTestAnalyzer(t)

	stored, diag, err := a.AnalyzeUpload(context.Background(), Upload{Filename: "statement.txt", Data: []byte(statementText)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ID == "" || stored.Kind != models.KindTabularDocument || stored.Dialect != models.DialectCredit {
		t.Errorf("stored = %+v", stored)
	}
	if len(stored.Transactions) != 2 || stored.Result.TotalExpenses != 127895 {
		t.Errorf("result = %+v", stored.Result)
	}
	if diag == nil || diag.NoiseLines != 1 {
		t.Errorf("diagnostics = %+v", diag)
	}

	got, ok := a.Get(stored.ID)
	if !ok || got != stored {
		t.Error("stored analysis should be retrievable by ID")
	}
	if _, ok := a.Get("missing"); ok {
		t.Error("unknown ID should miss")
	}

	snap := metrics.Snapshot()
	if snap.Analyses != 1 || snap.Failures != 0 || snap.Transactions != 2 || snap.LookupHitRate != 0.5 {
		t.Errorf("snapshot = %+v", snap)
	}
	if n := testutil.CollectAndCount(metrics.Registry, "analyzer_grammar_hits_total"); n != 2 {
		t.Errorf("grammar hit series = %d, want 2", n)
	}
}

func TestAnalyzeUploadCSV(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	csv := "Fecha;Descripción;Monto\n01/07/2025;Sueldo;1.000.000\n02/07/2025;Uber Eats;-20.000\n"

	stored, _, err := a.AnalyzeUpload(context.Background(), Upload{Filename: "export.CSV", Data: []byte(csv)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Kind != models.KindDelimitedText || stored.Result.TotalIncome != 1000000 || stored.Result.TotalExpenses != 20000 {
		t.Errorf("stored = %+v", stored.Result)
	}
}

func TestAnalyzeUploadErrors(t *testing.T) {
	a, metrics := newTestAnalyzer(t)
	ctx := context.Background()

	_, _, err := a.AnalyzeUpload(ctx, Upload{Filename: "photo.png", Data: []byte("x")})
	var unsupported *models.ErrUnsupportedKind
	if !errors.As(err, &unsupported) {
		t.Errorf("png: err = %v, want ErrUnsupportedKind", err)
	}

	_, _, err = a.AnalyzeUpload(ctx, Upload{Kind: models.KindTabularDocument, Data: []byte("%PDF-1.4 garbage")})
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("pdf: err = %v, want ErrUnreadable", err)
	}

	_, diag, err := a.AnalyzeUpload(ctx, Upload{Kind: models.KindTabularDocument, Data: []byte("ESTADO DE CUENTA")})
	var none *models.ErrNoTransactions
	if !errors.As(err, &none) || diag == nil {
		t.Errorf("noise only: err = %v, diag = %v", err, diag)
	}

	if snap := metrics.Snapshot(); snap.Failures != 3 || snap.Analyses != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want models.DocumentKind
		ok   bool
	}{
		{"estado.pdf", models.KindTabularDocument, true},
		{"cartola.TXT", models.KindTabularDocument, true},
		{"movimientos.csv", models.KindDelimitedText, true},
		{"movimientos.xls", models.KindSpreadsheet, true},
		{"image.jpeg", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindFromFilename(tt.name)
			if got != tt.want || ok != tt.ok {
				t.Errorf("got %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
