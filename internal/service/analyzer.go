// Package service runs analyses for the CLI and the HTTP API: it adapts
// uploads into documents, runs the pipeline, records metrics and traces,
// and keeps results for later retrieval.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-analyzer/internal/extractor"
	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/observability"
	"github.com/insightdelivered/statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/statement-analyzer/internal/store"
)

var tracer = otel.Tracer("service/analyzer")

// ErrUnreadable wraps failures to turn an upload into text or rows.
var ErrUnreadable = errors.New("document could not be read")

var pdfMagic = []byte("%PDF-")

// Upload is a file or pasted text as received from a client.
type Upload struct {
	// Kind may be empty; it is then inferred from Filename.
	Kind     models.DocumentKind
	Filename string
	Data     []byte
}

// Stored is a completed analysis kept for retrieval by ID.
type Stored struct {
	ID           string                 `json:"id"`
	CreatedAt    time.Time              `json:"createdAt"`
	Kind         models.DocumentKind    `json:"kind"`
	Dialect      models.Dialect         `json:"dialect"`
	Result       *models.AnalysisResult `json:"result"`
	Transactions []models.Transaction   `json:"transactions"`
}

// Analyzer is the analysis service.
type Analyzer struct {
	pipeline *pipeline.Pipeline
	results  *store.InMemory[*Stored]
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyzer creates the service with all dependencies injected.
func NewAnalyzer(p *pipeline.Pipeline, results *store.InMemory[*Stored], metrics *observability.Metrics, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		pipeline: p,
		results:  results,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// KindFromFilename infers a document kind from a file extension.
func KindFromFilename(name string) (models.DocumentKind, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "", false
	}
	return models.ParseKind(ext)
}

// Extract turns an upload into a RawDocument. PDFs are converted to text;
// delimited and spreadsheet files are read into rows.
func (a *Analyzer) Extract(ctx context.Context, up Upload) (models.RawDocument, error) {
	ctx, span := tracer.Start(ctx, "Analyzer.Extract",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("document.filename", up.Filename)),
	)
	defer span.End()

	kind := up.Kind
	if kind == "" {
		k, ok := KindFromFilename(up.Filename)
		if !ok {
			return models.RawDocument{}, &models.ErrUnsupportedKind{Kind: models.DocumentKind(filepath.Ext(up.Filename))}
		}
		kind = k
	}
	span.SetAttributes(attribute.String("document.kind", string(kind)), attribute.Int("document.bytes", len(up.Data)))

	switch kind {
	case models.KindTabularDocument:
		if !bytes.HasPrefix(up.Data, pdfMagic) {
			return models.RawDocument{Kind: kind, Text: up.Data}, nil
		}
		pages, err := extractor.ExtractPDF(ctx, up.Data)
		if err != nil {
			return models.RawDocument{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		return models.RawDocument{Kind: kind, Text: []byte(extractor.JoinPages(pages))}, nil
	case models.KindDelimitedText:
		rows, err := extractor.ReadDelimited(bytes.NewReader(up.Data))
		if err != nil {
			return models.RawDocument{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		return models.RawDocument{Kind: kind, Rows: rows}, nil
	case models.KindSpreadsheet:
		rows, err := extractor.ReadSpreadsheet(bytes.NewReader(up.Data))
		if err != nil {
			return models.RawDocument{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		return models.RawDocument{Kind: kind, Rows: rows}, nil
	default:
		return models.RawDocument{}, &models.ErrUnsupportedKind{Kind: kind}
	}
}

// AnalyzeUpload extracts and analyzes an upload.
func (a *Analyzer) AnalyzeUpload(ctx context.Context, up Upload) (*Stored, *models.Diagnostics, error) {
	doc, err := a.Extract(ctx, up)
	if err != nil {
		a.metrics.RecordAnalysis(string(up.Kind), outcomeOf(err), 0)
		a.logger.Warn("document extraction failed",
			zap.String("filename", up.Filename),
			zap.String("kind", string(up.Kind)),
			zap.Error(err),
		)
		return nil, nil, err
	}
	return a.Analyze(ctx, doc)
}

// Analyze runs the pipeline on a document and stores the result.
// Diagnostics are returned whenever parsing ran.
func (a *Analyzer) Analyze(ctx context.Context, doc models.RawDocument) (*Stored, *models.Diagnostics, error) {
	_, span := tracer.Start(ctx, "Analyzer.Analyze",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("document.kind", string(doc.Kind))),
	)
	defer span.End()

	start := time.Now()
	out, err := a.pipeline.Analyze(doc)
	elapsed := time.Since(start)
	a.metrics.RecordAnalysis(string(doc.Kind), outcomeOf(err), elapsed)

	var diag *models.Diagnostics
	if out != nil {
		diag = out.Diagnostics
		a.recordDiagnostics(diag)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn("analysis failed",
			zap.String("kind", string(doc.Kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, diag, err
	}

	stored := &Stored{
		ID:           uuid.NewString(),
		CreatedAt:    a.now().UTC(),
		Kind:         doc.Kind,
		Dialect:      diag.Dialect,
		Result:       out.Result,
		Transactions: out.Transactions,
	}
	a.results.Set(stored.ID, stored)

	for _, typ := range []models.TransactionType{models.TypeIncome, models.TypeExpense} {
		n := 0
		for _, t := range out.Transactions {
			if t.Type == typ {
				n++
			}
		}
		a.metrics.AddTransactions(string(typ), n)
	}

	span.SetAttributes(
		attribute.String("analysis.id", stored.ID),
		attribute.String("analysis.dialect", string(diag.Dialect)),
		attribute.Int("analysis.transactions", len(out.Transactions)),
	)
	a.logger.Info("analysis completed",
		zap.String("id", stored.ID),
		zap.String("kind", string(doc.Kind)),
		zap.String("dialect", string(diag.Dialect)),
		zap.Int("transactions", len(out.Transactions)),
		zap.Int("rejected", diag.RejectedTotal()),
		zap.Int("unmatched", len(diag.Unmatched)),
		zap.Duration("elapsed", elapsed),
	)
	return stored, diag, nil
}

// Get returns a stored analysis.
func (a *Analyzer) Get(id string) (*Stored, bool) {
	s, ok := a.results.Get(id)
	a.metrics.IncrLookup(ok)
	return s, ok
}

// StoredCount returns the number of analyses currently retained.
func (a *Analyzer) StoredCount() int {
	return a.results.Len()
}

func (a *Analyzer) recordDiagnostics(diag *models.Diagnostics) {
	if diag == nil {
		return
	}
	for reason, n := range diag.Rejected {
		a.metrics.AddRejected(string(reason), n)
	}
	for grammar, n := range diag.GrammarHits {
		a.metrics.AddGrammarHits(grammar, n)
	}
}

// outcomeOf maps an analysis error to its metric label.
func outcomeOf(err error) string {
	var (
		unsupported *models.ErrUnsupportedKind
		empty       *models.ErrEmptyInput
		none        *models.ErrNoTransactions
	)
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.As(err, &unsupported):
		return observability.OutcomeUnsupported
	case errors.As(err, &empty):
		return observability.OutcomeEmpty
	case errors.As(err, &none):
		return observability.OutcomeNoTransactions
	default:
		return observability.OutcomeError
	}
}
