// Package pipeline runs one document through line splitting, normalization,
// deduplication, categorization and aggregation.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-analyzer/internal/analyzer"
	"github.com/insightdelivered/statement-analyzer/internal/categorizer"
	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/parser"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

// Hints attached to ErrNoTransactions.
const (
	hintText = "no line looked like a transaction; try the CSV or spreadsheet export of this statement"
	hintRows = "no row had a usable date, description and amount; check the column headers or upload the PDF statement instead"
)

// Output is everything one run produces.
type Output struct {
	Result       *models.AnalysisResult
	Transactions []models.Transaction
	Diagnostics  *models.Diagnostics
}

// Pipeline wires the stages together. It holds only read-only
// configuration and can be shared across goroutines.
type Pipeline struct {
	parser      *parser.Parser
	categorizer *categorizer.Categorizer
	analyzer    *analyzer.Analyzer
	log         *zap.Logger
}

type options struct {
	log          *zap.Logger
	parserOpts   []parser.Option
	analyzerOpts []analyzer.Option
}

// Option configures a Pipeline.
type Option func(*options)

// WithLogger sets the logger passed to every stage.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithParserOptions forwards options to the parser.
func WithParserOptions(opts ...parser.Option) Option {
	return func(o *options) { o.parserOpts = append(o.parserOpts, opts...) }
}

// WithAnalyzerOptions forwards options to the analyzer.
func WithAnalyzerOptions(opts ...analyzer.Option) Option {
	return func(o *options) { o.analyzerOpts = append(o.analyzerOpts, opts...) }
}

// New builds a Pipeline over t, or over the default tables when t is nil.
func New(t *tables.Tables, opts ...Option) *Pipeline {
	if t == nil {
		t = tables.Default()
	}
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	parserOpts := append([]parser.Option{parser.WithLogger(o.log)}, o.parserOpts...)
	return &Pipeline{
		parser:      parser.New(t, parserOpts...),
		categorizer: categorizer.New(t),
		analyzer:    analyzer.New(o.analyzerOpts...),
		log:         o.log,
	}
}

// Analyze turns a document into an analysis. Only document-level failures
// are returned as errors: *models.ErrUnsupportedKind, *models.ErrEmptyInput
// and *models.ErrNoTransactions. Diagnostics are returned whenever parsing
// ran, including with ErrNoTransactions.
func (p *Pipeline) Analyze(doc models.RawDocument) (*Output, error) {
	var (
		txns []models.Transaction
		diag *models.Diagnostics
		hint string
	)

	switch doc.Kind {
	case models.KindTabularDocument:
		lines := parser.SplitLines(string(doc.Text))
		if len(lines) == 0 {
			return nil, &models.ErrEmptyInput{Kind: doc.Kind}
		}
		txns, diag = p.parser.ParseLines(lines)
		hint = hintText
	case models.KindDelimitedText, models.KindSpreadsheet:
		if len(doc.Rows) == 0 {
			return nil, &models.ErrEmptyInput{Kind: doc.Kind}
		}
		txns, diag = p.parser.ParseRows(doc.Rows)
		hint = hintRows
	default:
		return nil, &models.ErrUnsupportedKind{Kind: doc.Kind}
	}

	txns, diag.Duplicates = parser.Dedupe(txns)
	if len(txns) == 0 {
		return &Output{Diagnostics: diag}, &models.ErrNoTransactions{Dialect: diag.Dialect, Hint: hint}
	}

	txns = p.categorizer.Apply(txns)
	result := p.analyzer.Analyze(txns, p.categorizer.Stats(txns))

	p.log.Debug("document analyzed",
		zap.String("kind", string(doc.Kind)),
		zap.String("dialect", string(diag.Dialect)),
		zap.Int("lines", diag.TotalLines),
		zap.Int("noise", diag.NoiseLines),
		zap.Int("unmatched", len(diag.Unmatched)),
		zap.Int("rejected", diag.RejectedTotal()),
		zap.Int("duplicates", diag.Duplicates),
		zap.Int("transactions", len(txns)),
	)
	return &Output{Result: result, Transactions: txns, Diagnostics: diag}, nil
}

// Tables returns the keyword tables the pipeline was built with.
func (p *Pipeline) Tables() *tables.Tables { return p.parser.Tables() }
