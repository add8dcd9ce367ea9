// Package parser turns statement text and exported rows into normalized
// transactions. It detects the statement dialect, filters noise lines, runs
// the dialect's grammar cascade on the remaining lines and normalizes dates,
// amounts and signs.
package parser

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/tables"
)

// Parser holds the read-only tables and settings of one extraction run.
// It keeps no state between calls and is safe for concurrent use.
type Parser struct {
	tables *tables.Tables
	log    *zap.Logger
	year   int
	newID  func() string
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for dropped-line diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithYear sets the year given to dates written without one.
func WithYear(year int) Option {
	return func(p *Parser) { p.year = year }
}

// WithIDFunc replaces the transaction ID generator.
func WithIDFunc(fn func() string) Option {
	return func(p *Parser) { p.newID = fn }
}

// New returns a Parser over t, or over the default tables when t is nil.
func New(t *tables.Tables, opts ...Option) *Parser {
	if t == nil {
		t = tables.Default()
	}
	p := &Parser{
		tables: t,
		log:    zap.NewNop(),
		year:   time.Now().Year(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tables returns the tables the parser was built with.
func (p *Parser) Tables() *tables.Tables { return p.tables }

// ParseLines extracts transactions from the lines of a text document.
// Lines no grammar accepts are recorded in the diagnostics, never returned
// as errors.
func (p *Parser) ParseLines(lines []models.TextLine) ([]models.Transaction, *models.Diagnostics) {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Content)
		sb.WriteByte('\n')
	}
	dialect, score := DetectDialect(sb.String(), p.tables)
	p.log.Debug("dialect detected",
		zap.String("dialect", string(dialect)),
		zap.Int("credit_score", score.Credit),
		zap.Int("ledger_score", score.Ledger),
	)

	diag := models.NewDiagnostics(dialect)
	diag.TotalLines = len(lines)
	grammars := GrammarsFor(dialect)

	var out []models.Transaction
	for _, cl := range Classify(lines, dialect, p.tables) {
		if cl.Class == models.LineNoise {
			diag.NoiseLines++
			continue
		}

		raw, ok := MatchLine(cl.Content, grammars)
		if !ok {
			frag := dateFragment(cl.Content)
			diag.Unmatched = append(diag.Unmatched, models.UnmatchedLine{
				Index:        cl.Index,
				Content:      cl.Content,
				DateFragment: frag,
			})
			p.log.Debug("line unmatched",
				zap.Int("line", cl.Index),
				zap.String("content", cl.Content),
				zap.String("date_fragment", frag),
			)
			continue
		}
		raw.Line = cl.Index

		txn, reason, ok := p.Normalize(raw, dialect)
		if !ok {
			diag.Reject(reason)
			p.log.Debug("line rejected",
				zap.Int("line", cl.Index),
				zap.String("grammar", raw.Grammar),
				zap.String("reason", string(reason)),
			)
			continue
		}
		diag.GrammarHits[raw.Grammar]++
		out = append(out, txn)
	}
	return out, diag
}

// Normalize resolves the date, amount and sign of a raw transaction. The
// reject reason is set when ok is false.
func (p *Parser) Normalize(raw models.RawTransaction, d models.Dialect) (models.Transaction, models.RejectReason, bool) {
	date, ok := ParseDate(raw.Date, p.year)
	if !ok {
		return models.Transaction{}, models.RejectInvalidRecord, false
	}
	desc, ok := CleanDescription(raw.Description)
	if !ok {
		return models.Transaction{}, models.RejectInvalidRecord, false
	}

	token, sign := raw.Amount, raw.Sign
	if d == models.DialectLedger {
		if token, ok = SelectLedgerAmount(raw.Amount); !ok {
			return models.Transaction{}, models.RejectAmbiguousAmount, false
		}
		sign = InferLedgerSign(desc, p.tables)
	}

	v, ok := ParseAmount(token)
	if !ok {
		return models.Transaction{}, models.RejectInvalidRecord, false
	}

	loc := collapseSpaces(raw.Location)
	if raw.Reversal {
		if v >= 0 {
			return models.Transaction{}, models.RejectInvalidRecord, false
		}
		txn := p.newTransaction(date, desc, loc, -v, models.TypeExpense)
		txn.Reversal = true
		return txn, "", true
	}
	if v <= 0 {
		return models.Transaction{}, models.RejectInvalidRecord, false
	}

	typ := models.TypeIncome
	if sign == models.SignOutflow {
		typ = models.TypeExpense
	}
	return p.newTransaction(date, desc, loc, v, typ), "", true
}

// newTransaction builds a transaction from an unsigned amount. Expenses get
// a negative SignedAmount.
func (p *Parser) newTransaction(date time.Time, desc, loc string, amount float64, typ models.TransactionType) models.Transaction {
	signed := amount
	if typ == models.TypeExpense {
		signed = -amount
	}
	return models.Transaction{
		ID:           p.newID(),
		Date:         date,
		Description:  desc,
		Location:     loc,
		Amount:       amount,
		SignedAmount: signed,
		Type:         typ,
	}
}
