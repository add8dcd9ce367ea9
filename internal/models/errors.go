package models

import "fmt"

// ErrUnsupportedKind is returned when no handler exists for the declared kind.
type ErrUnsupportedKind struct {
	Kind DocumentKind
}

func (e *ErrUnsupportedKind) Error() string {
	return fmt.Sprintf("unsupported document kind %q: use tabular-document, delimited-text or spreadsheet", e.Kind)
}

// ErrEmptyInput is returned when a document yields no lines or rows.
type ErrEmptyInput struct {
	Kind DocumentKind
}

func (e *ErrEmptyInput) Error() string {
	return fmt.Sprintf("document of kind %q contains no extractable lines or rows", e.Kind)
}

// ErrNoTransactions is returned when every line was noise or failed all grammars.
type ErrNoTransactions struct {
	Dialect Dialect
	Hint    string
}

func (e *ErrNoTransactions) Error() string {
	msg := fmt.Sprintf("no transactions found in %s document", e.Dialect)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}
