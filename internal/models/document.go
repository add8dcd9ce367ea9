package models

// DocumentKind is the declared kind of an uploaded document.
type DocumentKind string

const (
	KindTabularDocument DocumentKind = "tabular-document"
	KindDelimitedText   DocumentKind = "delimited-text"
	KindSpreadsheet     DocumentKind = "spreadsheet"
)

// ParseKind maps user input (kind names and common file extensions) to a DocumentKind.
func ParseKind(s string) (DocumentKind, bool) {
	switch s {
	case "tabular-document", "tabular", "pdf", "txt", "text":
		return KindTabularDocument, true
	case "delimited-text", "delimited", "csv", "tsv":
		return KindDelimitedText, true
	case "spreadsheet", "xls", "xlsx":
		return KindSpreadsheet, true
	}
	return "", false
}

// Field is a single named cell of a parsed row.
type Field struct {
	Name  string
	Value string
}

// Row is an ordered field-map produced by a delimited-text or spreadsheet reader.
type Row []Field

// RawDocument is what the upstream collaborator hands to the pipeline.
// For KindTabularDocument, Text holds pre-extracted text with line breaks
// preserved. For the other kinds, Rows holds the already-parsed records.
type RawDocument struct {
	Kind DocumentKind
	Text []byte
	Rows []Row
}

// Dialect is a family of statement layouts sharing noise filters and grammars.
type Dialect string

const (
	// DialectCredit is the tabular credit-card statement layout.
	DialectCredit Dialect = "credit-statement"
	// DialectLedger is the running-ledger current-account layout.
	DialectLedger Dialect = "current-account"
	// DialectRows is used for delimited-text and spreadsheet documents.
	DialectRows Dialect = "rows"
)

// TextLine is one line of extracted text.
type TextLine struct {
	Index   int
	Content string
}

// LineClass tags a TextLine after classification.
type LineClass string

const (
	LineCandidate LineClass = "candidate"
	LineNoise     LineClass = "noise"
)

// ClassifiedLine is a TextLine with its classification.
type ClassifiedLine struct {
	TextLine
	Class LineClass
}
