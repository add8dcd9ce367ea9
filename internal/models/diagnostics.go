package models

// RejectReason names why a single record was dropped.
type RejectReason string

const (
	RejectInvalidRecord   RejectReason = "invalid_record"
	RejectAmbiguousAmount RejectReason = "ambiguous_amount"
)

// UnmatchedLine is a candidate line no grammar accepted.
type UnmatchedLine struct {
	Index        int    `json:"index"`
	Content      string `json:"content"`
	DateFragment string `json:"dateFragment,omitempty"`
}

// Diagnostics captures what the pipeline did with a document. It is kept
// apart from AnalysisResult and is meant for logs and debugging.
type Diagnostics struct {
	Dialect     Dialect              `json:"dialect"`
	TotalLines  int                  `json:"totalLines"`
	NoiseLines  int                  `json:"noiseLines"`
	Unmatched   []UnmatchedLine      `json:"unmatched,omitempty"`
	Rejected    map[RejectReason]int `json:"rejected,omitempty"`
	Duplicates  int                  `json:"duplicates"`
	GrammarHits map[string]int       `json:"grammarHits,omitempty"`
}

// NewDiagnostics returns Diagnostics with initialized maps.
func NewDiagnostics(d Dialect) *Diagnostics {
	return &Diagnostics{
		Dialect:     d,
		Rejected:    make(map[RejectReason]int),
		GrammarHits: make(map[string]int),
	}
}

// Reject counts a dropped record.
func (d *Diagnostics) Reject(reason RejectReason) {
	d.Rejected[reason]++
}

// RejectedTotal returns the number of dropped records across all reasons.
func (d *Diagnostics) RejectedTotal() int {
	n := 0
	for _, c := range d.Rejected {
		n += c
	}
	return n
}
