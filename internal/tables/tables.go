// Package tables holds the keyword tables that drive dialect detection,
// noise filtering, sign inference, categorization and column lookup.
//
// Tables are immutable once built and safe for concurrent reads. Default
// returns the embedded table set; Load and Parse build alternates so tests
// and deployments can substitute their own.
package tables

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// OtherCategory is the catch-all category every table set must end with.
const OtherCategory = "other"

//go:embed default.yaml
var defaultYAML []byte

// Category is one entry of the ordered category table.
type Category struct {
	Name     string   `yaml:"name"`
	Color    string   `yaml:"color"`
	Keywords []string `yaml:"keywords"`
}

// HeaderSynonyms lists recognized column-name fragments per field.
type HeaderSynonyms struct {
	Date        []string `yaml:"date"`
	Description []string `yaml:"description"`
	Amount      []string `yaml:"amount"`
	Debit       []string `yaml:"debit"`
	Credit      []string `yaml:"credit"`
}

// MinLength holds the per-dialect minimum candidate line length.
type MinLength struct {
	Credit int `yaml:"credit"`
	Ledger int `yaml:"ledger"`
}

// Tables is the full keyword configuration.
type Tables struct {
	MinLength        MinLength      `yaml:"min_length"`
	CreditIndicators []string       `yaml:"credit_indicators"`
	LedgerIndicators []string       `yaml:"ledger_indicators"`
	NoisePatterns    []string       `yaml:"noise_patterns"`
	ExpenseKeywords  []string       `yaml:"expense_keywords"`
	Categories       []Category     `yaml:"categories"`
	HeaderSynonyms   HeaderSynonyms `yaml:"header_synonyms"`

	noise []*regexp.Regexp
	color map[string]string
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the embedded table set. It is parsed once per process.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML)
		if err != nil {
			panic("tables: embedded defaults are invalid: " + err.Error())
		}
		defaultTables = t
	})
	return defaultTables
}

// Load reads a YAML table file from disk.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file %q: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tables file %q: %w", path, err)
	}
	return t, nil
}

// Parse decodes, validates and compiles a YAML table set.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) compile() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	if last := t.Categories[len(t.Categories)-1]; last.Name != OtherCategory {
		return fmt.Errorf("last category must be %q, got %q", OtherCategory, last.Name)
	}
	if t.MinLength.Credit <= 0 || t.MinLength.Ledger <= 0 {
		return fmt.Errorf("min_length values must be positive")
	}

	t.noise = make([]*regexp.Regexp, 0, len(t.NoisePatterns))
	for _, p := range t.NoisePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("noise pattern %q: %w", p, err)
		}
		t.noise = append(t.noise, re)
	}

	t.CreditIndicators = foldAll(t.CreditIndicators)
	t.LedgerIndicators = foldAll(t.LedgerIndicators)
	t.ExpenseKeywords = foldAll(t.ExpenseKeywords)
	t.HeaderSynonyms.Date = foldAll(t.HeaderSynonyms.Date)
	t.HeaderSynonyms.Description = foldAll(t.HeaderSynonyms.Description)
	t.HeaderSynonyms.Amount = foldAll(t.HeaderSynonyms.Amount)
	t.HeaderSynonyms.Debit = foldAll(t.HeaderSynonyms.Debit)
	t.HeaderSynonyms.Credit = foldAll(t.HeaderSynonyms.Credit)

	t.color = make(map[string]string, len(t.Categories))
	for i := range t.Categories {
		c := &t.Categories[i]
		if c.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if _, dup := t.color[c.Name]; dup {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		c.Keywords = foldAll(c.Keywords)
		t.color[c.Name] = c.Color
	}
	return nil
}

// IsNoise reports whether a folded line matches any noise signature.
func (t *Tables) IsNoise(folded string) bool {
	for _, re := range t.noise {
		if re.MatchString(folded) {
			return true
		}
	}
	return false
}

// Color returns the color token of a category, or "" if unknown.
func (t *Tables) Color(category string) string {
	return t.color[category]
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}
