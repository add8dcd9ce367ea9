package parser

import (
	"regexp"
	"strings"
)

// Building blocks shared by the grammar families.
const (
	fullDate    = `\d{1,2}/\d{1,2}/\d{4}`
	shortDate   = `\d{1,2}/\d{1,2}`
	amountToken = `\d{1,3}(?:\.\d{3})*`
	installment = `\d{2}/\d{2}`
	periodToken = `[A-Za-z]{3}-\d{4}`
	placeName   = `[A-Za-zÀ-ÿ][A-Za-zÀ-ÿ .'-]*?`
)

var (
	// dateFragmentPattern finds anything that looks like a date in a dropped line.
	dateFragmentPattern = regexp.MustCompile(`\d{1,2}/\d{1,2}(?:/\d{2,4})?`)
	// numericTokenPattern matches whitespace-delimited tokens containing a digit.
	numericTokenPattern = regexp.MustCompile(`\S*\d\S*`)
	// numericRunPattern matches a signed run of digits and thousand dots.
	numericRunPattern = regexp.MustCompile(`-?\d[\d.]*`)
	// thousandRunPattern matches one dot-separated thousands number. Leading
	// zeros are not allowed so that glued runs split at the right digit.
	thousandRunPattern = regexp.MustCompile(`[1-9]\d{0,2}(?:\.\d{3})+`)
	// validAmountSuffix picks the longest well-formed amount at the end of a run.
	validAmountSuffix = regexp.MustCompile(`-?\d{1,3}(?:\.\d{3})*$`)

	spaceRun = regexp.MustCompile(`\s+`)
)

// collapseSpaces trims s and replaces internal whitespace runs with one space.
func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// stripNumerics removes every token that contains a digit.
func stripNumerics(s string) string {
	return collapseSpaces(numericTokenPattern.ReplaceAllString(s, " "))
}

// dateFragment returns the first date-like fragment in a line, or "".
func dateFragment(line string) string {
	return dateFragmentPattern.FindString(line)
}

// namedGroups maps the named subexpressions of re to their submatches.
func namedGroups(re *regexp.Regexp, m []string) map[string]string {
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(m) {
			out[name] = m[i]
		}
	}
	return out
}
