package parser

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// minDescriptionLength is the shortest description a transaction may carry.
const minDescriptionLength = 3

// ParseDate converts a day/month[/year] token into a calendar date.
// Tokens without a year take defaultYear. ISO yyyy-mm-dd is also accepted.
// The date must round-trip: 31/09/2025 is rejected rather than rolled over.
func ParseDate(token string, defaultYear int) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}

	parts := strings.FieldsFunc(token, func(r rune) bool { return r == '/' || r == '-' || r == '.' })
	var day, month, year int
	var err error

	switch {
	case len(parts) == 3 && len(parts[0]) == 4:
		if year, err = strconv.Atoi(parts[0]); err != nil {
			return time.Time{}, false
		}
		if month, err = strconv.Atoi(parts[1]); err != nil {
			return time.Time{}, false
		}
		if day, err = strconv.Atoi(parts[2]); err != nil {
			return time.Time{}, false
		}
	case len(parts) == 3 || len(parts) == 2:
		if day, err = strconv.Atoi(parts[0]); err != nil {
			return time.Time{}, false
		}
		if month, err = strconv.Atoi(parts[1]); err != nil {
			return time.Time{}, false
		}
		year = defaultYear
		if len(parts) == 3 {
			if year, err = strconv.Atoi(parts[2]); err != nil {
				return time.Time{}, false
			}
			if len(parts[2]) == 2 {
				year += 2000
			}
		}
	default:
		return time.Time{}, false
	}

	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}

// ParseAmount converts a locale amount token ("89.990", "-17.040", "$ 1.234")
// into a number. Dots are thousands separators; a comma marks decimals.
func ParseAmount(token string) (float64, bool) {
	s := strings.TrimSpace(token)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "\u00A0", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if s == "" || s == "-" || s == "+" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// isFinite rejects the NaN and Inf spellings strconv.ParseFloat accepts.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CleanDescription collapses whitespace and rejects descriptions that are too short.
func CleanDescription(s string) (string, bool) {
	s = collapseSpaces(s)
	if len([]rune(s)) < minDescriptionLength {
		return "", false
	}
	return s, true
}
