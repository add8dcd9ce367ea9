// Package extractor adapts uploaded files into the inputs the pipeline
// takes: text lines for statements, ordered rows for exports.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF is returned when no method yields readable text, which
// usually means a scanned statement.
var ErrUnreadablePDF = errors.New("no readable text in PDF: the file may be scanned or use unsupported font encodings; export the statement as CSV or paste its text instead")

// ExtractPDF returns the text of each page of a PDF. The ledongthuc/pdf
// reader is tried first; pdftotext (poppler-utils) is the fallback.
func ExtractPDF(ctx context.Context, data []byte) ([]string, error) {
	pages, libErr := extractWithLibrary(data)
	if libErr == nil && IsReadableText(pages) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(ctx, data)
	if popplerErr == nil && IsReadableText(popplerPages) {
		return popplerPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("%w (reader: %v)", ErrUnreadablePDF, libErr)
	}
	return nil, ErrUnreadablePDF
}

// statementWords appear in nearly every statement. Text containing none of
// them is taken to be garbage from an undecodable font.
var statementWords = []string{
	"fecha", "monto", "total", "saldo", "cuenta", "tarjeta", "cargo", "abono",
	"pago", "compra", "cuota", "periodo", "date", "amount", "balance", "statement",
}

// IsReadableText requires more than 50 characters, more than 60% of them
// plain readable runes, and at least one statement word.
func IsReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 || textQuality(pages) <= 0.6 {
		return false
	}
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, w := range statementWords {
		if strings.Contains(combined, w) {
			return true
		}
	}
	return false
}

// textQuality is the ratio of ASCII letters, digits, Spanish letters,
// whitespace and common punctuation to all runes.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || r == '$' || r == '+' || r == '=') {
				readable++
				continue
			}
			if strings.ContainsRune("áéíóúÁÉÍÓÚñÑüÜ°", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

// extractWithPdftotext writes data to a temp file and runs
// "pdftotext -layout", which keeps table columns on one line.
func extractWithPdftotext(ctx context.Context, data []byte) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	f, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", f.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	var pages []string
	for _, p := range strings.Split(string(out), "\f") {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return nil, errors.New("pdftotext produced no output")
	}
	return pages, nil
}

// extractWithLibrary tries row extraction, then coordinate-based row
// reconstruction, then whole-document plain text.
func extractWithLibrary(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, errors.New("PDF has no pages")
	}

	if pages = extractByRow(r, numPages); IsReadableText(pages) {
		return pages, nil
	}
	if pages = extractByContent(r, numPages); IsReadableText(pages) {
		return pages, nil
	}
	if plain := extractPlainText(r); IsReadableText([]string{plain}) {
		return []string{plain}, nil
	}
	return pages, nil
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by rounded Y and orders them by X.
// Gaps wider than columnGap become a space so glued columns stay apart.
func extractByContent(r *pdf.Reader, numPages int) []string {
	const columnGap = 15

	type piece struct {
		x float64
		s string
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		rows := make(map[int][]piece)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], piece{x: t.X, s: t.S})
		}
		if len(rows) == 0 {
			continue
		}

		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		// PDF Y grows upwards.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var lines []string
		for _, y := range ys {
			items := rows[y]
			sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

			var sb strings.Builder
			for j, it := range items {
				if j > 0 && it.x-items[j-1].x > columnGap {
					sb.WriteByte(' ')
				}
				sb.WriteString(it.s)
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractPlainText(r *pdf.Reader) string {
	rd, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
