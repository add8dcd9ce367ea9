package extractor

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadDelimited reads a delimited export into ordered rows. The first
// record is the header. The delimiter (comma, semicolon or tab) is
// sniffed from the header line.
func ReadDelimited(r io.Reader) ([]models.Row, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read delimited text: %w", err)
	}
	if bytes.HasPrefix(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("read delimited text: %w", err)
		}
		head = head[len(utf8BOM):]
	}

	reader := gocsv.LazyCSVReader(br)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.Comma = sniffDelimiter(head)
		cr.FieldsPerRecord = -1
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited text: %w", err)
	}
	return recordsToRows(records), nil
}

// sniffDelimiter picks the most frequent candidate in the first line.
func sniffDelimiter(head []byte) rune {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// recordsToRows uses the first non-empty record as header. Cells beyond
// the header width are dropped; blank records are skipped.
func recordsToRows(records [][]string) []models.Row {
	var header []string
	var rows []models.Row
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		if header == nil {
			header = make([]string, len(rec))
			for i, h := range rec {
				header[i] = strings.TrimSpace(h)
			}
			continue
		}
		row := make(models.Row, 0, len(header))
		for i, name := range header {
			var v string
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			row = append(row, models.Field{Name: name, Value: v})
		}
		rows = append(rows, row)
	}
	return rows
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
