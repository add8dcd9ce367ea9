package extractor

import (
	"errors"
	"fmt"
	"io"

	"github.com/extrame/xls"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// ReadSpreadsheet reads the first sheet of an .xls workbook into ordered
// rows. The first non-empty row is the header.
func ReadSpreadsheet(r io.ReadSeeker) (rows []models.Row, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read spreadsheet: malformed workbook: %v", rec)
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("spreadsheet has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("could not read first sheet")
	}

	records := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		rec := make([]string, row.LastCol())
		for c := range rec {
			rec[c] = row.Col(c)
		}
		records = append(records, rec)
	}
	return recordsToRows(records), nil
}
