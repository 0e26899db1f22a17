package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads one worksheet of an .xlsx workbook into a Table.
// An empty sheetName selects the first worksheet.
func ReadXLSX(r io.Reader, sheetName string) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, ErrNoHeader
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	return tableFromRows(rows)
}
