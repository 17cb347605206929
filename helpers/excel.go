package helpers

import (
	"io"

	"github.com/extrame/xls"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ReadExcel reads a worksheet of an xlsx workbook. sheet "" reads the first.
// Cells come back as displayed, so currency formats survive for ParseNumeric.
func ReadExcel(r io.Reader, sheet string) ([][]string, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook")
	}
	defer xl.Close()

	if sheet == "" {
		sheet = xl.GetSheetName(0)
	}
	if idx, err := xl.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.Errorf("worksheet %q not found", sheet)
	}

	rows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read worksheet %q", sheet)
	}
	return rows, nil
}

// ReadXLS reads the first worksheet of a legacy xls workbook.
func ReadXLS(path string) ([][]string, error) {
	book, err := xls.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open xls workbook")
	}

	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, errors.New("xls workbook has no sheets")
	}

	var rows [][]string
	for _, xlsRow := range sheet.GetRows() {
		var cells []string
		for _, col := range xlsRow.GetCols() {
			cells = append(cells, col.GetString())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
