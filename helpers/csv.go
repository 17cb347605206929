package helpers

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================================
// FILE READERS — Turn a sheet file into raw rows of cells
// ============================================================================
// Readers do no interpretation: no header detection, no trimming, no type
// conversion. BuildStore owns all of that so every source is treated alike.
// ============================================================================

var (
	// ErrUnsupportedFormat is returned for files that are not csv, xlsx or xls.
	ErrUnsupportedFormat = errors.New("unsupported sheet format")
	// ErrInsufficientData is returned when a sheet has fewer rows than the
	// configured header row.
	ErrInsufficientData = errors.New("insufficient data")
)

// Sheet formats.
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatXLS      = "xls"
	FormatSQLite   = "sqlite"
	FormatPostgres = "postgres"
)

// DetectFormat maps a file extension to a sheet format.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", filepath.Base(path))
}

// ReadCSV reads every row of a CSV stream. Ragged rows are kept as-is.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	return rows, nil
}

// ReadFile reads a sheet file. format "" picks by extension; sheet selects
// a worksheet in a workbook ("" = first).
func ReadFile(path, format, sheet string) ([][]string, error) {
	if format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	switch format {
	case FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open sheet")
		}
		defer f.Close()
		return ReadCSV(f)

	case FormatXLSX:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open workbook")
		}
		defer f.Close()
		return ReadExcel(f, sheet)

	case FormatXLS:
		return ReadXLS(path)
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q for %q", format, filepath.Base(path))
}
