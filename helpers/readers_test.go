package helpers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/progdash/engine"
	"github.com/spektr-org/progdash/schema"
)

func writeWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"PROGRAMME PERFORMANCE"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"YEAR", "MDA", "AMOUNT NOW DUE"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"2023", "A", 100}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"2023", "B", "₦250.75"}))

	_, err := f.NewSheet("2024")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("2024", "A1", &[]interface{}{"PROGRAMME PERFORMANCE"}))
	require.NoError(t, f.SetSheetRow("2024", "A2", &[]interface{}{"YEAR", "MDA", "AMOUNT NOW DUE"}))
	require.NoError(t, f.SetSheetRow("2024", "A3", &[]interface{}{"2024", "C", 40}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadExcel(t *testing.T) {
	buf := writeWorkbook(t)

	rows, err := ReadExcel(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"YEAR", "MDA", "AMOUNT NOW DUE"}, rows[1])
	assert.Equal(t, []string{"2023", "B", "₦250.75"}, rows[3])

	rows, err = ReadExcel(bytes.NewReader(buf.Bytes()), "2024")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "C", rows[2][1])

	_, err = ReadExcel(bytes.NewReader(buf.Bytes()), "2030")
	assert.Error(t, err)
}

func TestLoadWorkbookSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programme.xlsx")
	require.NoError(t, os.WriteFile(path, writeWorkbook(t).Bytes(), 0644))

	cfg := schema.Default()
	srcs, closer, err := SourcesFromConfig(context.Background(), schema.SourceConfig{
		Path:   path,
		Sheets: []string{"Sheet1", "2024"},
	})
	require.NoError(t, err)
	defer closer()

	ds, err := LoadAll(context.Background(), cfg, nil, srcs...)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Store.Len())
	assert.Equal(t, 390.75, engine.SumMeasure(ds.Store, "AMOUNT NOW DUE"))
	assert.Equal(t, []string{"2023", "2024"}, engine.UniqueValues(ds.Store, "YEAR"))
}

func TestSQLiteSource(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE programme (year TEXT, mda TEXT, "amount now due" REAL, lga TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO programme VALUES
		('2023', 'A', 100, 'Ikeja'),
		('2023', 'B', 200.5, NULL),
		('2024', 'A', NULL, 'Epe')`)
	require.NoError(t, err)

	src := &SQLSource{DB: db, Query: "SELECT * FROM programme"}
	sheet, err := src.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.HeaderRow)
	assert.Equal(t, []string{"year", "mda", "amount now due", "lga"}, sheet.Rows[0])
	assert.Equal(t, []string{"2023", "B", "200.5", ""}, sheet.Rows[2])

	ds, err := LoadAll(context.Background(), schema.Default(), nil, src)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Store.Len())

	res, err := engine.Execute(ds.Store, ds.Dashboard, engine.Selections{"YEAR": {"2023"}})
	require.NoError(t, err)
	assert.Equal(t, 300.5, engine.KPIMap(res.KPIs)["total_amount_now_due"])
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("bytes"), "bytes"},
		{int64(42), "42"},
		{1234.5, "1234.5"},
		{time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC), "2023-04-05"},
		{time.Date(2023, 4, 5, 9, 30, 0, 0, time.UTC), "2023-04-05 09:30:00"},
		{decimal.RequireFromString("1000.50"), "1000.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cellString(tt.in), "%#v", tt.in)
	}
}
