package importer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"asset-tracker/pkg/models"
)

func workbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sh, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, r := range rows {
			row := sh.AddRow()
			for _, v := range r {
				c := row.AddCell()
				switch x := v.(type) {
				case string:
					c.SetString(x)
				case float64:
					c.SetFloat(x)
				case time.Time:
					c.SetDate(x)
				}
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func defaultMapping(t *testing.T) *MappingConfig {
	t.Helper()
	m, err := DefaultMapping()
	require.NoError(t, err)
	return m
}

func TestDefaultMappingLoads(t *testing.T) {
	m := defaultMapping(t)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "active", m.Defaults["status"])
	sc, ok := m.forSheet("anything")
	require.True(t, ok)
	assert.True(t, sc.Columns["category"].optional())
	assert.False(t, sc.Columns["serial_number"].optional())
}

func TestLoadMappingRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nsheets:\n  Assets:\n    columns:\n      colour:\n        type: TEXT\n"), 0o600))

	_, err := LoadMapping(path)
	assert.ErrorContains(t, err, "unknown field")
}

func TestParseWorkbookWithAliasedHeaders(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Inventory": {
			{"Asset Name", "S/N", "Type", "Purchased", "Cost", "State"},
			{"Dell Latitude", "DL-001", "Laptop", "2024-01-15", 1299.99, "Active"},
			{"", "", "", "", "", ""},
			{"HP Monitor", "HP-002", "", "03/04/2023", "$249.50", ""},
		},
	})

	sheets, err := ParseWorkbook(data, defaultMapping(t), nil)
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	ps := sheets[0]
	assert.Empty(t, ps.Errors)
	assert.Equal(t, 1, ps.Skipped)
	require.Len(t, ps.Rows, 2)

	first := ps.Rows[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "Dell Latitude", first.Input.Name)
	assert.Equal(t, "DL-001", first.Input.SerialNumber)
	assert.Equal(t, "Laptop", first.Input.Category)
	assert.Equal(t, "2024-01-15", first.Input.PurchaseDate.String())
	assert.True(t, decimal.RequireFromString("1299.99").Equal(first.Input.PurchasePrice))
	assert.Equal(t, models.StatusActive, first.Input.Status)

	second := ps.Rows[1]
	assert.Equal(t, 4, second.Row)
	assert.Equal(t, "", second.Input.Category)
	assert.Equal(t, "2023-03-04", second.Input.PurchaseDate.String())
	assert.True(t, decimal.RequireFromString("249.5").Equal(second.Input.PurchasePrice))
	assert.Equal(t, models.StatusActive, second.Input.Status, "status falls back to the mapping default")
}

func TestParseWorkbookDateCells(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Assets": {
			{"Name", "Serial Number", "Purchase Date", "Purchase Price"},
			{"Router", "RT-1", time.Date(2022, 7, 9, 0, 0, 0, 0, time.UTC), 89.0},
		},
	})

	sheets, err := ParseWorkbook(data, defaultMapping(t), nil)
	require.NoError(t, err)
	require.Len(t, sheets[0].Rows, 1)
	assert.Equal(t, "2022-07-09", sheets[0].Rows[0].Input.PurchaseDate.String())
}

func TestParseWorkbookRowErrors(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Assets": {
			{"Name", "Serial Number", "Purchase Date", "Purchase Price", "Status"},
			{"No Serial", "", "2024-01-01", 10.0, "active"},
			{"Bad Date", "SN-2", "yesterday", 10.0, "active"},
			{"Bad Status", "SN-3", "2024-01-01", 10.0, "lost"},
			{"Good", "SN-4", "2024-01-01", 10.0, "disposed"},
		},
	})

	sheets, err := ParseWorkbook(data, defaultMapping(t), nil)
	require.NoError(t, err)
	ps := sheets[0]
	require.Len(t, ps.Errors, 3)
	assert.Equal(t, 2, ps.Errors[0].Row)
	assert.Contains(t, ps.Errors[0].Message, "serial_number is required")
	assert.Contains(t, ps.Errors[1].Message, "invalid date format")
	assert.Equal(t, 4, ps.Errors[2].Row)
	require.Len(t, ps.Rows, 1)
	assert.Equal(t, models.StatusDisposed, ps.Rows[0].Input.Status)
}

func TestParseWorkbookMissingRequiredColumn(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Assets": {
			{"Name", "Purchase Date", "Purchase Price"},
			{"Laptop", "2024-01-01", 10.0},
		},
	})

	sheets, err := ParseWorkbook(data, defaultMapping(t), nil)
	require.NoError(t, err)
	require.Len(t, sheets[0].Errors, 1)
	assert.Equal(t, "missing column for serial_number", sheets[0].Errors[0].Message)
	assert.Empty(t, sheets[0].Rows)
}

type rejectAll struct{}

func (rejectAll) Struct(interface{}) error { return errors.New("Purchase price must be greater than 0") }

func TestParseWorkbookAppliesValidator(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Assets": {
			{"Name", "Serial Number", "Purchase Date", "Purchase Price"},
			{"Laptop", "SN-1", "2024-01-01", 0.0},
		},
	})

	sheets, err := ParseWorkbook(data, defaultMapping(t), rejectAll{})
	require.NoError(t, err)
	require.Len(t, sheets[0].Errors, 1)
	assert.Equal(t, "Purchase price must be greater than 0", sheets[0].Errors[0].Message)
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	_, err := ParseWorkbook([]byte("not an excel file"), defaultMapping(t), nil)
	assert.Error(t, err)
}

func TestSummaryAdd(t *testing.T) {
	var s ImportSummary
	s.add(SheetSummary{Name: "a", Inserted: 2, Updated: 1, Errors: 1})
	s.add(SheetSummary{Name: "b", Inserted: 1, Skipped: 3})
	assert.Equal(t, 3, s.Inserted)
	assert.Equal(t, 1, s.Updated)
	assert.Equal(t, 3, s.Skipped)
	assert.Equal(t, 1, s.Errors)
	assert.Len(t, s.Sheets, 2)
}
