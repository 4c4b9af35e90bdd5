// Package importer loads assets from .xlsx workbooks into the assets table.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"asset-tracker/pkg/models"
)

// DefaultMaxErrors bounds the row errors tolerated before an import aborts.
const DefaultMaxErrors = 50

// Validator checks a parsed row before it is written.
type Validator interface {
	Struct(s interface{}) error
}

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string // empty uses the built-in mapping
	Mapping     *MappingConfig
	DryRun      bool
	MaxErrors   int
	Validator   Validator
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Message)
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

func (s *ImportSummary) add(sh SheetSummary) {
	s.Sheets = append(s.Sheets, sh)
	s.Inserted += sh.Inserted
	s.Updated += sh.Updated
	s.Skipped += sh.Skipped
	s.Errors += sh.Errors
}

// ErrTooManyErrors aborts an import whose row errors exceed MaxErrors.
var ErrTooManyErrors = errors.New("too many row errors")

// ParsedRow is one data row converted to an asset payload.
type ParsedRow struct {
	Row   int
	Input models.AssetInput
}

// ParsedSheet is the outcome of reading one mapped sheet.
type ParsedSheet struct {
	Name    string
	Rows    []ParsedRow
	Skipped int
	Errors  []RowError
}

// ImportExcel processes an Excel file and upserts its rows by serial number.
// All writes share one transaction, which a dry run rolls back.
func ImportExcel(ctx context.Context, db *pgxpool.Pool, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{DryRun: opts.DryRun, Sheets: []SheetSummary{}}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultMaxErrors
	}

	mapping := opts.Mapping
	if mapping == nil {
		m, err := LoadMapping(opts.MappingPath)
		if err != nil {
			return summary, fmt.Errorf("failed to load mapping config: %w", err)
		}
		mapping = m
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}

	sheets, err := ParseWorkbook(data, mapping, opts.Validator)
	if err != nil {
		return summary, err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return summary, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, ps := range sheets {
		sh := writeSheet(ctx, tx, ps)
		summary.add(sh)
		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("%w: %d, stopping import", ErrTooManyErrors, summary.Errors)
		}
	}

	if opts.DryRun {
		return summary, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return summary, fmt.Errorf("commit import: %w", err)
	}
	return summary, nil
}

// ParseWorkbook reads every mapped sheet of an .xlsx workbook. Rows that
// cannot be converted, or that v rejects, are reported as RowErrors.
func ParseWorkbook(data []byte, mapping *MappingConfig, v Validator) ([]ParsedSheet, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}

	var out []ParsedSheet
	for _, sheet := range xlFile.Sheets {
		sc, ok := mapping.forSheet(sheet.Name)
		if !ok {
			continue
		}
		out = append(out, parseSheet(sheet, sc, mapping.Defaults, v))
	}
	return out, nil
}

func parseSheet(sheet *xlsx.Sheet, sc SheetConfig, defaults map[string]string, v Validator) ParsedSheet {
	ps := ParsedSheet{Name: sheet.Name}
	if sheet.MaxRow == 0 {
		return ps
	}

	headers := sc.resolveHeaders()
	fieldCols := make(map[string]int)
	for col := 0; col < sheet.MaxCol; col++ {
		cell, err := sheet.Cell(0, col)
		if err != nil {
			continue
		}
		if field, ok := headers[normalizeHeader(cell.String())]; ok {
			if _, dup := fieldCols[field]; !dup {
				fieldCols[field] = col
			}
		}
	}

	for field, col := range sc.Columns {
		if _, ok := fieldCols[field]; !ok && !col.optional() {
			ps.Errors = append(ps.Errors, RowError{Sheet: sheet.Name, Row: 1, Message: "missing column for " + field})
		}
	}
	if len(ps.Errors) > 0 {
		return ps
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		cells := make(map[string]*xlsx.Cell, len(fieldCols))
		empty := true
		for field, col := range fieldCols {
			cell, err := sheet.Cell(rowIdx, col)
			if err != nil || cell == nil {
				continue
			}
			if strings.TrimSpace(cell.String()) != "" {
				empty = false
			}
			cells[field] = cell
		}
		if empty {
			ps.Skipped++
			continue
		}

		in, err := buildInput(cells, sc, defaults)
		if err == nil && v != nil {
			err = v.Struct(in)
		}
		if err != nil {
			ps.Errors = append(ps.Errors, RowError{Sheet: sheet.Name, Row: rowIdx + 1, Message: err.Error()})
			continue
		}
		ps.Rows = append(ps.Rows, ParsedRow{Row: rowIdx + 1, Input: in})
	}
	return ps
}

func buildInput(cells map[string]*xlsx.Cell, sc SheetConfig, defaults map[string]string) (models.AssetInput, error) {
	var in models.AssetInput
	for field, col := range sc.Columns {
		cell := cells[field]
		raw := ""
		if cell != nil {
			raw = strings.TrimSpace(cell.String())
		}
		if raw == "" {
			raw = defaults[field]
		}
		if raw == "" {
			if col.optional() {
				continue
			}
			return in, fmt.Errorf("%s is required", field)
		}

		switch col.baseType() {
		case "TEXT":
			setText(&in, field, raw)
		case "DATE":
			d, err := parseDate(cell, raw)
			if err != nil {
				return in, fmt.Errorf("failed to parse %s: %v", field, err)
			}
			in.PurchaseDate = d
		case "DECIMAL":
			p, err := parseDecimal(cell, raw)
			if err != nil {
				return in, fmt.Errorf("failed to parse %s: %v", field, err)
			}
			in.PurchasePrice = p
		case "STATUS":
			s, err := models.ParseStatus(raw)
			if err != nil {
				return in, err
			}
			in.Status = s
		}
	}
	return in, nil
}

func setText(in *models.AssetInput, field, value string) {
	switch field {
	case "name":
		in.Name = value
	case "description":
		in.Description = value
	case "category":
		in.Category = value
	case "serial_number":
		in.SerialNumber = value
	case "status":
		in.Status = models.Status(strings.ToLower(value))
	}
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"2006/01/02",
}

func parseDate(cell *xlsx.Cell, raw string) (models.Date, error) {
	if cell != nil && cell.IsTime() {
		if t, err := cell.GetTime(false); err == nil {
			return models.DateOf(t), nil
		}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.DateOf(t), nil
		}
	}
	return models.Date{}, fmt.Errorf("invalid date format: %s", raw)
}

func parseDecimal(cell *xlsx.Cell, raw string) (decimal.Decimal, error) {
	if cell != nil && cell.Type() == xlsx.CellTypeNumeric && cell.Value != "" {
		raw = cell.Value
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number: %s", raw)
	}
	return d.Round(2), nil
}

func writeSheet(ctx context.Context, tx pgx.Tx, ps ParsedSheet) SheetSummary {
	sh := SheetSummary{Name: ps.Name, Skipped: ps.Skipped, Errors: len(ps.Errors), Samples: ps.Errors}

	for _, row := range ps.Rows {
		inserted, err := upsertRow(ctx, tx, row.Input)
		if err != nil {
			sh.Errors++
			sh.Samples = append(sh.Samples, RowError{Sheet: ps.Name, Row: row.Row, Message: err.Error()})
			continue
		}
		if inserted {
			sh.Inserted++
		} else {
			sh.Updated++
		}
	}
	return sh
}

const upsertSQL = `
	INSERT INTO assets (name, description, category, serial_number, purchase_date, purchase_price, status)
	VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)
	ON CONFLICT (serial_number) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		purchase_date = EXCLUDED.purchase_date,
		purchase_price = EXCLUDED.purchase_price,
		status = EXCLUDED.status,
		updated_at = now()
	RETURNING (xmax = 0) AS inserted`

// upsertRow writes one row inside a savepoint so a failing row does not
// abort the surrounding transaction.
func upsertRow(ctx context.Context, tx pgx.Tx, in models.AssetInput) (bool, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return false, err
	}

	var inserted bool
	err = sp.QueryRow(ctx, upsertSQL,
		in.Name, in.Description, in.Category, in.SerialNumber,
		in.PurchaseDate.Time, in.PurchasePrice.String(), string(in.Status),
	).Scan(&inserted)
	if err != nil {
		_ = sp.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return false, fmt.Errorf("database rejected row: %s", pgErr.Message)
		}
		return false, err
	}
	return inserted, sp.Commit(ctx)
}
