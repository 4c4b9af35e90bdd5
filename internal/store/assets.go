// Package store is the Postgres persistence layer for assets.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"asset-tracker/pkg/models"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListParams selects one page of assets.
type ListParams struct {
	Search   string
	Category string
	Status   models.Status
	Page     int
	PageSize int
	Sort     string
}

func (p ListParams) offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// AssetStore reads and writes the assets table.
type AssetStore struct {
	db *sql.DB
}

// NewAssetStore returns a store backed by db.
func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

const assetColumns = `id, name, description, category, serial_number, purchase_date, purchase_price, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner, extra ...any) (models.Asset, error) {
	var a models.Asset
	var description, category sql.NullString
	dest := []any{&a.ID, &a.Name, &description, &category, &a.SerialNumber,
		&a.PurchaseDate, &a.PurchasePrice, &a.Status, &a.CreatedAt, &a.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Asset{}, err
	}
	a.Description = description.String
	a.Category = category.String
	return a, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// List returns the requested page and the total number of matches.
func (s *AssetStore) List(ctx context.Context, p ListParams) ([]models.Asset, int, error) {
	clauses := []string{}
	args := []any{}
	arg := 1

	if p.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR serial_number ILIKE $%d)", arg, arg, arg))
		args = append(args, "%"+p.Search+"%")
		arg++
	}
	if p.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category = $%d", arg))
		args = append(args, p.Category)
		arg++
	}
	if p.Status != "" {
		clauses = append(clauses, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(p.Status))
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	// COUNT(*) OVER() returns the total alongside the page in one round trip.
	sqlStr := "SELECT " + assetColumns + ", COUNT(*) OVER() AS total_count FROM assets" + whereClause
	sqlStr += buildOrderBy(p.Sort, assetSortColumns)
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", p.PageSize, p.offset())

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := []models.Asset{}
	total := 0
	for rows.Next() {
		a, err := scanAsset(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(assets) == 0 && p.offset() > 0 {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets"+whereClause, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count assets: %w", err)
		}
	}
	return assets, total, nil
}

// Get returns the asset with id or ErrNotFound.
func (s *AssetStore) Get(ctx context.Context, id int64) (models.Asset, error) {
	return getAsset(ctx, s.db, id, false)
}

func getAsset(ctx context.Context, q Querier, id int64, forUpdate bool) (models.Asset, error) {
	sqlStr := "SELECT " + assetColumns + " FROM assets WHERE id = $1"
	if forUpdate {
		sqlStr += " FOR UPDATE"
	}
	a, err := scanAsset(q.QueryRowContext(ctx, sqlStr, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Asset{}, ErrNotFound
	}
	if err != nil {
		return models.Asset{}, fmt.Errorf("get asset %d: %w", id, err)
	}
	return a, nil
}

// Create inserts a new asset and returns it with its server-assigned fields.
func (s *AssetStore) Create(ctx context.Context, in models.AssetInput) (models.Asset, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO assets (name, description, category, serial_number, purchase_date, purchase_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+assetColumns,
		strings.TrimSpace(in.Name), nullString(in.Description), nullString(in.Category),
		strings.TrimSpace(in.SerialNumber), in.PurchaseDate, in.PurchasePrice, string(in.Status))

	a, err := scanAsset(row)
	if err != nil {
		return models.Asset{}, mapWriteError(err, in.SerialNumber)
	}
	return a, nil
}

// Update applies the fields present in u to the asset with id.
func (s *AssetStore) Update(ctx context.Context, id int64, u models.UpdateAssetRequest) (models.Asset, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Asset{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getAsset(ctx, tx, id, true)
	if err != nil {
		return models.Asset{}, err
	}
	u.Apply(&current)

	row := tx.QueryRowContext(ctx, `
		UPDATE assets
		SET name = $1, description = $2, category = $3, serial_number = $4,
		    purchase_date = $5, purchase_price = $6, status = $7, updated_at = now()
		WHERE id = $8
		RETURNING `+assetColumns,
		strings.TrimSpace(current.Name), nullString(current.Description), nullString(current.Category),
		strings.TrimSpace(current.SerialNumber), current.PurchaseDate, current.PurchasePrice,
		string(current.Status), id)

	updated, err := scanAsset(row)
	if err != nil {
		return models.Asset{}, mapWriteError(err, current.SerialNumber)
	}
	if err := tx.Commit(); err != nil {
		return models.Asset{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

// Delete removes the asset with id or returns ErrNotFound.
func (s *AssetStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete asset %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete asset %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns the distinct non-empty categories in use.
func (s *AssetStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM assets
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SerialExists reports whether serial is used by an asset other than
// excludeID. Pass 0 to check every asset.
func (s *AssetStore) SerialExists(ctx context.Context, serial string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM assets WHERE serial_number = $1 AND id <> $2)",
		strings.TrimSpace(serial), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check serial number: %w", err)
	}
	return exists, nil
}

// Ping checks database connectivity.
func (s *AssetStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
