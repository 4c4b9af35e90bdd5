package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-tracker/pkg/models"
)

var columns = []string{"id", "name", "description", "category", "serial_number",
	"purchase_date", "purchase_price", "status", "created_at", "updated_at"}

func setupMockStore(t *testing.T) (*AssetStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewAssetStore(db), mock
}

var created = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func assetRow(id int64, name, serial string, category any) []driver.Value {
	return []driver.Value{id, name, nil, category, serial,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "1299.99", "active", created, created}
}

func TestListBuildsFiltersAndReadsWindowCount(t *testing.T) {
	s, mock := setupMockStore(t)

	rows := sqlmock.NewRows(append(columns, "total_count")).
		AddRow(append(assetRow(1, "Dell Laptop", "SN-1", "Laptop"), int64(45))...).
		AddRow(append(assetRow(2, "Dell Monitor", "SN-2", nil), int64(45))...)
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM assets WHERE (name ILIKE $1 OR description ILIKE $1 OR serial_number ILIKE $1) AND status = $2 ORDER BY created_at DESC, id DESC LIMIT 20 OFFSET 20")).
		WithArgs("%dell%", "active").
		WillReturnRows(rows)

	assets, total, err := s.List(context.Background(), ListParams{
		Search: "dell", Status: models.StatusActive, Page: 2, PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 45, total)
	require.Len(t, assets, 2)
	assert.Equal(t, "Laptop", assets[0].Category)
	assert.Equal(t, "", assets[1].Category)
	assert.True(t, decimal.RequireFromString("1299.99").Equal(assets[0].PurchasePrice))
	assert.Equal(t, "2024-01-15", assets[0].PurchaseDate.String())
	assert.Equal(t, models.StatusActive, assets[0].Status)
}

func TestListPastLastPageCountsSeparately(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE category = $1 ORDER BY name ASC LIMIT 10 OFFSET 90")).
		WithArgs("Laptop").
		WillReturnRows(sqlmock.NewRows(append(columns, "total_count")))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assets WHERE category = $1")).
		WithArgs("Laptop").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	assets, total, err := s.List(context.Background(), ListParams{
		Category: "Laptop", Page: 10, PageSize: 10, Sort: "name",
	})
	require.NoError(t, err)
	assert.Empty(t, assets)
	assert.NotNil(t, assets)
	assert.Equal(t, 12, total)
}

func TestGetNotFound(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assets WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := s.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func validInput() models.AssetInput {
	return models.AssetInput{
		Name:          "Dell Laptop",
		Category:      "Laptop",
		SerialNumber:  "SN-1",
		PurchaseDate:  models.NewDate(2024, time.January, 15),
		PurchasePrice: decimal.RequireFromString("1299.99"),
		Status:        models.StatusActive,
	}
}

func TestCreateReturnsStoredAsset(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery("INSERT INTO assets").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(assetRow(7, "Dell Laptop", "SN-1", "Laptop")...))

	a, err := s.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.ID)
	assert.Equal(t, created, a.CreatedAt)
}

func TestCreateDuplicateSerial(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery("INSERT INTO assets").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_assets_serial_number"})

	_, err := s.Create(context.Background(), validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateSerial)

	var dup *DuplicateSerialError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "SN-1", dup.SerialNumber)
	assert.Equal(t, "Asset with serial number 'SN-1' already exists", err.Error())
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM assets WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(assetRow(7, "Dell Laptop", "SN-1", "Laptop")...))
	mock.ExpectQuery("UPDATE assets").
		WithArgs("Renamed", nil, "Laptop", "SN-1", sqlmock.AnyArg(), sqlmock.AnyArg(), "active", int64(7)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(assetRow(7, "Renamed", "SN-1", "Laptop")...))
	mock.ExpectCommit()

	name := "Renamed"
	a, err := s.Update(context.Background(), 7, models.UpdateAssetRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", a.Name)
}

func TestUpdateMissingAssetRollsBack(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectRollback()

	name := "x"
	_, err := s.Update(context.Background(), 1, models.UpdateAssetRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDuplicateSerialRollsBack(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(assetRow(7, "Dell Laptop", "SN-1", "Laptop")...))
	mock.ExpectQuery("UPDATE assets").WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	serial := "SN-2"
	_, err := s.Update(context.Background(), 7, models.UpdateAssetRequest{SerialNumber: &serial})
	assert.ErrorIs(t, err, ErrDuplicateSerial)
	assert.Contains(t, err.Error(), "SN-2")
}

func TestDelete(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assets WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assets WHERE id = $1")).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), 7))
	assert.ErrorIs(t, s.Delete(context.Background(), 8), ErrNotFound)
}

func TestCategories(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT DISTINCT category FROM assets").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Laptop").AddRow("Monitor"))

	cats, err := s.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Laptop", "Monitor"}, cats)
}

func TestSerialExists(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("SN-1", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.SerialExists(context.Background(), " SN-1 ", 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildOrderBy(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"", DefaultOrder},
		{"name", " ORDER BY name ASC"},
		{"-purchase_price,name", " ORDER BY purchase_price DESC, name ASC"},
		{"bogus", DefaultOrder},
		{"bogus, -created_at", " ORDER BY created_at DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			assert.Equal(t, tt.want, buildOrderBy(tt.sort, assetSortColumns))
		})
	}

	assert.True(t, ValidSortKey("-name"))
	assert.False(t, ValidSortKey("password"))
}
