package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Field limits shared by client-side and server-side validation.
const (
	MaxNameLength         = 255
	MaxCategoryLength     = 100
	MaxSerialNumberLength = 100
)

// MaxPurchasePrice is the largest value a NUMERIC(10,2) column can hold.
var MaxPurchasePrice = decimal.RequireFromString("99999999.99")

// MaxFormPurchasePrice is the upper bound enforced on user input.
var MaxFormPurchasePrice = decimal.RequireFromString("999999.99")

// Asset represents the core asset record
type Asset struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	SerialNumber  string          `json:"serial_number"`
	PurchaseDate  Date            `json:"purchase_date"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Input returns the editable fields of the asset, e.g. to prefill an update.
func (a Asset) Input() AssetInput {
	return AssetInput{
		Name:          a.Name,
		Description:   a.Description,
		Category:      a.Category,
		SerialNumber:  a.SerialNumber,
		PurchaseDate:  a.PurchaseDate,
		PurchasePrice: a.PurchasePrice,
		Status:        a.Status,
	}
}

// AssetInput is the payload for create and for full-replacement update.
// Server-assigned fields (id, timestamps) are never sent.
type AssetInput struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Category      string          `json:"category" validate:"max=100"`
	SerialNumber  string          `json:"serial_number" validate:"required,max=100"`
	PurchaseDate  Date            `json:"purchase_date" validate:"required,not_future"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"price"`
	Status        Status          `json:"status" validate:"required,oneof=active inactive maintenance disposed"`
}

// CreateAssetRequest represents the request body for creating a new asset
type CreateAssetRequest = AssetInput

// UpdateAssetRequest represents the request body for updating an asset.
// Only fields present in the body are applied.
type UpdateAssetRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description,omitempty"`
	Category      *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	SerialNumber  *string          `json:"serial_number,omitempty" validate:"omitempty,min=1,max=100"`
	PurchaseDate  *Date            `json:"purchase_date,omitempty" validate:"omitempty,not_future"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty" validate:"omitempty,price"`
	Status        *Status          `json:"status,omitempty" validate:"omitempty,oneof=active inactive maintenance disposed"`
}

// Empty reports whether the update carries no fields.
func (u UpdateAssetRequest) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Category == nil && u.SerialNumber == nil &&
		u.PurchaseDate == nil && u.PurchasePrice == nil && u.Status == nil
}

// Apply overlays the present fields onto a.
func (u UpdateAssetRequest) Apply(a *Asset) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Description != nil {
		a.Description = *u.Description
	}
	if u.Category != nil {
		a.Category = *u.Category
	}
	if u.SerialNumber != nil {
		a.SerialNumber = *u.SerialNumber
	}
	if u.PurchaseDate != nil {
		a.PurchaseDate = *u.PurchaseDate
	}
	if u.PurchasePrice != nil {
		a.PurchasePrice = *u.PurchasePrice
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
}

// Pagination defaults and bounds for asset listing.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AssetFilters narrows an asset listing. It is a comparable value so callers
// can detect changes with ==.
type AssetFilters struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Status   Status `json:"status,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// DefaultFilters returns filters for the first page with the default page size.
func DefaultFilters() AssetFilters {
	return AssetFilters{Page: DefaultPage, PageSize: DefaultPageSize}
}

// AssetList is one page of assets.
type AssetList struct {
	Assets     []Asset `json:"assets"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// TotalPages returns ceil(total/pageSize), or 1 for an empty result.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
