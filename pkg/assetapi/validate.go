package assetapi

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"asset-tracker/pkg/models"
)

// Validate checks a payload before it is sent and returns one message per
// problem. An empty result means the payload is acceptable.
func Validate(in models.AssetInput) []string {
	return validateAt(in, time.Now())
}

func validateAt(in models.AssetInput, now time.Time) []string {
	errs := []string{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs = append(errs, "Asset name is required")
	case utf8.RuneCountInString(name) > models.MaxNameLength:
		errs = append(errs, fmt.Sprintf("Asset name must be at most %d characters", models.MaxNameLength))
	}

	category := strings.TrimSpace(in.Category)
	switch {
	case category == "":
		errs = append(errs, "Category is required")
	case utf8.RuneCountInString(category) > models.MaxCategoryLength:
		errs = append(errs, fmt.Sprintf("Category must be at most %d characters", models.MaxCategoryLength))
	}

	serial := strings.TrimSpace(in.SerialNumber)
	switch {
	case serial == "":
		errs = append(errs, "Serial number is required")
	case utf8.RuneCountInString(serial) > models.MaxSerialNumberLength:
		errs = append(errs, fmt.Sprintf("Serial number must be at most %d characters", models.MaxSerialNumberLength))
	}

	switch {
	case in.PurchaseDate.IsZero():
		errs = append(errs, "Purchase date is required")
	case in.PurchaseDate.After(models.DateOf(now)):
		errs = append(errs, "Purchase date cannot be in the future")
	}

	switch {
	case !in.PurchasePrice.IsPositive():
		errs = append(errs, "Purchase price must be greater than 0")
	case in.PurchasePrice.GreaterThan(models.MaxFormPurchasePrice):
		errs = append(errs, "Purchase price must be at most "+models.MaxFormPurchasePrice.StringFixed(2))
	}

	switch {
	case in.Status == "":
		errs = append(errs, "Status is required")
	case !in.Status.Valid():
		errs = append(errs, fmt.Sprintf("Status must be one of: %s", strings.Join(models.StatusStrings(), ", ")))
	}

	return errs
}
