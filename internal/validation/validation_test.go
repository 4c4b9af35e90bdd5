package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-tracker/pkg/models"
)

func fixedValidator() *Validator {
	v := New()
	v.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return v
}

func validInput() models.AssetInput {
	return models.AssetInput{
		Name:          "Dell Latitude 7440",
		Category:      "Laptop",
		SerialNumber:  "DL-7440-001",
		PurchaseDate:  models.NewDate(2025, time.January, 15),
		PurchasePrice: decimal.RequireFromString("1299.99"),
		Status:        models.StatusActive,
	}
}

func TestValidInputPasses(t *testing.T) {
	assert.NoError(t, fixedValidator().Struct(validInput()))

	in := validInput()
	in.Category = ""
	assert.NoError(t, fixedValidator().Struct(in), "category is optional on the server")
}

func TestFieldMessages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.AssetInput)
		field  string
		msg    string
	}{
		{"missing name", func(in *models.AssetInput) { in.Name = "" }, "name", "Asset name is required"},
		{"long serial", func(in *models.AssetInput) { in.SerialNumber = string(make([]byte, 101)) }, "serial_number", "Serial number must be at most 100 characters"},
		{"missing date", func(in *models.AssetInput) { in.PurchaseDate = models.Date{} }, "purchase_date", "Purchase date is required"},
		{"future date", func(in *models.AssetInput) { in.PurchaseDate = models.NewDate(2025, time.June, 2) }, "purchase_date", "Purchase date cannot be in the future"},
		{"zero price", func(in *models.AssetInput) { in.PurchasePrice = decimal.Zero }, "purchase_price", "Purchase price must be greater than 0 and at most 99999999.99"},
		{"huge price", func(in *models.AssetInput) { in.PurchasePrice = decimal.RequireFromString("100000000") }, "purchase_price", "Purchase price must be greater than 0 and at most 99999999.99"},
		{"bad status", func(in *models.AssetInput) { in.Status = "lost" }, "status", "Status must be one of: active, inactive, maintenance, disposed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := fixedValidator().Struct(in)
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Details()[tt.field])
		})
	}
}

func TestTodayIsNotFuture(t *testing.T) {
	in := validInput()
	in.PurchaseDate = models.NewDate(2025, time.June, 1)
	assert.NoError(t, fixedValidator().Struct(in))
}

func TestErrorsAreOrderedByField(t *testing.T) {
	err := fixedValidator().Struct(models.AssetInput{})
	var verr *Error
	require.ErrorAs(t, err, &verr)

	fields := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"name", "serial_number", "purchase_date", "purchase_price", "status"}, fields)
	assert.Contains(t, verr.Error(), "Asset name is required; ")
}

func TestUpdateRequestValidatesPresentFieldsOnly(t *testing.T) {
	v := fixedValidator()
	assert.NoError(t, v.Struct(models.UpdateAssetRequest{}))

	empty := ""
	err := v.Struct(models.UpdateAssetRequest{Name: &empty})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Asset name cannot be empty", verr.Details()["name"])

	bad := models.Status("broken")
	err = v.Struct(models.UpdateAssetRequest{Status: &bad})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "status")
}

func TestNormalize(t *testing.T) {
	in := models.AssetInput{Name: "  Laptop ", SerialNumber: " SN ", Status: " Active "}
	Normalize(&in)
	assert.Equal(t, "Laptop", in.Name)
	assert.Equal(t, "SN", in.SerialNumber)
	assert.Equal(t, models.StatusActive, in.Status)

	name := " x "
	st := models.Status("DISPOSED")
	u := models.UpdateAssetRequest{Name: &name, Status: &st}
	NormalizeUpdate(&u)
	assert.Equal(t, "x", *u.Name)
	assert.Equal(t, models.StatusDisposed, *u.Status)
}
