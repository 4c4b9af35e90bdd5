// Package validation checks asset payloads on the server before they reach
// the store. It wraps go-playground/validator with the asset-specific tags
// and turns its errors into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"asset-tracker/pkg/models"
)

// FieldError is one failed rule on one field, keyed by the JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a payload fails validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Details returns the failures as a field -> message map.
func (e *Error) Details() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, seen := out[f.Field]; !seen {
			out[f.Field] = f.Message
		}
	}
	return out
}

// Validator validates asset payloads.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New returns a Validator with the asset rules registered.
func New() *Validator {
	val := &Validator{v: validator.New(), now: time.Now}

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	val.v.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(models.Date); ok {
			return d.Time
		}
		return nil
	}, models.Date{})
	val.v.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = val.v.RegisterValidation("not_future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok || t.IsZero() {
			return true
		}
		return !models.DateOf(t).After(models.DateOf(val.now().UTC()))
	})
	_ = val.v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return d.IsPositive() && d.LessThanOrEqual(models.MaxPurchasePrice)
	})
	return val
}

// Struct validates s and returns an *Error listing every failing field.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	sort.SliceStable(out.Fields, func(i, j int) bool { return fieldOrder(out.Fields[i].Field) < fieldOrder(out.Fields[j].Field) })
	return out
}

var labels = map[string]string{
	"name":           "Asset name",
	"description":    "Description",
	"category":       "Category",
	"serial_number":  "Serial number",
	"purchase_date":  "Purchase date",
	"purchase_price": "Purchase price",
	"status":         "Status",
}

var order = []string{"name", "description", "category", "serial_number", "purchase_date", "purchase_price", "status"}

func fieldOrder(field string) int {
	for i, f := range order {
		if f == field {
			return i
		}
	}
	return len(order)
}

func message(fe validator.FieldError) string {
	label, ok := labels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return label + " cannot be empty"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "not_future":
		return label + " cannot be in the future"
	case "price":
		return fmt.Sprintf("%s must be greater than 0 and at most %s", label, models.MaxPurchasePrice.StringFixed(2))
	case "oneof":
		return label + " must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, fe.Tag())
	}
}

// Normalize trims surrounding whitespace from the text fields of in.
func Normalize(in *models.AssetInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	in.Status = models.Status(strings.ToLower(strings.TrimSpace(string(in.Status))))
}

// NormalizeUpdate trims the text fields present in u.
func NormalizeUpdate(u *models.UpdateAssetRequest) {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(u.Name)
	trim(u.Description)
	trim(u.Category)
	trim(u.SerialNumber)
	if u.Status != nil {
		s := models.Status(strings.ToLower(strings.TrimSpace(string(*u.Status))))
		u.Status = &s
	}
}
