package store

import "strings"

// DefaultOrder is used when no usable sort key is given.
const DefaultOrder = " ORDER BY created_at DESC, id DESC"

// assetSortColumns maps public sort keys to columns.
var assetSortColumns = map[string]string{
	"id":             "id",
	"name":           "name",
	"category":       "category",
	"serial_number":  "serial_number",
	"purchase_date":  "purchase_date",
	"purchase_price": "purchase_price",
	"status":         "status",
	"created_at":     "created_at",
	"updated_at":     "updated_at",
}

// buildOrderBy builds a safe ORDER BY clause using a whitelist of allowed keys.
// Input sort is comma-separated; prefix with '-' for DESC. Unknown keys are
// skipped. Returns a string starting with " ORDER BY ".
func buildOrderBy(sortParam string, allowed map[string]string) string {
	if sortParam == "" {
		return DefaultOrder
	}

	parts := strings.Split(sortParam, ",")
	clauses := make([]string, 0, len(parts))
	for _, raw := range parts {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(s, "-") {
			desc = true
			s = strings.TrimPrefix(s, "-")
		}
		col, ok := allowed[s]
		if !ok {
			continue
		}
		if desc {
			clauses = append(clauses, col+" DESC")
		} else {
			clauses = append(clauses, col+" ASC")
		}
	}
	if len(clauses) == 0 {
		return DefaultOrder
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// ValidSortKey reports whether key (optionally prefixed with '-') is sortable.
func ValidSortKey(key string) bool {
	_, ok := assetSortColumns[strings.TrimPrefix(strings.TrimSpace(key), "-")]
	return ok
}
