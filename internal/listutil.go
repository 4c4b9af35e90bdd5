package internal

import (
	"net/http"
	"strconv"
	"strings"

	"asset-tracker/internal/store"
	"asset-tracker/pkg/models"
)

// parseListParams parses search, category, status, page, page_size and sort.
// Defaults: page=1, page_size=20 (1..100). Out-of-range values are reported
// per field instead of being clamped.
func parseListParams(r *http.Request) (store.ListParams, map[string]string) {
	values := r.URL.Query()
	errs := map[string]string{}

	p := store.ListParams{
		Search:   strings.TrimSpace(values.Get("search")),
		Category: strings.TrimSpace(values.Get("category")),
		Page:     models.DefaultPage,
		PageSize: models.DefaultPageSize,
		Sort:     strings.TrimSpace(values.Get("sort")),
	}

	if s := strings.TrimSpace(values.Get("page")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			errs["page"] = "Page must be an integer >= 1"
		} else {
			p.Page = v
		}
	}

	if s := strings.TrimSpace(values.Get("page_size")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > models.MaxPageSize {
			errs["page_size"] = "Page size must be an integer between 1 and " + strconv.Itoa(models.MaxPageSize)
		} else {
			p.PageSize = v
		}
	}

	if s := strings.TrimSpace(values.Get("status")); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			errs["status"] = "Status must be one of: " + strings.Join(models.StatusStrings(), ", ")
		} else {
			p.Status = st
		}
	}

	if p.Sort != "" {
		for _, key := range strings.Split(p.Sort, ",") {
			if !store.ValidSortKey(key) {
				errs["sort"] = "Unknown sort key: " + strings.TrimSpace(key)
				break
			}
		}
	}

	if len(errs) == 0 {
		return p, nil
	}
	return p, errs
}

// parseID reads a positive integer id from a URL parameter.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
