package assetstate

import (
	"context"
	"sync"

	"asset-tracker/pkg/models"
)

// List holds a page of assets for a set of filters.
type List struct {
	api  API
	cell cell[*models.AssetList]

	mu      sync.Mutex
	filters models.AssetFilters
}

// NewList creates a List for filters. Call Load to fetch the first page.
func NewList(api API, filters models.AssetFilters) *List {
	return &List{api: api, filters: filters}
}

// Filters returns the filters of the current or last fetch.
func (l *List) Filters() models.AssetFilters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters
}

// Load fetches with the current filters.
func (l *List) Load(ctx context.Context) State[*models.AssetList] {
	return l.fetch(ctx, l.Filters())
}

// SetFilters fetches again when f differs from the current filters. Equal
// filters leave the state untouched.
func (l *List) SetFilters(ctx context.Context, f models.AssetFilters) State[*models.AssetList] {
	l.mu.Lock()
	if f == l.filters {
		l.mu.Unlock()
		return l.Snapshot()
	}
	l.filters = f
	l.mu.Unlock()
	return l.fetch(ctx, f)
}

// Refetch stores f and fetches immediately, even if f is unchanged.
func (l *List) Refetch(ctx context.Context, f models.AssetFilters) State[*models.AssetList] {
	l.mu.Lock()
	l.filters = f
	l.mu.Unlock()
	return l.fetch(ctx, f)
}

func (l *List) fetch(ctx context.Context, f models.AssetFilters) State[*models.AssetList] {
	_, s, _ := run(ctx, &l.cell, MsgListFailed, func(ctx context.Context) (*models.AssetList, error) {
		return l.api.List(ctx, f)
	})
	return s
}

// LastError returns the failure behind the current Err, or nil.
func (l *List) LastError() error { return l.cell.lastError() }

// Snapshot returns the current state.
func (l *List) Snapshot() State[*models.AssetList] { return l.cell.snapshot() }

// Subscribe calls fn after every state change until the returned func is
// called. fn runs on the goroutine that changed the state.
func (l *List) Subscribe(fn func(State[*models.AssetList])) func() { return l.cell.subscribe(fn) }

// Detail holds one asset addressed by id.
type Detail struct {
	api  API
	cell cell[*models.Asset]

	mu sync.Mutex
	id int64
}

// NewDetail creates an empty Detail.
func NewDetail(api API) *Detail {
	return &Detail{api: api}
}

// ID returns the id of the current or last fetch.
func (d *Detail) ID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// Load fetches the asset with id. Non-positive ids are ignored.
func (d *Detail) Load(ctx context.Context, id int64) State[*models.Asset] {
	if id <= 0 {
		return d.Snapshot()
	}
	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
	_, s, _ := run(ctx, &d.cell, MsgGetFailed, func(ctx context.Context) (*models.Asset, error) {
		return d.api.Get(ctx, id)
	})
	return s
}

// SetID fetches when id differs from the current id.
func (d *Detail) SetID(ctx context.Context, id int64) State[*models.Asset] {
	if id == d.ID() {
		return d.Snapshot()
	}
	return d.Load(ctx, id)
}

// Refetch fetches the current id again.
func (d *Detail) Refetch(ctx context.Context) State[*models.Asset] {
	return d.Load(ctx, d.ID())
}

// LastError returns the failure behind the current Err, or nil.
func (d *Detail) LastError() error { return d.cell.lastError() }

// Snapshot returns the current state.
func (d *Detail) Snapshot() State[*models.Asset] { return d.cell.snapshot() }

// Subscribe calls fn after every state change until the returned func is called.
func (d *Detail) Subscribe(fn func(State[*models.Asset])) func() { return d.cell.subscribe(fn) }

// Lookup holds a list of strings fetched as a whole, such as the category
// or status choices.
type Lookup struct {
	cell     cell[[]string]
	fetch    func(context.Context) ([]string, error)
	fallback string
}

// NewCategories creates a Lookup of the categories in use.
func NewCategories(api API) *Lookup {
	return &Lookup{fetch: api.ListCategories, fallback: MsgCategoriesFailed}
}

// NewStatuses creates a Lookup of the accepted statuses.
func NewStatuses(api API) *Lookup {
	return &Lookup{fetch: api.ListStatuses, fallback: MsgStatusesFailed}
}

// Load fetches the list.
func (l *Lookup) Load(ctx context.Context) State[[]string] {
	_, s, _ := run(ctx, &l.cell, l.fallback, l.fetch)
	return s
}

// Snapshot returns the current state.
func (l *Lookup) Snapshot() State[[]string] { return l.cell.snapshot() }

// Subscribe calls fn after every state change until the returned func is called.
func (l *Lookup) Subscribe(fn func(State[[]string])) func() { return l.cell.subscribe(fn) }
