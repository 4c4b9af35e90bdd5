package assetstate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"asset-tracker/pkg/assetapi"
	"asset-tracker/pkg/models"
)

// Create runs asset creation. Failures never escape Run; they are stored.
type Create struct {
	api  API
	cell cell[*models.Asset]
	v    validation
}

// NewCreate creates a Create.
func NewCreate(api API) *Create {
	return &Create{api: api}
}

// Run validates in and creates the asset. It returns nil on any failure.
// A payload that fails validation is never sent.
func (m *Create) Run(ctx context.Context, in models.AssetInput) *models.Asset {
	if errs := m.v.check(in); len(errs) > 0 {
		msg := strings.Join(errs, "; ")
		m.cell.reject(errors.New(msg), msg)
		return nil
	}
	created, _, err := run(ctx, &m.cell, MsgCreateFailed, func(ctx context.Context) (*models.Asset, error) {
		return m.api.Create(ctx, in)
	})
	if err != nil {
		return nil
	}
	return created
}

// ValidationErrors returns the messages from the last Run, if any.
func (m *Create) ValidationErrors() []string { return m.v.last() }

// LastError returns the failure behind the current Err, or nil.
func (m *Create) LastError() error { return m.cell.lastError() }

// Snapshot returns the current state.
func (m *Create) Snapshot() State[*models.Asset] { return m.cell.snapshot() }

// Subscribe calls fn after every state change until the returned func is called.
func (m *Create) Subscribe(fn func(State[*models.Asset])) func() { return m.cell.subscribe(fn) }

// Update runs full-replacement updates.
type Update struct {
	api  API
	cell cell[*models.Asset]
	v    validation
}

// NewUpdate creates an Update.
func NewUpdate(api API) *Update {
	return &Update{api: api}
}

// Run validates in and replaces the asset with id. It returns nil on any
// failure.
func (m *Update) Run(ctx context.Context, id int64, in models.AssetInput) *models.Asset {
	if errs := m.v.check(in); len(errs) > 0 {
		msg := strings.Join(errs, "; ")
		m.cell.reject(errors.New(msg), msg)
		return nil
	}
	updated, _, err := run(ctx, &m.cell, MsgUpdateFailed, func(ctx context.Context) (*models.Asset, error) {
		return m.api.Update(ctx, id, in)
	})
	if err != nil {
		return nil
	}
	return updated
}

// ValidationErrors returns the messages from the last Run, if any.
func (m *Update) ValidationErrors() []string { return m.v.last() }

// LastError returns the failure behind the current Err, or nil.
func (m *Update) LastError() error { return m.cell.lastError() }

// Snapshot returns the current state.
func (m *Update) Snapshot() State[*models.Asset] { return m.cell.snapshot() }

// Subscribe calls fn after every state change until the returned func is called.
func (m *Update) Subscribe(fn func(State[*models.Asset])) func() { return m.cell.subscribe(fn) }

// Delete runs asset deletion. Data is true after a successful delete.
type Delete struct {
	api  API
	cell cell[bool]
}

// NewDelete creates a Delete.
func NewDelete(api API) *Delete {
	return &Delete{api: api}
}

// Run deletes the asset with id and reports whether it succeeded.
func (m *Delete) Run(ctx context.Context, id int64) bool {
	_, _, err := run(ctx, &m.cell, MsgDeleteFailed, func(ctx context.Context) (bool, error) {
		if err := m.api.Delete(ctx, id); err != nil {
			return false, err
		}
		return true, nil
	})
	return err == nil
}

// LastError returns the failure behind the current Err, or nil.
func (m *Delete) LastError() error { return m.cell.lastError() }

// Snapshot returns the current state.
func (m *Delete) Snapshot() State[bool] { return m.cell.snapshot() }

// Subscribe calls fn after every state change until the returned func is called.
func (m *Delete) Subscribe(fn func(State[bool])) func() { return m.cell.subscribe(fn) }

type validation struct {
	mu   sync.Mutex
	errs []string
}

func (v *validation) check(in models.AssetInput) []string {
	errs := assetapi.Validate(in)
	v.mu.Lock()
	v.errs = errs
	v.mu.Unlock()
	return errs
}

func (v *validation) last() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.errs...)
}
