// Package assetstate holds per-operation request state for asset views:
// a loading flag, a display-ready error string and the last good data.
//
// Every holder follows the same machine. Invoking it sets Loading and clears
// Err before the request goes out. Success stores Data; failure stores a
// message and keeps the previous Data. When invocations overlap, only the
// most recent one may settle the state.
package assetstate

import (
	"context"
	"errors"
	"sync"

	"asset-tracker/pkg/apperr"
	"asset-tracker/pkg/assetapi"
	"asset-tracker/pkg/models"
)

// API is the resource API the holders call. *assetapi.Client satisfies it.
type API interface {
	List(ctx context.Context, f models.AssetFilters) (*models.AssetList, error)
	Get(ctx context.Context, id int64) (*models.Asset, error)
	Create(ctx context.Context, in models.AssetInput) (*models.Asset, error)
	Update(ctx context.Context, id int64, in models.AssetInput) (*models.Asset, error)
	Delete(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]string, error)
	ListStatuses(ctx context.Context) ([]string, error)
}

// Fallback messages for failures that are not typed API errors.
const (
	MsgListFailed       = "Failed to fetch assets"
	MsgGetFailed        = "Failed to fetch asset"
	MsgCreateFailed     = "Failed to create asset"
	MsgUpdateFailed     = "Failed to update asset"
	MsgDeleteFailed     = "Failed to delete asset"
	MsgCategoriesFailed = "Failed to fetch categories"
	MsgStatusesFailed   = "Failed to fetch statuses"
)

// State is a snapshot of one holder.
type State[T any] struct {
	Loading bool
	Err     string
	Data    T
}

// cell owns one State. Each invocation takes a sequence number and only the
// newest sequence may settle.
type cell[T any] struct {
	mu      sync.Mutex
	state   State[T]
	seq     uint64
	lastErr error
	subs    map[int]func(State[T])
	nextSub int
}

func (c *cell[T]) snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *cell[T]) lastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *cell[T]) subscribe(fn func(State[T])) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = map[int]func(State[T]){}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// update applies fn under the lock and notifies subscribers with the result.
// It does nothing when fn returns false.
func (c *cell[T]) update(fn func(*State[T]) bool) (State[T], bool) {
	c.mu.Lock()
	if !fn(&c.state) {
		s := c.state
		c.mu.Unlock()
		return s, false
	}
	s := c.state
	subs := make([]func(State[T]), 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub(s)
	}
	return s, true
}

func (c *cell[T]) begin() uint64 {
	var seq uint64
	c.update(func(s *State[T]) bool {
		c.seq++
		seq = c.seq
		c.lastErr = nil
		s.Loading = true
		s.Err = ""
		return true
	})
	return seq
}

func (c *cell[T]) succeed(seq uint64, data T) State[T] {
	s, _ := c.update(func(s *State[T]) bool {
		if seq != c.seq {
			return false
		}
		s.Data = data
		s.Loading = false
		return true
	})
	return s
}

func (c *cell[T]) fail(seq uint64, err error, msg string) State[T] {
	s, _ := c.update(func(s *State[T]) bool {
		if seq != c.seq {
			return false
		}
		c.lastErr = err
		s.Err = msg
		s.Loading = false
		return true
	})
	return s
}

// reject settles a failure without issuing a request. It supersedes any
// invocation still in flight.
func (c *cell[T]) reject(err error, msg string) State[T] {
	s, _ := c.update(func(s *State[T]) bool {
		c.seq++
		c.lastErr = err
		s.Err = msg
		s.Loading = false
		return true
	})
	return s
}

// errorMessage renders a typed API error for display and falls back to a
// fixed message for anything else.
func errorMessage(err error, fallback string) string {
	var apiErr *assetapi.APIError
	if errors.As(err, &apiErr) {
		return apperr.ToUserMessage(apiErr.AppError())
	}
	return fallback
}

// run executes one invocation against c. It returns the call's own result
// along with the state, which may belong to a newer invocation.
func run[T any](ctx context.Context, c *cell[T], fallback string, call func(context.Context) (T, error)) (T, State[T], error) {
	seq := c.begin()
	data, err := call(ctx)
	if err != nil {
		return data, c.fail(seq, err, errorMessage(err, fallback)), err
	}
	return data, c.succeed(seq, data), nil
}
