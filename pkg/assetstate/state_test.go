package assetstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-tracker/pkg/apperr"
	"asset-tracker/pkg/assetapi"
	"asset-tracker/pkg/models"
)

// fakeAPI answers through per-method funcs and counts calls.
type fakeAPI struct {
	calls atomic.Int32

	list       func(ctx context.Context, f models.AssetFilters) (*models.AssetList, error)
	get        func(ctx context.Context, id int64) (*models.Asset, error)
	create     func(ctx context.Context, in models.AssetInput) (*models.Asset, error)
	update     func(ctx context.Context, id int64, in models.AssetInput) (*models.Asset, error)
	del        func(ctx context.Context, id int64) error
	categories func(ctx context.Context) ([]string, error)
}

func (f *fakeAPI) List(ctx context.Context, fl models.AssetFilters) (*models.AssetList, error) {
	f.calls.Add(1)
	return f.list(ctx, fl)
}

func (f *fakeAPI) Get(ctx context.Context, id int64) (*models.Asset, error) {
	f.calls.Add(1)
	return f.get(ctx, id)
}

func (f *fakeAPI) Create(ctx context.Context, in models.AssetInput) (*models.Asset, error) {
	f.calls.Add(1)
	return f.create(ctx, in)
}

func (f *fakeAPI) Update(ctx context.Context, id int64, in models.AssetInput) (*models.Asset, error) {
	f.calls.Add(1)
	return f.update(ctx, id, in)
}

func (f *fakeAPI) Delete(ctx context.Context, id int64) error {
	f.calls.Add(1)
	return f.del(ctx, id)
}

func (f *fakeAPI) ListCategories(ctx context.Context) ([]string, error) {
	f.calls.Add(1)
	return f.categories(ctx)
}

func (f *fakeAPI) ListStatuses(context.Context) ([]string, error) {
	f.calls.Add(1)
	return models.StatusStrings(), nil
}

var (
	errNetwork  = &assetapi.APIError{Code: apperr.CodeNetwork, Message: apperr.MsgNetwork}
	errNotFound = &assetapi.APIError{Status: 404, Code: "ASSET_NOT_FOUND", Message: "Asset with ID 9 not found"}
	errConflict = &assetapi.APIError{Status: 409, Code: "DUPLICATE_SERIAL", Message: "Asset with serial number 'SN' already exists"}
)

func pageOf(total int, names ...string) *models.AssetList {
	list := &models.AssetList{Total: total, Page: 1, PageSize: 20, TotalPages: models.TotalPages(total, 20)}
	for i, n := range names {
		list.Assets = append(list.Assets, models.Asset{ID: int64(i + 1), Name: n})
	}
	return list
}

func validInput() models.AssetInput {
	return models.AssetInput{
		Name:          "ThinkPad X1",
		Category:      "Laptops",
		SerialNumber:  "TP-X1-001",
		PurchaseDate:  models.NewDate(2023, time.May, 10),
		PurchasePrice: decimal.RequireFromString("1799.00"),
		Status:        models.StatusActive,
	}
}

func TestListInitialState(t *testing.T) {
	l := NewList(&fakeAPI{}, models.DefaultFilters())
	s := l.Snapshot()
	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
	assert.Nil(t, s.Data)
}

func TestListSuccess(t *testing.T) {
	api := &fakeAPI{list: func(context.Context, models.AssetFilters) (*models.AssetList, error) {
		return pageOf(45, "a", "b"), nil
	}}
	l := NewList(api, models.DefaultFilters())

	s := l.Load(context.Background())
	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
	require.NotNil(t, s.Data)
	assert.Equal(t, 3, s.Data.TotalPages)
	assert.Equal(t, 45, s.Data.Total)
}

func TestListLoadingIsVisibleDuringFetch(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{list: func(context.Context, models.AssetFilters) (*models.AssetList, error) {
		<-release
		return pageOf(1, "a"), nil
	}}
	l := NewList(api, models.DefaultFilters())

	var seen []State[*models.AssetList]
	var mu sync.Mutex
	l.Subscribe(func(s State[*models.AssetList]) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Load(context.Background())
	}()

	require.Eventually(t, func() bool { return l.Snapshot().Loading }, time.Second, time.Millisecond)
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.NotNil(t, seen[1].Data)
}

func TestListFailureKeepsStaleData(t *testing.T) {
	fail := false
	api := &fakeAPI{list: func(context.Context, models.AssetFilters) (*models.AssetList, error) {
		if fail {
			return nil, errNetwork
		}
		return pageOf(1, "kept"), nil
	}}
	l := NewList(api, models.DefaultFilters())
	l.Load(context.Background())

	fail = true
	s := l.Refetch(context.Background(), models.DefaultFilters())

	assert.False(t, s.Loading)
	assert.Equal(t, "Unable to connect to the server. Please check your internet connection.", s.Err)
	require.NotNil(t, s.Data)
	assert.Equal(t, "kept", s.Data.Assets[0].Name)
	assert.ErrorIs(t, l.LastError(), errNetwork)
}

func TestListUntypedFailureUsesFallback(t *testing.T) {
	api := &fakeAPI{list: func(context.Context, models.AssetFilters) (*models.AssetList, error) {
		return nil, errors.New("boom")
	}}
	s := NewList(api, models.DefaultFilters()).Load(context.Background())
	assert.Equal(t, MsgListFailed, s.Err)
}

func TestListErrorClearedOnNextInvocation(t *testing.T) {
	fail := true
	api := &fakeAPI{list: func(context.Context, models.AssetFilters) (*models.AssetList, error) {
		if fail {
			return nil, errNetwork
		}
		return pageOf(0), nil
	}}
	l := NewList(api, models.DefaultFilters())
	assert.NotEmpty(t, l.Load(context.Background()).Err)

	fail = false
	s := l.Load(context.Background())
	assert.Empty(t, s.Err)
	assert.Nil(t, l.LastError())
}

func TestSetFiltersRefetchesOnlyOnChange(t *testing.T) {
	var got []models.AssetFilters
	api := &fakeAPI{list: func(_ context.Context, f models.AssetFilters) (*models.AssetList, error) {
		got = append(got, f)
		return pageOf(0), nil
	}}
	l := NewList(api, models.DefaultFilters())
	ctx := context.Background()

	l.Load(ctx)
	l.SetFilters(ctx, models.DefaultFilters())
	assert.Len(t, got, 1)

	f := models.DefaultFilters()
	f.Search = "dell"
	l.SetFilters(ctx, f)
	assert.Len(t, got, 2)
	assert.Equal(t, "dell", got[1].Search)
	assert.Equal(t, f, l.Filters())

	l.Refetch(ctx, f)
	assert.Len(t, got, 3)
}

func TestLatestInvocationWins(t *testing.T) {
	slow := make(chan struct{})
	api := &fakeAPI{list: func(_ context.Context, f models.AssetFilters) (*models.AssetList, error) {
		if f.Search == "old" {
			<-slow
			return pageOf(1, "old"), nil
		}
		return pageOf(1, "new"), nil
	}}
	l := NewList(api, models.DefaultFilters())
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Refetch(ctx, models.AssetFilters{Search: "old"})
	}()
	require.Eventually(t, func() bool { return l.Snapshot().Loading }, time.Second, time.Millisecond)

	s := l.Refetch(ctx, models.AssetFilters{Search: "new"})
	require.NotNil(t, s.Data)
	assert.Equal(t, "new", s.Data.Assets[0].Name)

	close(slow)
	<-done

	final := l.Snapshot()
	assert.False(t, final.Loading)
	assert.Equal(t, "new", final.Data.Assets[0].Name)
}

func TestDetail(t *testing.T) {
	api := &fakeAPI{get: func(_ context.Context, id int64) (*models.Asset, error) {
		if id == 9 {
			return nil, errNotFound
		}
		return &models.Asset{ID: id, Name: "Monitor"}, nil
	}}
	d := NewDetail(api)
	ctx := context.Background()

	s := d.Load(ctx, 3)
	require.NotNil(t, s.Data)
	assert.Equal(t, int64(3), s.Data.ID)

	d.SetID(ctx, 3)
	assert.Equal(t, int32(1), api.calls.Load())

	s = d.SetID(ctx, 9)
	assert.Equal(t, "The requested resource was not found.", s.Err)
	assert.Equal(t, int64(3), s.Data.ID)
	assert.True(t, assetapi.IsNotFound(d.LastError()))

	d.Load(ctx, 0)
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestCreateRejectsInvalidPayloadWithoutRequest(t *testing.T) {
	api := &fakeAPI{}
	m := NewCreate(api)

	in := validInput()
	in.Name = ""
	got := m.Run(context.Background(), in)

	assert.Nil(t, got)
	assert.Equal(t, int32(0), api.calls.Load())
	assert.Equal(t, []string{"Asset name is required"}, m.ValidationErrors())
	s := m.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, "Asset name is required", s.Err)
}

func TestCreateDuplicateSerial(t *testing.T) {
	api := &fakeAPI{create: func(context.Context, models.AssetInput) (*models.Asset, error) {
		return nil, errConflict
	}}
	m := NewCreate(api)

	assert.Nil(t, m.Run(context.Background(), validInput()))
	assert.Equal(t, "An asset with this serial number already exists.", m.Snapshot().Err)
	assert.Empty(t, m.ValidationErrors())
}

func TestCreateSuccess(t *testing.T) {
	api := &fakeAPI{create: func(_ context.Context, in models.AssetInput) (*models.Asset, error) {
		return &models.Asset{ID: 11, Name: in.Name}, nil
	}}
	m := NewCreate(api)

	got := m.Run(context.Background(), validInput())
	require.NotNil(t, got)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, got, m.Snapshot().Data)
}

func TestUpdate(t *testing.T) {
	var gotID int64
	api := &fakeAPI{update: func(_ context.Context, id int64, in models.AssetInput) (*models.Asset, error) {
		gotID = id
		return &models.Asset{ID: id, Name: in.Name, Status: in.Status}, nil
	}}
	m := NewUpdate(api)

	in := validInput()
	in.Status = models.StatusDisposed
	got := m.Run(context.Background(), 5, in)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), gotID)
	assert.Equal(t, models.StatusDisposed, got.Status)

	in.PurchasePrice = decimal.Zero
	assert.Nil(t, m.Run(context.Background(), 5, in))
	assert.Equal(t, "Purchase price must be greater than 0", m.Snapshot().Err)
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{del: func(_ context.Context, id int64) error {
		if id == 9 {
			return errNotFound
		}
		return nil
	}}
	m := NewDelete(api)

	assert.True(t, m.Run(context.Background(), 1))
	assert.True(t, m.Snapshot().Data)

	assert.False(t, m.Run(context.Background(), 9))
	s := m.Snapshot()
	assert.Equal(t, "The requested resource was not found.", s.Err)
	assert.False(t, s.Loading)
}

func TestLookups(t *testing.T) {
	api := &fakeAPI{categories: func(context.Context) ([]string, error) {
		return nil, errors.New("nope")
	}}

	s := NewCategories(api).Load(context.Background())
	assert.Equal(t, MsgCategoriesFailed, s.Err)
	assert.Nil(t, s.Data)

	st := NewStatuses(api).Load(context.Background())
	assert.Empty(t, st.Err)
	assert.Equal(t, []string{"active", "inactive", "maintenance", "disposed"}, st.Data)
}

func TestUnsubscribe(t *testing.T) {
	api := &fakeAPI{list: func(context.Context, models.AssetFilters) (*models.AssetList, error) {
		return pageOf(0), nil
	}}
	l := NewList(api, models.DefaultFilters())

	var n atomic.Int32
	cancel := l.Subscribe(func(State[*models.AssetList]) { n.Add(1) })
	l.Load(context.Background())
	cancel()
	l.Load(context.Background())

	assert.Equal(t, int32(2), n.Load())
}
