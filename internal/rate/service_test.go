package rate

import (
	"context"
	"testing"
	"time"

	"cbrates/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRateFeed struct {
	mock.Mock
}

func (m *MockRateFeed) Fetch(ctx context.Context, date domain.BusinessDate) (map[domain.Currency]decimal.Decimal, error) {
	args := m.Called(ctx, date)
	rates, _ := args.Get(0).(map[domain.Currency]decimal.Decimal)
	return rates, args.Error(1)
}

type MockRateStore struct {
	mock.Mock
}

func (m *MockRateStore) Has(ctx context.Context, currency domain.Currency, date domain.BusinessDate) bool {
	return m.Called(ctx, currency, date).Bool(0)
}

func (m *MockRateStore) Get(ctx context.Context, currency domain.Currency, date domain.BusinessDate) (decimal.Decimal, error) {
	args := m.Called(ctx, currency, date)
	value, _ := args.Get(0).(decimal.Decimal)
	return value, args.Error(1)
}

func (m *MockRateStore) Set(ctx context.Context, currency domain.Currency, date domain.BusinessDate, value decimal.Decimal) {
	m.Called(ctx, currency, date, value)
}

type MockPendingStore struct {
	mock.Mock
}

func (m *MockPendingStore) Save(ctx context.Context, calc domain.PendingCalculation) (uuid.UUID, error) {
	args := m.Called(ctx, calc)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *MockPendingStore) ListAll(ctx context.Context) ([]domain.PendingCalculation, error) {
	args := m.Called(ctx)
	calcs, _ := args.Get(0).([]domain.PendingCalculation)
	return calcs, args.Error(1)
}

func (m *MockPendingStore) Remove(ctx context.Context, id uuid.UUID) bool {
	return m.Called(ctx, id).Bool(0)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Subscribe(ctx context.Context, currency domain.Currency, userID int64) bool {
	return m.Called(ctx, currency, userID).Bool(0)
}

func (m *MockRegistry) Unsubscribe(ctx context.Context, currency domain.Currency, userID int64) bool {
	return m.Called(ctx, currency, userID).Bool(0)
}

func (m *MockRegistry) List(ctx context.Context, currency domain.Currency) []int64 {
	users, _ := m.Called(ctx, currency).Get(0).([]int64)
	return users
}

func (m *MockRegistry) IsSubscribed(ctx context.Context, currency domain.Currency, userID int64) bool {
	return m.Called(ctx, currency, userID).Bool(0)
}

// mapCache is an in-memory stand-in for the ristretto cache.
type mapCache struct {
	entries map[string]decimal.Decimal
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]decimal.Decimal)}
}

func (c *mapCache) Get(key domain.RateKey) (decimal.Decimal, bool) {
	value, ok := c.entries[key.String()]
	return value, ok
}

func (c *mapCache) Set(key domain.RateKey, value decimal.Decimal) {
	c.entries[key.String()] = value
}

type countingWaker struct {
	wakes int
}

func (w *countingWaker) Wake() { w.wakes++ }

func monday() time.Time {
	return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
}

func TestService_GetRate_CacheHitSkipsStoreAndFeed(t *testing.T) {
	cache := newMapCache()
	store := new(MockRateStore)
	feed := new(MockRateFeed)
	svc := NewService(cache, store, feed, new(MockPendingStore), new(MockRegistry), &countingWaker{})

	busDate := domain.ResolveBusinessDate(monday())
	cache.Set(domain.RateKey{Currency: domain.USD, Date: busDate}, decimal.RequireFromString("92.5"))

	value, gotDate, err := svc.GetRate(context.Background(), domain.USD, monday())
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.RequireFromString("92.5")))
	require.True(t, gotDate.Equal(busDate))
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	feed.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestService_GetRate_StoreHitWarmsCache(t *testing.T) {
	cache := newMapCache()
	store := new(MockRateStore)
	feed := new(MockRateFeed)
	svc := NewService(cache, store, feed, new(MockPendingStore), new(MockRegistry), &countingWaker{})

	busDate := domain.ResolveBusinessDate(monday())
	store.On("Get", mock.Anything, domain.EUR, busDate).Return(decimal.RequireFromString("99.71"), nil)

	value, _, err := svc.GetRate(context.Background(), domain.EUR, monday())
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.RequireFromString("99.71")))

	cached, ok := cache.Get(domain.RateKey{Currency: domain.EUR, Date: busDate})
	require.True(t, ok)
	require.True(t, cached.Equal(decimal.RequireFromString("99.71")))
	feed.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestService_GetRate_FeedFallbackWarmsStore(t *testing.T) {
	cache := newMapCache()
	store := new(MockRateStore)
	feed := new(MockRateFeed)
	svc := NewService(cache, store, feed, new(MockPendingStore), new(MockRegistry), &countingWaker{})

	busDate := domain.ResolveBusinessDate(monday())
	store.On("Get", mock.Anything, domain.USD, busDate).Return(decimal.Decimal{}, domain.ErrRateNotFound)
	feed.On("Fetch", mock.Anything, busDate).Return(map[domain.Currency]decimal.Decimal{
		domain.USD: decimal.RequireFromString("92.5"),
		domain.EUR: decimal.RequireFromString("99.71"),
	}, nil)
	store.On("Set", mock.Anything, domain.USD, busDate, mock.Anything).Once()
	store.On("Set", mock.Anything, domain.EUR, busDate, mock.Anything).Once()

	value, _, err := svc.GetRate(context.Background(), domain.USD, monday())
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.RequireFromString("92.5")))
	store.AssertExpectations(t)
}

func TestService_GetRate_FeedUnavailableMeansNotFound(t *testing.T) {
	store := new(MockRateStore)
	feed := new(MockRateFeed)
	svc := NewService(newMapCache(), store, feed, new(MockPendingStore), new(MockRegistry), &countingWaker{})

	store.On("Get", mock.Anything, domain.USD, mock.Anything).Return(decimal.Decimal{}, domain.ErrRateNotFound)
	feed.On("Fetch", mock.Anything, mock.Anything).Return(nil, domain.ErrFeedUnavailable)

	_, _, err := svc.GetRate(context.Background(), domain.USD, monday())
	require.ErrorIs(t, err, domain.ErrRateNotFound)
}

func TestService_GetRate_WeekendResolvesToFriday(t *testing.T) {
	store := new(MockRateStore)
	svc := NewService(newMapCache(), store, new(MockRateFeed), new(MockPendingStore), new(MockRegistry), &countingWaker{})

	saturday := time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)
	friday := domain.ResolveBusinessDate(saturday)
	require.Equal(t, "2024-06-07", friday.String())
	store.On("Get", mock.Anything, domain.USD, friday).Return(decimal.RequireFromString("92.5"), nil)

	_, gotDate, err := svc.GetRate(context.Background(), domain.USD, saturday)
	require.NoError(t, err)
	require.True(t, gotDate.Equal(friday))
	store.AssertExpectations(t)
}

func TestService_QueueCalculation_SavesAndWakes(t *testing.T) {
	pending := new(MockPendingStore)
	waker := &countingWaker{}
	svc := NewService(newMapCache(), new(MockRateStore), new(MockRateFeed), pending, new(MockRegistry), waker)

	id := uuid.New()
	pending.On("Save", mock.Anything, mock.MatchedBy(func(calc domain.PendingCalculation) bool {
		return calc.UserID == 7 && calc.Currency == domain.USD && calc.TargetDate.String() == "2024-06-10"
	})).Return(id, nil)

	gotID, busDate, err := svc.QueueCalculation(context.Background(), 7, domain.USD, monday(), decimal.RequireFromString("1000"), decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	require.Equal(t, id, gotID)
	require.Equal(t, "2024-06-10", busDate.String())
	require.Equal(t, 1, waker.wakes)
}

func TestService_QueueCalculation_SaveFailurePropagatesWithoutWake(t *testing.T) {
	pending := new(MockPendingStore)
	waker := &countingWaker{}
	svc := NewService(newMapCache(), new(MockRateStore), new(MockRateFeed), pending, new(MockRegistry), waker)

	pending.On("Save", mock.Anything, mock.Anything).Return(uuid.Nil, domain.ErrStoreUnavailable)

	_, _, err := svc.QueueCalculation(context.Background(), 7, domain.USD, monday(), decimal.RequireFromString("1000"), decimal.Zero)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.Equal(t, 0, waker.wakes)
}

func TestService_Subscribe_WakesOnlyOnNewSubscription(t *testing.T) {
	registry := new(MockRegistry)
	waker := &countingWaker{}
	svc := NewService(newMapCache(), new(MockRateStore), new(MockRateFeed), new(MockPendingStore), registry, waker)

	registry.On("Subscribe", mock.Anything, domain.USD, int64(7)).Return(true).Once()
	registry.On("Subscribe", mock.Anything, domain.USD, int64(7)).Return(false).Once()

	require.True(t, svc.Subscribe(context.Background(), domain.USD, 7))
	require.False(t, svc.Subscribe(context.Background(), domain.USD, 7))
	require.Equal(t, 1, waker.wakes)
}
