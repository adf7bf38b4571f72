package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/redis"
	"busbooking/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK CATALOG STORE
// ──────────────────────────────────────────────

// MockCatalogStore is a mock implementation of RouteCatalogStore.
type MockCatalogStore struct {
	mu   sync.RWMutex
	legs []domain.RouteLeg

	// Counters for verification
	LoadCallCount int32
	SaveCallCount int32

	// Error injection
	LoadError error
	SaveError error
}

// NewMockCatalogStore creates a mock store holding legs.
func NewMockCatalogStore(legs ...domain.RouteLeg) *MockCatalogStore {
	m := &MockCatalogStore{}
	m.SetLegs(legs)
	return m
}

// SetLegs replaces the stored catalog.
func (m *MockCatalogStore) SetLegs(legs []domain.RouteLeg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legs = cloneLegs(legs)
}

// SetLoadError sets the error returned by LoadLegs.
func (m *MockCatalogStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadError = err
}

// StoredLegs returns the stored catalog for test assertions.
func (m *MockCatalogStore) StoredLegs() []domain.RouteLeg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneLegs(m.legs)
}

func (m *MockCatalogStore) LoadLegs(ctx context.Context) ([]domain.RouteLeg, error) {
	atomic.AddInt32(&m.LoadCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	legs := cloneLegs(m.legs)
	for i := range legs {
		legs[i].DeriveAvailability()
	}
	return legs, nil
}

func (m *MockCatalogStore) SaveLegs(ctx context.Context, legs []domain.RouteLeg) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.legs = cloneLegs(legs)
	return nil
}

func cloneLegs(legs []domain.RouteLeg) []domain.RouteLeg {
	if legs == nil {
		return nil
	}
	out := make([]domain.RouteLeg, len(legs))
	for i, leg := range legs {
		out[i] = leg.Clone()
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.BookingRecord

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.BookingRecord),
	}
}

func (m *MockBookingRepository) Create(ctx context.Context, record *domain.BookingRecord) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bookings[record.ID]; exists {
		return repository.ErrDuplicate
	}
	copy := *record
	m.bookings[record.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.BookingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *record
	return &copy, nil
}

func (m *MockBookingRepository) ListReservedSeats(ctx context.Context) (map[string][]domain.SeatID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]domain.SeatID)
	for _, record := range m.bookings {
		out[record.Leg.ID] = append(out[record.Leg.ID], record.Seats...)
	}
	return out, nil
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	next   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{}
}

func (m *MockLockStore) AcquireCatalogLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiry) {
		return "", false, nil // Lock still held.
	}

	m.next++
	m.token = fmt.Sprintf("token-%d", m.next)
	m.expiry = time.Now().Add(ttl)
	return m.token, true, nil
}

func (m *MockLockStore) ReleaseCatalogLock(ctx context.Context, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == token {
		m.token = ""
	}
	return nil
}

// IsLocked checks if the catalog is locked (for test assertions).
func (m *MockLockStore) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && time.Now().Before(m.expiry)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStore.
type MockCacheStore struct {
	mu       sync.Mutex
	snapshot []domain.RouteLeg
	bookings map[string]*domain.BookingRecord

	// Counters
	SetSnapshotCallCount int32
	GetBookingCallCount  int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{bookings: make(map[string]*domain.BookingRecord)}
}

func (m *MockCacheStore) GetCatalogSnapshot(ctx context.Context) ([]domain.RouteLeg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLegs(m.snapshot), nil
}

func (m *MockCacheStore) SetCatalogSnapshot(ctx context.Context, legs []domain.RouteLeg) error {
	atomic.AddInt32(&m.SetSnapshotCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = cloneLegs(legs)
	return nil
}

func (m *MockCacheStore) GetBooking(ctx context.Context, bookingID string) (*domain.BookingRecord, error) {
	atomic.AddInt32(&m.GetBookingCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.bookings[bookingID]
	if !ok {
		return nil, nil // Cache miss
	}
	copy := *record
	return &copy, nil
}

func (m *MockCacheStore) SetBooking(ctx context.Context, record *domain.BookingRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *record
	m.bookings[record.ID] = &copy
	return nil
}

// HasBooking reports whether bookingID is cached.
func (m *MockCacheStore) HasBooking(bookingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bookings[bookingID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK IDEMPOTENCY STORE
// ──────────────────────────────────────────────

// MockIdempotencyStore is a mock implementation of IdempotencyStoreInterface.
type MockIdempotencyStore struct {
	mu        sync.Mutex
	responses map[string]redis.StoredResponse

	// Error injection
	GetError error
}

// NewMockIdempotencyStore creates a new MockIdempotencyStore.
func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{responses: make(map[string]redis.StoredResponse)}
}

func (m *MockIdempotencyStore) GetResponse(ctx context.Context, key string) (*redis.StoredResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	resp, ok := m.responses[key]
	if !ok {
		return nil, nil
	}
	return &resp, nil
}

func (m *MockIdempotencyStore) SaveResponse(ctx context.Context, key string, resp *redis.StoredResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[key]; !ok {
		stored := *resp
		stored.Body = append([]byte(nil), resp.Body...)
		m.responses[key] = stored
	}
	return nil
}

// Len returns the number of stored responses.
func (m *MockIdempotencyStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

// Ensure mocks implement interfaces.
var (
	_ repository.RouteCatalogStore    = (*MockCatalogStore)(nil)
	_ repository.BookingRepository    = (*MockBookingRepository)(nil)
	_ redis.LockStoreInterface        = (*MockLockStore)(nil)
	_ redis.CacheStoreInterface       = (*MockCacheStore)(nil)
	_ redis.IdempotencyStoreInterface = (*MockIdempotencyStore)(nil)
)

func atomicLoad(counter *int32) int32 {
	return atomic.LoadInt32(counter)
}
