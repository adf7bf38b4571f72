package redis

import (
	"context"
	"time"

	"busbooking/internal/domain"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireCatalogLock(ctx context.Context, ttl time.Duration) (string, bool, error)
	ReleaseCatalogLock(ctx context.Context, token string) error
}

// CacheStoreInterface defines the interface for catalog and booking caching.
type CacheStoreInterface interface {
	GetCatalogSnapshot(ctx context.Context) ([]domain.RouteLeg, error)
	SetCatalogSnapshot(ctx context.Context, legs []domain.RouteLeg) error
	GetBooking(ctx context.Context, bookingID string) (*domain.BookingRecord, error)
	SetBooking(ctx context.Context, record *domain.BookingRecord, ttl time.Duration) error
}

// IdempotencyStoreInterface defines the interface for replaying responses.
type IdempotencyStoreInterface interface {
	GetResponse(ctx context.Context, key string) (*StoredResponse, error)
	SaveResponse(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface        = (*LockStore)(nil)
	_ CacheStoreInterface       = (*CacheStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
