package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"busbooking/internal/domain"
)

// CacheStore handles catalog and booking caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Key prefixes
const (
	catalogSnapshotKey = "cache:catalog:snapshot"
	bookingCachePrefix = "cache:booking:"
)

// cachedLeg carries the booked seats, which RouteLeg hides from JSON.
type cachedLeg struct {
	domain.RouteLeg
	Booked []domain.SeatID `json:"booked_seats"`
}

// GetCatalogSnapshot returns the last-known-good catalog, or nil on a miss.
func (s *CacheStore) GetCatalogSnapshot(ctx context.Context) ([]domain.RouteLeg, error) {
	data, err := s.client.Get(ctx, catalogSnapshotKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached []cachedLeg
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	legs := make([]domain.RouteLeg, len(cached))
	for i, c := range cached {
		legs[i] = c.RouteLeg
		legs[i].BookedSeats = c.Booked
		legs[i].DeriveAvailability()
	}
	return legs, nil
}

// SetCatalogSnapshot stores the catalog without expiry; it is overwritten on
// every successful load.
func (s *CacheStore) SetCatalogSnapshot(ctx context.Context, legs []domain.RouteLeg) error {
	cached := make([]cachedLeg, len(legs))
	for i, leg := range legs {
		cached[i] = cachedLeg{RouteLeg: leg, Booked: leg.BookedSeats}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, catalogSnapshotKey, data, 0).Err()
}

// GetBooking retrieves a booking from cache.
func (s *CacheStore) GetBooking(ctx context.Context, bookingID string) (*domain.BookingRecord, error) {
	data, err := s.client.Get(ctx, bookingCachePrefix+bookingID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var record domain.BookingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SetBooking stores a booking in cache.
func (s *CacheStore) SetBooking(ctx context.Context, record *domain.BookingRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, bookingCachePrefix+record.ID, data, ttl).Err()
}
