package memory

import (
	"context"
	"sync"

	"busbooking/internal/domain"
	"busbooking/internal/repository"
)

// BookingRepository keeps bookings in process memory. It backs the service
// when no database is configured.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.BookingRecord
}

// NewBookingRepository creates an empty in-memory booking repository.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[string]*domain.BookingRecord)}
}

// Create persists a new booking record.
func (r *BookingRepository) Create(ctx context.Context, record *domain.BookingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[record.ID]; ok {
		return repository.ErrDuplicate
	}
	copy := *record
	copy.Seats = append([]domain.SeatID(nil), record.Seats...)
	copy.Leg = record.Leg.Clone()
	r.bookings[record.ID] = &copy
	return nil
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.BookingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *record
	copy.Seats = append([]domain.SeatID(nil), record.Seats...)
	return &copy, nil
}

// ListReservedSeats returns the seats held by stored bookings, keyed by leg ID.
func (r *BookingRepository) ListReservedSeats(ctx context.Context) (map[string][]domain.SeatID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reserved := make(map[string][]domain.SeatID)
	for _, record := range r.bookings {
		reserved[record.Leg.ID] = append(reserved[record.Leg.ID], record.Seats...)
	}
	return reserved, nil
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
