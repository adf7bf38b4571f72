package repository

import (
	"context"

	"busbooking/internal/domain"
)

// BookingRepository defines the persistence operations for confirmed bookings.
type BookingRepository interface {
	// Create persists a new booking record.
	Create(ctx context.Context, record *domain.BookingRecord) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.BookingRecord, error)

	// ListReservedSeats returns the seats held by stored bookings, keyed by leg ID.
	ListReservedSeats(ctx context.Context) (map[string][]domain.SeatID, error)
}
