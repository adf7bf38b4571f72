package service

import (
	"errors"
	"fmt"
	"strings"

	"busbooking/internal/domain"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrSeatUnavailable is returned when toggling a seat that is already booked.
	ErrSeatUnavailable = errors.New("seat unavailable")

	// ErrSeatConflict is returned when a reservation loses a race for one of its seats.
	ErrSeatConflict = errors.New("seat conflict")

	// ErrReservationTimeout is returned when a leg's lock could not be taken in time.
	ErrReservationTimeout = errors.New("reservation timed out")

	// ErrRouteNotFound is returned when a leg is no longer in the catalog.
	ErrRouteNotFound = errors.New("route not found")

	// ErrStorageUnavailable is returned when the catalog or booking store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidTransition is returned when an event is not valid in the session's current step.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrLegFull is returned when selecting a leg with no seats left.
	ErrLegFull = errors.New("leg is full")

	// ErrInvalidSeat is returned for a seat id outside 1..totalSeats.
	ErrInvalidSeat = errors.New("invalid seat")

	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCatalogBusy is returned when another writer holds the catalog lock.
	ErrCatalogBusy = errors.New("catalog is being modified")
)

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SeatConflictError names the seats that were already taken.
type SeatConflictError struct {
	LegID string
	Seats []domain.SeatID
}

func (e *SeatConflictError) Error() string {
	ids := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		ids[i] = fmt.Sprint(int(s))
	}
	return fmt.Sprintf("seats %s already booked", strings.Join(ids, ", "))
}

// Is lets errors.Is(err, ErrSeatConflict) match.
func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}
