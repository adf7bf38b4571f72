package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"busbooking/internal/domain"
)

func TestSeatInventory_ReserveGivesUpWhileLegIsLocked(t *testing.T) {
	inv := newSeatInventory("leg-1", 40, nil, 20*time.Millisecond)

	// Simulate a writer that never finishes.
	if err := inv.writer.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer inv.writer.Release(1)

	start := time.Now()
	err := inv.Reserve(context.Background(), []domain.SeatID{1})
	if !errors.Is(err, ErrReservationTimeout) {
		t.Fatalf("expected ErrReservationTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("reserve blocked for %v", elapsed)
	}

	// Readers are not blocked by a pending writer.
	if inv.Available() != 40 {
		t.Errorf("expected 40 available, got %d", inv.Available())
	}
}

func TestSeatInventory_NewDropsOutOfRangeSeats(t *testing.T) {
	inv := newSeatInventory("leg-1", 4, []domain.SeatID{0, 2, 5}, 0)
	booked := inv.Booked()
	if len(booked) != 1 || booked[0] != 2 {
		t.Errorf("expected only seat 2 booked, got %v", booked)
	}
}
