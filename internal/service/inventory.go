package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"busbooking/internal/domain"
)

// SeatInventory tracks the booked seats of one leg.
//
// Writers serialize on a weight-1 semaphore so that acquisition is bounded by
// a context; the mutex only guards the booked set for readers and is never
// held across I/O.
type SeatInventory struct {
	legID   string
	timeout time.Duration

	writer *semaphore.Weighted

	mu     sync.RWMutex
	total  int
	booked map[domain.SeatID]struct{}
}

func newSeatInventory(legID string, totalSeats int, booked []domain.SeatID, timeout time.Duration) *SeatInventory {
	inv := &SeatInventory{
		legID:   legID,
		timeout: timeout,
		writer:  semaphore.NewWeighted(1),
		total:   totalSeats,
		booked:  make(map[domain.SeatID]struct{}, len(booked)),
	}
	for _, seat := range booked {
		if inv.inRange(seat) {
			inv.booked[seat] = struct{}{}
		}
	}
	return inv
}

// LegID returns the leg this inventory belongs to.
func (inv *SeatInventory) LegID() string {
	return inv.legID
}

// TotalSeats returns the number of seats on the leg.
func (inv *SeatInventory) TotalSeats() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.total
}

// IsBooked reports whether seat is sold.
func (inv *SeatInventory) IsBooked(seat domain.SeatID) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	_, ok := inv.booked[seat]
	return ok
}

// Booked returns the booked seats in ascending order.
func (inv *SeatInventory) Booked() []domain.SeatID {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.bookedLocked()
}

// Available returns the number of seats not booked.
func (inv *SeatInventory) Available() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.total - len(inv.booked)
}

// ToggleSelection flips seat in selection. Booked seats are refused with
// ErrSeatUnavailable and the selection is returned unchanged.
func (inv *SeatInventory) ToggleSelection(selection domain.SeatSelection, seat domain.SeatID) (domain.SeatSelection, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	if !inv.inRange(seat) {
		return selection, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if _, ok := inv.booked[seat]; ok {
		return selection, fmt.Errorf("%w: seat %d", ErrSeatUnavailable, seat)
	}
	return selection.Toggle(seat), nil
}

// Reserve books every seat in seats or none of them. A seat already booked
// yields a *SeatConflictError listing all taken seats; failing to get the
// leg's lock before the deadline yields ErrReservationTimeout.
func (inv *SeatInventory) Reserve(ctx context.Context, seats []domain.SeatID) error {
	if len(seats) == 0 {
		return &ValidationError{Field: "seats", Msg: "select at least one seat"}
	}
	release, err := inv.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	inv.mu.Lock()
	defer inv.mu.Unlock()

	seen := make(map[domain.SeatID]struct{}, len(seats))
	var taken []domain.SeatID
	for _, seat := range seats {
		if !inv.inRange(seat) {
			return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
		}
		if _, dup := seen[seat]; dup {
			return &ValidationError{Field: "seats", Msg: fmt.Sprintf("seat %d requested twice", seat)}
		}
		seen[seat] = struct{}{}
		if _, ok := inv.booked[seat]; ok {
			taken = append(taken, seat)
		}
	}
	if len(taken) > 0 {
		return &SeatConflictError{LegID: inv.legID, Seats: taken}
	}

	for _, seat := range seats {
		inv.booked[seat] = struct{}{}
	}
	return nil
}

// Release returns previously reserved seats to the pool. Seats that are not
// booked are ignored.
func (inv *SeatInventory) Release(ctx context.Context, seats []domain.SeatID) error {
	release, err := inv.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, seat := range seats {
		delete(inv.booked, seat)
	}
	return nil
}

// SeatMap lays out the leg's seats with their state for the given selection.
// A seat both booked and selected is shown as booked.
func (inv *SeatInventory) SeatMap(selection domain.SeatSelection) []domain.SeatRowView {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	state := func(id domain.SeatID) domain.SeatView {
		switch {
		case inv.hasBooked(id):
			return domain.SeatView{ID: id, State: domain.SeatStateBooked}
		case selection.Contains(id):
			return domain.SeatView{ID: id, State: domain.SeatStateSelected}
		default:
			return domain.SeatView{ID: id, State: domain.SeatStateFree}
		}
	}

	rows := domain.Layout(inv.total)
	views := make([]domain.SeatRowView, 0, len(rows))
	for _, row := range rows {
		view := domain.SeatRowView{Number: row.Number}
		for _, id := range row.Left {
			view.Left = append(view.Left, state(id))
		}
		for _, id := range row.Right {
			view.Right = append(view.Right, state(id))
		}
		views = append(views, view)
	}
	return views
}

// adopt resizes the inventory to totalSeats and merges persisted bookings.
// Persisted seats beyond the size are ignored. A booked seat is never
// dropped: when one lies beyond totalSeats the current size is kept and a
// *ValidationError naming the seats is returned.
func (inv *SeatInventory) adopt(ctx context.Context, totalSeats int, persisted []domain.SeatID) error {
	release, err := inv.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	inv.mu.Lock()
	defer inv.mu.Unlock()

	shrinkErr := inv.checkSizeLocked(totalSeats)
	if shrinkErr == nil {
		inv.total = totalSeats
	}
	for _, seat := range persisted {
		if inv.inRange(seat) {
			inv.booked[seat] = struct{}{}
		}
	}
	return shrinkErr
}

// resize changes the number of seats. Shrinking below a booked seat is
// refused with a *ValidationError and leaves the inventory unchanged.
func (inv *SeatInventory) resize(ctx context.Context, totalSeats int) error {
	release, err := inv.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	inv.mu.Lock()
	defer inv.mu.Unlock()
	if err := inv.checkSizeLocked(totalSeats); err != nil {
		return err
	}
	inv.total = totalSeats
	return nil
}

func (inv *SeatInventory) checkSizeLocked(totalSeats int) error {
	var beyond []domain.SeatID
	for seat := range inv.booked {
		if int(seat) > totalSeats {
			beyond = append(beyond, seat)
		}
	}
	if len(beyond) == 0 {
		return nil
	}
	sort.Slice(beyond, func(i, j int) bool { return beyond[i] < beyond[j] })
	return &ValidationError{
		Field: "total_seats",
		Msg:   fmt.Sprintf("leg %s has %d seats but seats %v are booked", inv.legID, totalSeats, beyond),
	}
}

func (inv *SeatInventory) lock(ctx context.Context) (func(), error) {
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}
	if err := inv.writer.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: leg %s: %v", ErrReservationTimeout, inv.legID, err)
	}
	return func() { inv.writer.Release(1) }, nil
}

func (inv *SeatInventory) inRange(seat domain.SeatID) bool {
	return seat >= 1 && int(seat) <= inv.total
}

func (inv *SeatInventory) hasBooked(seat domain.SeatID) bool {
	_, ok := inv.booked[seat]
	return ok
}

func (inv *SeatInventory) bookedLocked() []domain.SeatID {
	out := make([]domain.SeatID, 0, len(inv.booked))
	for seat := range inv.booked {
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InventoryRegistry owns one SeatInventory per catalog leg.
type InventoryRegistry struct {
	reserveTimeout time.Duration

	mu       sync.RWMutex
	legs     map[string]*SeatInventory
	reserved map[string][]domain.SeatID // seats held by stored bookings
}

// NewInventoryRegistry creates an empty registry. reserveTimeout bounds how
// long a writer waits for a leg's lock; zero means only the caller's context.
func NewInventoryRegistry(reserveTimeout time.Duration) *InventoryRegistry {
	return &InventoryRegistry{
		reserveTimeout: reserveTimeout,
		legs:           make(map[string]*SeatInventory),
		reserved:       make(map[string][]domain.SeatID),
	}
}

// Sync aligns the registry with a catalog snapshot. New legs get an
// inventory seeded from their persisted booked seats and the seats of
// stored bookings passed to Restore. Existing legs keep their in-memory
// bookings merged with the persisted ones. Legs no longer in the catalog
// are dropped.
func (r *InventoryRegistry) Sync(ctx context.Context, legs []domain.RouteLeg) error {
	r.mu.Lock()
	existing := make(map[string]*SeatInventory, len(legs))
	next := make(map[string]*SeatInventory, len(legs))
	for _, leg := range legs {
		if inv, ok := r.legs[leg.ID]; ok {
			existing[leg.ID] = inv
			next[leg.ID] = inv
			continue
		}
		seed := append(append([]domain.SeatID(nil), leg.BookedSeats...), r.reserved[leg.ID]...)
		next[leg.ID] = newSeatInventory(leg.ID, leg.TotalSeats, seed, r.reserveTimeout)
	}
	r.legs = next
	r.mu.Unlock()

	for _, leg := range legs {
		inv, ok := existing[leg.ID]
		if !ok {
			continue
		}
		if err := inv.adopt(ctx, leg.TotalSeats, leg.BookedSeats); err != nil {
			if errors.Is(err, ErrReservationTimeout) {
				return err
			}
			log.Printf("[CATALOG] Leg %s keeps %d seats: %v", leg.ID, inv.TotalSeats(), err)
		}
	}
	return nil
}

// Get returns the inventory for legID.
func (r *InventoryRegistry) Get(legID string) (*SeatInventory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.legs[legID]
	return inv, ok
}

// Restore re-applies seats held by stored bookings. The seats are also kept
// for legs that are not in the registry yet, so a catalog that loads later
// still starts with them booked.
func (r *InventoryRegistry) Restore(ctx context.Context, reserved map[string][]domain.SeatID) error {
	r.mu.Lock()
	for legID, seats := range reserved {
		r.reserved[legID] = append(r.reserved[legID], seats...)
	}
	r.mu.Unlock()

	for legID, seats := range reserved {
		inv, ok := r.Get(legID)
		if !ok {
			continue
		}
		if err := inv.adopt(ctx, inv.TotalSeats(), seats); err != nil {
			return err
		}
	}
	return nil
}

// SeatMap returns the seat layout of legID annotated for selection.
func (r *InventoryRegistry) SeatMap(legID string, selection domain.SeatSelection) ([]domain.SeatRowView, error) {
	inv, ok := r.Get(legID)
	if !ok {
		return nil, ErrRouteNotFound
	}
	return inv.SeatMap(selection), nil
}

// Overlay copies legs and replaces their booked seats and availability with
// the live inventory state.
func (r *InventoryRegistry) Overlay(legs []domain.RouteLeg) []domain.RouteLeg {
	out := make([]domain.RouteLeg, len(legs))
	for i, leg := range legs {
		out[i] = r.overlayOne(leg)
	}
	return out
}

func (r *InventoryRegistry) overlayOne(leg domain.RouteLeg) domain.RouteLeg {
	leg = leg.Clone()
	if inv, ok := r.Get(leg.ID); ok {
		leg.TotalSeats = inv.TotalSeats()
		leg.BookedSeats = inv.Booked()
	}
	leg.DeriveAvailability()
	return leg
}
