package tests

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"busbooking/internal/domain"
	"busbooking/internal/repository"
	"busbooking/internal/service"
)

func TestCatalog_FailedRefreshKeepsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t,
		newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40),
		newLeg("leg-2", "14", "C", "D", at(9, 0), 5, 40),
	)

	h.store.SetLoadError(errors.New("disk unplugged"))
	err := h.catalog.Refresh(ctx)
	if !errors.Is(err, service.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if !h.catalog.Degraded() {
		t.Error("expected catalog to be degraded")
	}
	if got := len(h.catalog.Legs()); got != 2 {
		t.Errorf("expected last snapshot of 2 legs, got %d", got)
	}
	status := h.catalog.Status()
	if !status.Degraded || status.LastError == "" || status.Legs != 2 {
		t.Errorf("unexpected status %+v", status)
	}

	// Bookings keep working against the last snapshot.
	if _, err := h.workflow.Confirm(ctx, h.sessionAtSeats(t, "leg-1", 1), passenger()); err != nil {
		t.Fatalf("confirm while degraded: %v", err)
	}

	h.store.SetLoadError(nil)
	if err := h.catalog.Refresh(ctx); err != nil {
		t.Fatalf("refresh after recovery: %v", err)
	}
	if h.catalog.Degraded() {
		t.Error("expected degraded flag cleared after a good load")
	}
}

func TestCatalog_RefreshKeepsLiveBookings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))

	if _, err := h.workflow.Confirm(ctx, h.sessionAtSeats(t, "leg-1", 5, 6), passenger()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := h.catalog.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	leg, err := h.catalog.Leg("leg-1")
	if err != nil {
		t.Fatalf("leg: %v", err)
	}
	if leg.AvailableSeats != 38 || !reflect.DeepEqual(leg.BookedSeats, []domain.SeatID{5, 6}) {
		t.Errorf("refresh lost live bookings: %+v", leg)
	}
}

func TestCatalog_ColdStartServesCachedSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache := NewMockCacheStore()
	_ = cache.SetCatalogSnapshot(ctx, []domain.RouteLeg{newLeg("cached", "13", "A", "B", at(8, 0), 5, 40, 1, 2)})

	store := NewMockCatalogStore()
	store.SetLoadError(errors.New("connection refused"))

	inventory := service.NewInventoryRegistry(0)
	catalog := service.NewCatalogService(store, inventory, cache, NewMockLockStore(), service.NewNotificationService(), 0)

	if err := catalog.Refresh(ctx); !errors.Is(err, service.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	legs := catalog.Legs()
	if len(legs) != 1 || legs[0].ID != "cached" || legs[0].AvailableSeats != 38 {
		t.Fatalf("expected cached leg with 38 seats, got %+v", legs)
	}
	if !catalog.Degraded() {
		t.Error("expected degraded while serving cached snapshot")
	}
	if inv, ok := inventory.Get("cached"); !ok || !inv.IsBooked(2) {
		t.Error("expected inventory seeded from cached snapshot")
	}
}

func TestCatalog_AddLeg(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	leg, err := h.catalog.AddLeg(ctx, domain.RouteLeg{
		BusID:             " 21 ",
		Origin:            " Katpadi ",
		Destination:       "Takshashila University",
		DepartureTime:     at(6, 45),
		PricePerSeat:      15,
		TotalSeats:        32,
		IntermediateStops: []string{" Chittoor Bus Stand ", "", "  "},
	})
	if err != nil {
		t.Fatalf("add leg: %v", err)
	}
	if leg.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if leg.BusID != "21" || leg.Origin != "Katpadi" {
		t.Errorf("expected trimmed fields, got %q %q", leg.BusID, leg.Origin)
	}
	if !reflect.DeepEqual(leg.IntermediateStops, []string{"Chittoor Bus Stand"}) {
		t.Errorf("expected blank stops dropped, got %v", leg.IntermediateStops)
	}
	if leg.AvailableSeats != 32 {
		t.Errorf("expected 32 seats, got %d", leg.AvailableSeats)
	}

	stored := h.store.StoredLegs()
	if len(stored) != 1 || stored[0].ID != leg.ID {
		t.Fatalf("expected leg persisted, got %+v", stored)
	}
	if _, ok := h.inventory.Get(leg.ID); !ok {
		t.Error("expected inventory for the new leg")
	}
	if h.locks.IsLocked() {
		t.Error("expected catalog lock released")
	}

	_, err = h.catalog.AddLeg(ctx, domain.RouteLeg{ID: leg.ID, BusID: "1", Origin: "A", Destination: "B", TotalSeats: 4})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestCatalog_AddLegValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		leg   domain.RouteLeg
		field string
	}{
		{"missing bus", domain.RouteLeg{Origin: "A", Destination: "B", TotalSeats: 4}, "bus_id"},
		{"blank origin", domain.RouteLeg{BusID: "1", Origin: "  ", Destination: "B", TotalSeats: 4}, "origin"},
		{"no seats", domain.RouteLeg{BusID: "1", Origin: "A", Destination: "B"}, "total_seats"},
		{"negative price", domain.RouteLeg{BusID: "1", Origin: "A", Destination: "B", TotalSeats: 4, PricePerSeat: -1}, "price_per_seat"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.catalog.AddLeg(context.Background(), tc.leg)

			var validationErr *service.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, validationErr.Field)
			}
			if atomicLoad(&h.store.SaveCallCount) != 0 {
				t.Error("invalid leg must not be saved")
			}
		})
	}
}

func TestCatalog_WritesPersistLiveBookedSeats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))

	if _, err := h.workflow.Confirm(ctx, h.sessionAtSeats(t, "leg-1", 7), passenger()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := h.catalog.AddLeg(ctx, newLeg("leg-2", "14", "C", "D", at(9, 0), 5, 40)); err != nil {
		t.Fatalf("add leg: %v", err)
	}

	for _, leg := range h.store.StoredLegs() {
		if leg.ID == "leg-1" && !reflect.DeepEqual(leg.BookedSeats, []domain.SeatID{7}) {
			t.Errorf("expected seat 7 persisted, got %v", leg.BookedSeats)
		}
	}
}

func TestCatalog_UpdateLeg(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))

	if _, err := h.workflow.Confirm(ctx, h.sessionAtSeats(t, "leg-1", 30), passenger()); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	updated, err := h.catalog.UpdateLeg(ctx, "leg-1", domain.RouteLeg{
		BusID: "13", Origin: "A", Destination: "B", DepartureTime: at(8, 30), PricePerSeat: 6, TotalSeats: 36,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DepartureTime != at(8, 30) || updated.PricePerSeat != 6 || updated.AvailableSeats != 35 {
		t.Errorf("unexpected updated leg %+v", updated)
	}

	_, err = h.catalog.UpdateLeg(ctx, "leg-1", domain.RouteLeg{
		BusID: "13", Origin: "A", Destination: "B", TotalSeats: 20,
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation when shrinking below a booked seat, got %v", err)
	}

	_, err = h.catalog.UpdateLeg(ctx, "nope", domain.RouteLeg{BusID: "1", Origin: "A", Destination: "B", TotalSeats: 4})
	if !errors.Is(err, service.ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound, got %v", err)
	}
}

func TestCatalog_UpdateLegKeepsLiveSeatsInRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))

	inv, _ := h.inventory.Get("leg-1")
	if err := inv.Reserve(ctx, []domain.SeatID{38}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	_, err := h.catalog.UpdateLeg(ctx, "leg-1", domain.RouteLeg{
		BusID: "13", Origin: "A", Destination: "B", TotalSeats: 36,
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if inv.TotalSeats() != 40 || !inv.IsBooked(38) {
		t.Errorf("expected 40 seats with 38 booked, got %d seats booked=%v", inv.TotalSeats(), inv.Booked())
	}
	if got := h.store.StoredLegs()[0].TotalSeats; got != 40 {
		t.Errorf("expected stored leg to keep 40 seats, got %d", got)
	}
}

func TestCatalog_UpdateLegSaveFailureRestoresSize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))
	h.store.SaveError = errors.New("read-only file system")

	_, err := h.catalog.UpdateLeg(ctx, "leg-1", domain.RouteLeg{
		BusID: "13", Origin: "A", Destination: "B", TotalSeats: 36,
	})
	if err == nil {
		t.Fatal("expected save error")
	}

	inv, _ := h.inventory.Get("leg-1")
	if inv.TotalSeats() != 40 {
		t.Fatalf("expected 40 seats after failed update, got %d", inv.TotalSeats())
	}
	if err := inv.Reserve(ctx, []domain.SeatID{39}); err != nil {
		t.Errorf("seat 39 should still be sellable: %v", err)
	}
}

func TestCatalog_RestoreSurvivesFailedFirstLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMockCatalogStore(newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))
	store.SetLoadError(errors.New("connection refused"))
	inventory := service.NewInventoryRegistry(0)
	catalog := service.NewCatalogService(store, inventory, NewMockCacheStore(), NewMockLockStore(), service.NewNotificationService(), 0)

	if err := catalog.Refresh(ctx); err == nil {
		t.Fatal("expected first refresh to fail")
	}
	if err := inventory.Restore(ctx, map[string][]domain.SeatID{"leg-1": {1, 2}}); err != nil {
		t.Fatalf("restore: %v", err)
	}

	store.SetLoadError(nil)
	if err := catalog.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	inv, ok := inventory.Get("leg-1")
	if !ok {
		t.Fatal("expected leg-1 inventory")
	}
	if err := inv.Reserve(ctx, []domain.SeatID{1}); !errors.Is(err, service.ErrSeatConflict) {
		t.Errorf("expected ErrSeatConflict for a restored seat, got %v", err)
	}
	leg, err := catalog.Leg("leg-1")
	if err != nil {
		t.Fatalf("leg: %v", err)
	}
	if leg.AvailableSeats != 38 {
		t.Errorf("expected 38 available seats, got %d", leg.AvailableSeats)
	}
}

func TestCatalog_DeleteLeg(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))

	if err := h.catalog.DeleteLeg(ctx, "missing"); !errors.Is(err, service.ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound, got %v", err)
	}
	if err := h.catalog.DeleteLeg(ctx, "leg-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(h.catalog.Legs()) != 0 || len(h.store.StoredLegs()) != 0 {
		t.Error("expected leg removed from catalog and store")
	}
	if _, ok := h.inventory.Get("leg-1"); ok {
		t.Error("expected inventory dropped")
	}
}

func TestCatalog_HeldLockRejectsWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))
	h.locks.ForceAcquireFailure = true

	err := h.catalog.DeleteLeg(ctx, "leg-1")
	if !errors.Is(err, service.ErrCatalogBusy) {
		t.Fatalf("expected ErrCatalogBusy, got %v", err)
	}
	if atomicLoad(&h.store.SaveCallCount) != 0 {
		t.Error("store written without the lock")
	}
}

func TestCatalog_SaveFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, newLeg("leg-1", "13", "A", "B", at(8, 0), 5, 40))
	h.store.SaveError = errors.New("read-only file system")

	err := h.catalog.DeleteLeg(ctx, "leg-1")
	if !errors.Is(err, service.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := h.catalog.Leg("leg-1"); err != nil {
		t.Errorf("expected leg kept after failed save: %v", err)
	}
	if h.locks.IsLocked() {
		t.Error("expected catalog lock released after failure")
	}
}
