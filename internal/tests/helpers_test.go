package tests

import (
	"context"
	"testing"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/service"
)

func newLeg(id, bus, origin, destination string, departure domain.TimeOfDay, price int64, total int, booked ...domain.SeatID) domain.RouteLeg {
	leg := domain.RouteLeg{
		ID:            id,
		BusID:         bus,
		Origin:        origin,
		Destination:   destination,
		DepartureTime: departure,
		PricePerSeat:  price,
		TotalSeats:    total,
		BookedSeats:   booked,
	}
	leg.DeriveAvailability()
	return leg
}

func at(hour, minute int) domain.TimeOfDay {
	return domain.NewTimeOfDay(hour, minute)
}

// harness wires the booking core against mocks.
type harness struct {
	store     *MockCatalogStore
	repo      *MockBookingRepository
	cache     *MockCacheStore
	locks     *MockLockStore
	inventory *service.InventoryRegistry
	catalog   *service.CatalogService
	workflow  *service.BookingWorkflow
}

func newHarness(t *testing.T, legs ...domain.RouteLeg) *harness {
	t.Helper()

	h := &harness{
		store:     NewMockCatalogStore(legs...),
		repo:      NewMockBookingRepository(),
		cache:     NewMockCacheStore(),
		locks:     NewMockLockStore(),
		inventory: service.NewInventoryRegistry(0),
	}
	h.catalog = service.NewCatalogService(h.store, h.inventory, h.cache, h.locks, service.NewNotificationService(), 0)
	h.workflow = service.NewBookingWorkflow(h.catalog, h.inventory, h.repo, h.cache, service.NewNotificationService(), 0)

	if err := h.catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return h
}

// sessionAtSeats returns a session on legID with seats selected.
func (h *harness) sessionAtSeats(t *testing.T, legID string, seats ...domain.SeatID) *domain.BookingSession {
	t.Helper()
	ctx := context.Background()

	sess := domain.NewBookingSession("sess-"+legID, time.Now())
	if err := h.workflow.Start(ctx, sess); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.workflow.SelectLeg(ctx, sess, legID); err != nil {
		t.Fatalf("select leg: %v", err)
	}
	for _, seat := range seats {
		if err := h.workflow.ToggleSeat(ctx, sess, seat); err != nil {
			t.Fatalf("toggle seat %d: %v", seat, err)
		}
	}
	return sess
}

func passenger() domain.PassengerDetails {
	return domain.PassengerDetails{
		Name:       "Asha",
		Category:   domain.RiderCategoryStudent,
		Identifier: "21BCE0001",
	}
}
