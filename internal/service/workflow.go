package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"busbooking/internal/domain"
	"busbooking/internal/redis"
	"busbooking/internal/repository"
)

// BookingIDPrefix starts every booking id.
const BookingIDPrefix = "BK-"

// NewBookingID returns a random 128-bit booking id.
func NewBookingID() string {
	return BookingIDPrefix + strings.ToUpper(uuid.New().String())
}

// BookingWorkflow drives one BookingSession through route selection, seat
// selection and confirmation. It holds no session state; callers pass the
// session in and serialize calls for the same session.
type BookingWorkflow struct {
	catalog             *CatalogService
	inventory           *InventoryRegistry
	bookingRepo         repository.BookingRepository
	cacheStore          redis.CacheStoreInterface // optional
	notificationService *NotificationService
	bookingCacheTTL     time.Duration

	newID func() string
	now   func() time.Time
}

// NewBookingWorkflow creates a new BookingWorkflow. cacheStore may be nil.
func NewBookingWorkflow(
	catalog *CatalogService,
	inventory *InventoryRegistry,
	bookingRepo repository.BookingRepository,
	cacheStore redis.CacheStoreInterface,
	notificationService *NotificationService,
	bookingCacheTTL time.Duration,
) *BookingWorkflow {
	return &BookingWorkflow{
		catalog:             catalog,
		inventory:           inventory,
		bookingRepo:         bookingRepo,
		cacheStore:          cacheStore,
		notificationService: notificationService,
		bookingCacheTTL:     bookingCacheTTL,
		newID:               NewBookingID,
		now:                 time.Now,
	}
}

// Start moves a session from Home to RouteSelection.
func (w *BookingWorkflow) Start(ctx context.Context, sess *domain.BookingSession) error {
	if sess.Step != domain.StepHome {
		return transitionError(sess.Step, "start")
	}
	sess.Step = domain.StepRouteSelection
	return nil
}

// SearchRoutes groups the live catalog for the given filters. It reads only
// and is valid in any step.
func (w *BookingWorkflow) SearchRoutes(ctx context.Context, sess *domain.BookingSession, origin, destination string) []domain.RouteGroup {
	return w.catalog.Search(origin, destination)
}

// SelectLeg picks the leg to book and clears any seat selection. A full leg
// is rejected with ErrLegFull. A leg that left the catalog triggers a
// refresh and returns ErrRouteNotFound.
func (w *BookingWorkflow) SelectLeg(ctx context.Context, sess *domain.BookingSession, legID string) error {
	if sess.Step != domain.StepRouteSelection {
		return transitionError(sess.Step, "select leg")
	}

	leg, err := w.catalog.Leg(legID)
	if err != nil {
		if errors.Is(err, ErrRouteNotFound) {
			w.routeGone(ctx, sess)
		}
		return err
	}
	if leg.Full() {
		return fmt.Errorf("%w: %s", ErrLegFull, legID)
	}

	leg.BookedSeats = nil
	sess.ChosenLeg = &leg
	sess.Selection = nil
	sess.Step = domain.StepSeatSelection
	return nil
}

// ToggleSeat adds or removes seat from the selection. Booked seats are
// refused with ErrSeatUnavailable and leave the selection unchanged.
func (w *BookingWorkflow) ToggleSeat(ctx context.Context, sess *domain.BookingSession, seat domain.SeatID) error {
	inv, err := w.chosenInventory(ctx, sess, "toggle seat")
	if err != nil {
		return err
	}

	selection, err := inv.ToggleSelection(sess.Selection, seat)
	if err != nil {
		return err
	}
	sess.Selection = selection
	return nil
}

// SeatMap returns the chosen leg's seats annotated with the session's selection.
func (w *BookingWorkflow) SeatMap(ctx context.Context, sess *domain.BookingSession) ([]domain.SeatRowView, error) {
	inv, err := w.chosenInventory(ctx, sess, "view seats")
	if err != nil {
		return nil, err
	}
	return inv.SeatMap(sess.Selection), nil
}

// Back steps one screen back. From SeatSelection the chosen leg and
// selection are discarded; nothing shared was committed, so nothing is released.
func (w *BookingWorkflow) Back(ctx context.Context, sess *domain.BookingSession) error {
	switch sess.Step {
	case domain.StepSeatSelection:
		sess.ChosenLeg = nil
		sess.Selection = nil
		sess.Step = domain.StepRouteSelection
		return nil
	case domain.StepRouteSelection:
		sess.Step = domain.StepHome
		return nil
	default:
		return transitionError(sess.Step, "back")
	}
}

// Confirm reserves the selected seats and records the booking.
//
// Validation failures leave the session untouched. On a seat conflict the
// taken seats are dropped from the selection and the session stays in
// SeatSelection. If the booking cannot be stored the seats are released
// again and ErrStorageUnavailable is returned.
func (w *BookingWorkflow) Confirm(ctx context.Context, sess *domain.BookingSession, details domain.PassengerDetails) (*domain.BookingRecord, error) {
	if sess.Step != domain.StepSeatSelection {
		return nil, transitionError(sess.Step, "confirm")
	}

	details = normalizePassenger(details)
	if err := validateConfirmation(sess.Selection, details); err != nil {
		return nil, err
	}

	inv, err := w.chosenInventory(ctx, sess, "confirm")
	if err != nil {
		return nil, err
	}

	seats := append([]domain.SeatID(nil), sess.Selection...)
	if err := inv.Reserve(ctx, seats); err != nil {
		var conflict *SeatConflictError
		if errors.As(err, &conflict) {
			sess.Selection = sess.Selection.Without(conflict.Seats...)
			log.Printf("[BOOKING] Seat conflict on leg %s: %v", inv.LegID(), conflict.Seats)
		}
		return nil, err
	}

	leg := sess.ChosenLeg.Clone()
	leg.BookedSeats = nil
	leg.AvailableSeats = inv.Available()

	boardingPoint := details.BoardingPoint
	if boardingPoint == "" {
		boardingPoint = leg.Origin
	}

	record := &domain.BookingRecord{
		ID:              w.newID(),
		Leg:             leg,
		Seats:           seats,
		PassengerName:   details.Name,
		RiderCategory:   details.Category,
		RiderIdentifier: details.Identifier,
		BoardingPoint:   boardingPoint,
		Phone:           details.Phone,
		Email:           details.Email,
		TotalPrice:      leg.PricePerSeat * int64(len(seats)),
		CreatedAt:       w.now(),
	}

	if err := w.bookingRepo.Create(ctx, record); err != nil {
		if relErr := inv.Release(context.WithoutCancel(ctx), seats); relErr != nil {
			log.Printf("[BOOKING] Failed to release seats %v on leg %s: %v", seats, inv.LegID(), relErr)
		}
		return nil, fmt.Errorf("%w: save booking: %v", ErrStorageUnavailable, err)
	}

	if w.cacheStore != nil {
		_ = w.cacheStore.SetBooking(ctx, record, w.bookingCacheTTL)
	}
	if w.notificationService != nil {
		_ = w.notificationService.NotifyBookingConfirmed(ctx, record)
	}

	log.Printf("[BOOKING] Confirmed %s: leg %s seats %v total %d", record.ID, leg.ID, seats, record.TotalPrice)

	sess.Record = record
	sess.Step = domain.StepConfirmation
	return record, nil
}

// Reset returns the session to Home from any step.
func (w *BookingWorkflow) Reset(ctx context.Context, sess *domain.BookingSession) error {
	sess.Reset()
	return nil
}

// GetBooking looks a booking up, cache first.
func (w *BookingWorkflow) GetBooking(ctx context.Context, id string) (*domain.BookingRecord, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Msg: "booking id is required"}
	}

	if w.cacheStore != nil {
		if record, err := w.cacheStore.GetBooking(ctx, id); err == nil && record != nil {
			return record, nil
		}
	}

	record, err := w.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if w.cacheStore != nil {
		_ = w.cacheStore.SetBooking(ctx, record, w.bookingCacheTTL)
	}
	return record, nil
}

// chosenInventory returns the inventory of the session's chosen leg.
func (w *BookingWorkflow) chosenInventory(ctx context.Context, sess *domain.BookingSession, event string) (*SeatInventory, error) {
	if sess.Step != domain.StepSeatSelection || sess.ChosenLeg == nil {
		return nil, transitionError(sess.Step, event)
	}
	inv, ok := w.inventory.Get(sess.ChosenLeg.ID)
	if !ok {
		legID := sess.ChosenLeg.ID
		w.routeGone(ctx, sess)
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, legID)
	}
	return inv, nil
}

// routeGone refreshes the catalog and sends the session back to RouteSelection.
func (w *BookingWorkflow) routeGone(ctx context.Context, sess *domain.BookingSession) {
	if err := w.catalog.Refresh(ctx); err != nil {
		log.Printf("[BOOKING] Catalog refresh after missing route failed: %v", err)
	}
	sess.ChosenLeg = nil
	sess.Selection = nil
	sess.Step = domain.StepRouteSelection
}

func normalizePassenger(d domain.PassengerDetails) domain.PassengerDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Identifier = strings.TrimSpace(d.Identifier)
	d.BoardingPoint = strings.TrimSpace(d.BoardingPoint)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Email = strings.TrimSpace(d.Email)
	d.Category = domain.RiderCategory(strings.ToLower(strings.TrimSpace(string(d.Category))))
	if d.Category == "" {
		d.Category = domain.RiderCategoryStudent
	}
	return d
}

func validateConfirmation(selection domain.SeatSelection, d domain.PassengerDetails) error {
	if len(selection) == 0 {
		return &ValidationError{Field: "seats", Msg: "select at least one seat"}
	}
	if d.Name == "" {
		return &ValidationError{Field: "name", Msg: "passenger name is required"}
	}
	if d.Identifier == "" {
		return &ValidationError{Field: "identifier", Msg: d.Category.IdentifierLabel() + " is required"}
	}
	if err := d.Validate(); err != nil {
		return asValidationError(err)
	}
	return nil
}

func transitionError(step domain.BookingStep, event string) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, event, step)
}
