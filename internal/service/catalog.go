package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"busbooking/internal/domain"
	"busbooking/internal/redis"
	"busbooking/internal/repository"
)

// CatalogStatus describes the health of the in-memory catalog.
type CatalogStatus struct {
	Degraded  bool      `json:"degraded"`
	LastError string    `json:"last_error,omitempty"`
	LoadedAt  time.Time `json:"loaded_at"`
	Legs      int       `json:"legs"`
}

// CatalogService owns the in-memory route catalog. Reads are served from the
// last snapshot that loaded successfully; a failed load keeps that snapshot
// and marks the catalog degraded.
type CatalogService struct {
	store               repository.RouteCatalogStore
	inventory           *InventoryRegistry
	cacheStore          redis.CacheStoreInterface // optional
	lockStore           redis.LockStoreInterface  // optional
	notificationService *NotificationService
	lockTTL             time.Duration

	writeMu sync.Mutex // serializes admin writes within this process

	mu       sync.RWMutex
	legs     []domain.RouteLeg
	loadedAt time.Time
	lastErr  error
}

// NewCatalogService creates a new CatalogService. cacheStore and lockStore
// may be nil when Redis is not configured.
func NewCatalogService(
	store repository.RouteCatalogStore,
	inventory *InventoryRegistry,
	cacheStore redis.CacheStoreInterface,
	lockStore redis.LockStoreInterface,
	notificationService *NotificationService,
	lockTTL time.Duration,
) *CatalogService {
	return &CatalogService{
		store:               store,
		inventory:           inventory,
		cacheStore:          cacheStore,
		lockStore:           lockStore,
		notificationService: notificationService,
		lockTTL:             lockTTL,
	}
}

// Refresh reloads the catalog from the store. On failure the previous
// snapshot stays in place (or, on a cold start, the cached one) and the
// returned error wraps ErrStorageUnavailable.
func (s *CatalogService) Refresh(ctx context.Context) error {
	legs, err := s.store.LoadLegs(ctx)
	if err != nil {
		s.markDegraded(ctx, err)
		s.warmFromCache(ctx)
		return fmt.Errorf("%w: load catalog: %v", ErrStorageUnavailable, err)
	}
	return s.apply(ctx, legs)
}

// Legs returns every leg with live seat availability.
func (s *CatalogService) Legs() []domain.RouteLeg {
	s.mu.RLock()
	legs := s.legs
	s.mu.RUnlock()
	return s.inventory.Overlay(legs)
}

// Leg returns one leg with live seat availability.
func (s *CatalogService) Leg(id string) (domain.RouteLeg, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, leg := range s.legs {
		if leg.ID == id {
			return s.inventory.overlayOne(leg), nil
		}
	}
	return domain.RouteLeg{}, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
}

// Search filters and groups the live catalog.
func (s *CatalogService) Search(origin, destination string) []domain.RouteGroup {
	return GroupLegs(s.Legs(), origin, destination)
}

// Degraded reports whether the last load failed.
func (s *CatalogService) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr != nil
}

// Status returns the catalog health summary.
func (s *CatalogService) Status() CatalogStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := CatalogStatus{
		Degraded: s.lastErr != nil,
		LoadedAt: s.loadedAt,
		Legs:     len(s.legs),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// AddLeg validates leg and appends it to the stored catalog.
func (s *CatalogService) AddLeg(ctx context.Context, leg domain.RouteLeg) (domain.RouteLeg, error) {
	leg = normalizeLeg(leg)
	if leg.ID == "" {
		leg.ID = uuid.New().String()
	}
	if err := leg.Validate(); err != nil {
		return domain.RouteLeg{}, asValidationError(err)
	}

	err := s.mutate(ctx, func(legs []domain.RouteLeg) ([]domain.RouteLeg, error) {
		for _, existing := range legs {
			if existing.ID == leg.ID {
				return nil, fmt.Errorf("%w: leg %s", repository.ErrDuplicate, leg.ID)
			}
		}
		return append(legs, leg), nil
	})
	if err != nil {
		return domain.RouteLeg{}, err
	}

	log.Printf("[CATALOG] Added leg %s: bus %s %s -> %s at %s",
		leg.ID, leg.BusID, leg.Origin, leg.Destination, leg.DepartureTime)
	return s.Leg(leg.ID)
}

// UpdateLeg replaces the schedule of leg id. Booked seats are kept; shrinking
// the bus below a booked seat is rejected. The live inventory is resized
// before the catalog is saved, so no seat beyond the new size can be sold
// while the update is in flight.
func (s *CatalogService) UpdateLeg(ctx context.Context, id string, leg domain.RouteLeg) (domain.RouteLeg, error) {
	leg = normalizeLeg(leg)
	leg.ID = id

	var resized *SeatInventory
	var previousTotal int
	err := s.mutate(ctx, func(legs []domain.RouteLeg) ([]domain.RouteLeg, error) {
		for i, existing := range legs {
			if existing.ID != id {
				continue
			}
			leg.BookedSeats = existing.BookedSeats
			leg.DeriveAvailability()
			if err := leg.Validate(); err != nil {
				return nil, asValidationError(err)
			}
			if inv, ok := s.inventory.Get(id); ok {
				previousTotal = inv.TotalSeats()
				if err := inv.resize(ctx, leg.TotalSeats); err != nil {
					return nil, err
				}
				resized = inv
			}
			legs[i] = leg
			return legs, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	})
	if err != nil {
		if resized != nil {
			if rerr := resized.resize(context.WithoutCancel(ctx), previousTotal); rerr != nil {
				log.Printf("[CATALOG] Failed to restore size of leg %s: %v", id, rerr)
			}
		}
		return domain.RouteLeg{}, err
	}

	log.Printf("[CATALOG] Updated leg %s", id)
	return s.Leg(id)
}

// DeleteLeg removes leg id from the stored catalog.
func (s *CatalogService) DeleteLeg(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(legs []domain.RouteLeg) ([]domain.RouteLeg, error) {
		for i, existing := range legs {
			if existing.ID == id {
				return append(legs[:i:i], legs[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	})
	if err != nil {
		return err
	}

	log.Printf("[CATALOG] Deleted leg %s", id)
	return nil
}

// RefreshEvery reloads the catalog on every tick until ctx is done.
func (s *CatalogService) RefreshEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				log.Printf("[CATALOG] Refresh failed, serving last snapshot: %v", err)
			}
		}
	}
}

// mutate runs a load, change and save cycle on the store. Live booked seats
// are written back with the catalog so they survive a restart.
func (s *CatalogService) mutate(ctx context.Context, change func([]domain.RouteLeg) ([]domain.RouteLeg, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.lockStore != nil {
		token, acquired, err := s.lockStore.AcquireCatalogLock(ctx, s.lockTTL)
		if err != nil {
			return fmt.Errorf("%w: catalog lock: %v", ErrStorageUnavailable, err)
		}
		if !acquired {
			return ErrCatalogBusy
		}
		defer func() {
			if err := s.lockStore.ReleaseCatalogLock(context.WithoutCancel(ctx), token); err != nil {
				log.Printf("[CATALOG] Failed to release catalog lock: %v", err)
			}
		}()
	}

	legs, err := s.store.LoadLegs(ctx)
	if err != nil {
		s.markDegraded(ctx, err)
		return fmt.Errorf("%w: load catalog: %v", ErrStorageUnavailable, err)
	}

	next, err := change(s.inventory.Overlay(legs))
	if err != nil {
		return err
	}

	if err := s.store.SaveLegs(ctx, next); err != nil {
		s.markDegraded(ctx, err)
		return fmt.Errorf("%w: save catalog: %v", ErrStorageUnavailable, err)
	}

	return s.apply(ctx, next)
}

// apply installs legs as the current snapshot.
func (s *CatalogService) apply(ctx context.Context, legs []domain.RouteLeg) error {
	if err := s.inventory.Sync(ctx, legs); err != nil {
		return err
	}

	s.mu.Lock()
	wasDegraded := s.lastErr != nil
	s.legs = legs
	s.loadedAt = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	if wasDegraded {
		log.Printf("[CATALOG] Catalog store recovered, %d legs loaded", len(legs))
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetCatalogSnapshot(ctx, s.inventory.Overlay(legs)); err != nil {
			log.Printf("[CATALOG] Failed to cache catalog snapshot: %v", err)
		}
	}
	return nil
}

func (s *CatalogService) markDegraded(ctx context.Context, cause error) {
	s.mu.Lock()
	first := s.lastErr == nil
	s.lastErr = cause
	s.mu.Unlock()

	if first && s.notificationService != nil {
		_ = s.notificationService.NotifyCatalogDegraded(ctx, cause)
	}
}

// warmFromCache seeds an empty catalog from the Redis snapshot.
func (s *CatalogService) warmFromCache(ctx context.Context) {
	if s.cacheStore == nil {
		return
	}
	s.mu.RLock()
	empty := s.legs == nil
	s.mu.RUnlock()
	if !empty {
		return
	}

	legs, err := s.cacheStore.GetCatalogSnapshot(ctx)
	if err != nil {
		log.Printf("[CATALOG] Failed to read cached catalog snapshot: %v", err)
		return
	}
	if legs == nil {
		return
	}
	if err := s.inventory.Sync(ctx, legs); err != nil {
		log.Printf("[CATALOG] Failed to seed inventory from cached snapshot: %v", err)
		return
	}

	s.mu.Lock()
	s.legs = legs
	s.loadedAt = time.Now()
	s.mu.Unlock()
	log.Printf("[CATALOG] Serving %d legs from cached snapshot", len(legs))
}

// normalizeLeg trims text fields and drops blank stops.
func normalizeLeg(leg domain.RouteLeg) domain.RouteLeg {
	leg = leg.Clone()
	leg.ID = strings.TrimSpace(leg.ID)
	leg.BusID = strings.TrimSpace(leg.BusID)
	leg.Origin = strings.TrimSpace(leg.Origin)
	leg.Destination = strings.TrimSpace(leg.Destination)
	leg.ImageRef = strings.TrimSpace(leg.ImageRef)

	stops := leg.IntermediateStops[:0:0]
	for _, stop := range leg.IntermediateStops {
		if stop = strings.TrimSpace(stop); stop != "" {
			stops = append(stops, stop)
		}
	}
	leg.IntermediateStops = stops
	leg.DeriveAvailability()
	return leg
}

// asValidationError converts a validator failure into a ValidationError.
func asValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		return &ValidationError{Field: fe.Field(), Msg: msg}
	}
	return &ValidationError{Field: "leg", Msg: err.Error()}
}
