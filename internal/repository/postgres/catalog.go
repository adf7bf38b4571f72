package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"busbooking/internal/domain"
	"busbooking/internal/repository"
)

// CatalogRepository is a PostgreSQL implementation of repository.RouteCatalogStore.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new PostgreSQL catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// LoadLegs returns every leg in catalog order.
func (r *CatalogRepository) LoadLegs(ctx context.Context) ([]domain.RouteLeg, error) {
	query := `
		SELECT id, bus_id, origin, destination, departure_minute, price_per_seat, total_seats, booked_seats, stops, image_ref
		FROM route_legs ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []domain.RouteLeg
	for rows.Next() {
		var leg domain.RouteLeg
		var departure int
		var booked pq.Int64Array
		var stops pq.StringArray
		var imageRef sql.NullString

		if err := rows.Scan(
			&leg.ID,
			&leg.BusID,
			&leg.Origin,
			&leg.Destination,
			&departure,
			&leg.PricePerSeat,
			&leg.TotalSeats,
			&booked,
			&stops,
			&imageRef,
		); err != nil {
			return nil, err
		}

		leg.DepartureTime = domain.TimeOfDay(departure)
		leg.BookedSeats = toSeatIDs(booked)
		if len(stops) > 0 {
			leg.IntermediateStops = []string(stops)
		}
		if imageRef.Valid {
			leg.ImageRef = imageRef.String
		}
		leg.DeriveAvailability()

		legs = append(legs, leg)
	}

	return legs, rows.Err()
}

// SaveLegs replaces the catalog inside one transaction.
func (r *CatalogRepository) SaveLegs(ctx context.Context, legs []domain.RouteLeg) error {
	query := `
		INSERT INTO route_legs (id, bus_id, origin, destination, departure_minute, price_per_seat, total_seats, booked_seats, stops, image_ref, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM route_legs`); err != nil {
			return err
		}

		for i, leg := range legs {
			if leg.ID == "" {
				return fmt.Errorf("leg at position %d has no id", i)
			}

			stops := pq.StringArray(leg.IntermediateStops)
			if stops == nil {
				stops = pq.StringArray{}
			}

			var imageRef sql.NullString
			if leg.ImageRef != "" {
				imageRef = sql.NullString{String: leg.ImageRef, Valid: true}
			}

			if _, err := tx.ExecContext(ctx, query,
				leg.ID,
				leg.BusID,
				leg.Origin,
				leg.Destination,
				int(leg.DepartureTime),
				leg.PricePerSeat,
				leg.TotalSeats,
				fromSeatIDs(leg.BookedSeats),
				stops,
				imageRef,
				i,
			); err != nil {
				return fmt.Errorf("insert leg %s: %w", leg.ID, err)
			}
		}
		return nil
	})
}

func toSeatIDs(values pq.Int64Array) []domain.SeatID {
	if len(values) == 0 {
		return nil
	}
	seats := make([]domain.SeatID, len(values))
	for i, v := range values {
		seats[i] = domain.SeatID(v)
	}
	return seats
}

func fromSeatIDs(seats []domain.SeatID) pq.Int64Array {
	values := make(pq.Int64Array, len(seats))
	for i, s := range seats {
		values[i] = int64(s)
	}
	return values
}

// Ensure CatalogRepository implements repository.RouteCatalogStore.
var _ repository.RouteCatalogStore = (*CatalogRepository)(nil)
