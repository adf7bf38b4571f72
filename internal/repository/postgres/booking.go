package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"busbooking/internal/domain"
	"busbooking/internal/repository"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// Create persists a new booking record.
func (r *BookingRepository) Create(ctx context.Context, record *domain.BookingRecord) error {
	query := `
		INSERT INTO bookings (id, leg_id, leg, seats, passenger_name, rider_category, rider_identifier, boarding_point, phone, email, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	leg, err := json.Marshal(record.Leg)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		record.ID,
		record.Leg.ID,
		leg,
		fromSeatIDs(record.Seats),
		record.PassengerName,
		string(record.RiderCategory),
		record.RiderIdentifier,
		record.BoardingPoint,
		nullString(record.Phone),
		nullString(record.Email),
		record.TotalPrice,
		record.CreatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.BookingRecord, error) {
	query := `
		SELECT id, leg, seats, passenger_name, rider_category, rider_identifier, boarding_point, phone, email, total_price, created_at
		FROM bookings WHERE id = $1
	`

	var record domain.BookingRecord
	var leg []byte
	var seats pq.Int64Array
	var category string
	var phone, email sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&leg,
		&seats,
		&record.PassengerName,
		&category,
		&record.RiderIdentifier,
		&record.BoardingPoint,
		&phone,
		&email,
		&record.TotalPrice,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(leg, &record.Leg); err != nil {
		return nil, err
	}
	record.Seats = toSeatIDs(seats)
	record.RiderCategory = domain.RiderCategory(category)
	record.Phone = phone.String
	record.Email = email.String

	return &record, nil
}

// ListReservedSeats returns the seats held by stored bookings, keyed by leg ID.
func (r *BookingRepository) ListReservedSeats(ctx context.Context) (map[string][]domain.SeatID, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT leg_id, seats FROM bookings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reserved := make(map[string][]domain.SeatID)
	for rows.Next() {
		var legID string
		var seats pq.Int64Array
		if err := rows.Scan(&legID, &seats); err != nil {
			return nil, err
		}
		reserved[legID] = append(reserved[legID], toSeatIDs(seats)...)
	}
	return reserved, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
