package postgres

import (
	"context"
	"database/sql"
)

// Schema creates the tables used by the catalog and booking repositories.
const Schema = `
CREATE TABLE IF NOT EXISTS route_legs (
	id               TEXT PRIMARY KEY,
	bus_id           TEXT NOT NULL,
	origin           TEXT NOT NULL,
	destination      TEXT NOT NULL,
	departure_minute INTEGER NOT NULL CHECK (departure_minute >= 0 AND departure_minute < 1440),
	price_per_seat   BIGINT NOT NULL CHECK (price_per_seat >= 0),
	total_seats      INTEGER NOT NULL CHECK (total_seats > 0),
	booked_seats     INTEGER[] NOT NULL DEFAULT '{}',
	stops            TEXT[] NOT NULL DEFAULT '{}',
	image_ref        TEXT,
	position         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id               TEXT PRIMARY KEY,
	leg_id           TEXT NOT NULL,
	leg              JSONB NOT NULL,
	seats            INTEGER[] NOT NULL,
	passenger_name   TEXT NOT NULL,
	rider_category   TEXT NOT NULL,
	rider_identifier TEXT NOT NULL,
	boarding_point   TEXT NOT NULL,
	phone            TEXT,
	email            TEXT,
	total_price      BIGINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS bookings_leg_id_idx ON bookings (leg_id);
`

// EnsureSchema applies Schema. Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
