package domain

import "time"

// RiderCategory identifies which kind of identifier a rider presents.
type RiderCategory string

const (
	RiderCategoryStudent RiderCategory = "student"
	RiderCategoryStaff   RiderCategory = "staff"
)

// IdentifierLabel returns the label printed next to the rider identifier.
func (c RiderCategory) IdentifierLabel() string {
	if c == RiderCategoryStaff {
		return "Employee ID"
	}
	return "Registration Number"
}

// PassengerDetails is what the rider enters at confirmation.
type PassengerDetails struct {
	Name          string        `json:"name" validate:"required"`
	Category      RiderCategory `json:"category" validate:"omitempty,oneof=student staff"`
	Identifier    string        `json:"identifier" validate:"required"`
	BoardingPoint string        `json:"boarding_point,omitempty"`
	Phone         string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email         string        `json:"email,omitempty" validate:"omitempty,email"`
}

// BookingRecord is the immutable result of a confirmed booking.
type BookingRecord struct {
	ID              string        `json:"id"`
	Leg             RouteLeg      `json:"leg"`
	Seats           []SeatID      `json:"seats"` // selection order
	PassengerName   string        `json:"passenger_name"`
	RiderCategory   RiderCategory `json:"rider_category"`
	RiderIdentifier string        `json:"rider_identifier"`
	BoardingPoint   string        `json:"boarding_point"`
	Phone           string        `json:"phone,omitempty"`
	Email           string        `json:"email,omitempty"`
	TotalPrice      int64         `json:"total_price"`
	CreatedAt       time.Time     `json:"created_at"`
}
