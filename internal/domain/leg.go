package domain

// LowAvailabilityPercent is the availability threshold below which a leg is shown as "Limited".
const LowAvailabilityPercent = 30

// RouteLeg is one scheduled boarding opportunity on a bus run.
type RouteLeg struct {
	ID                string    `json:"id" yaml:"id,omitempty"`
	BusID             string    `json:"bus_id" yaml:"bus_id" validate:"required"`
	Origin            string    `json:"origin" yaml:"origin" validate:"required"`
	Destination       string    `json:"destination" yaml:"destination" validate:"required"`
	DepartureTime     TimeOfDay `json:"departure_time" yaml:"departure_time" validate:"gte=0,lt=1440"`
	PricePerSeat      int64     `json:"price_per_seat" yaml:"price_per_seat" validate:"gte=0"`
	TotalSeats        int       `json:"total_seats" yaml:"total_seats" validate:"gt=0"`
	AvailableSeats    int       `json:"available_seats" yaml:"-"`
	BookedSeats       []SeatID  `json:"-" yaml:"booked_seats,omitempty" validate:"dive,gt=0"`
	IntermediateStops []string  `json:"intermediate_stops,omitempty" yaml:"stops,omitempty"`
	ImageRef          string    `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
}

// Full reports whether no seat is left on the leg.
func (l RouteLeg) Full() bool {
	return l.AvailableSeats <= 0
}

// LowAvailability reports whether fewer than LowAvailabilityPercent of the seats remain.
func (l RouteLeg) LowAvailability() bool {
	if l.TotalSeats <= 0 {
		return false
	}
	return l.AvailableSeats*100 < l.TotalSeats*LowAvailabilityPercent
}

// DeriveAvailability recomputes AvailableSeats from the booked seat ids.
func (l *RouteLeg) DeriveAvailability() {
	l.AvailableSeats = l.TotalSeats - len(l.BookedSeats)
	if l.AvailableSeats < 0 {
		l.AvailableSeats = 0
	}
}

// Clone returns a copy that shares no slices with l.
func (l RouteLeg) Clone() RouteLeg {
	out := l
	if l.BookedSeats != nil {
		out.BookedSeats = append([]SeatID(nil), l.BookedSeats...)
	}
	if l.IntermediateStops != nil {
		out.IntermediateStops = append([]string(nil), l.IntermediateStops...)
	}
	return out
}
