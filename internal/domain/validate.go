package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks field constraints and that every booked seat exists on the leg.
func (l RouteLeg) Validate() error {
	if err := validate.Struct(l); err != nil {
		return err
	}
	seen := make(map[SeatID]struct{}, len(l.BookedSeats))
	for _, seat := range l.BookedSeats {
		if int(seat) > l.TotalSeats {
			return fmt.Errorf("booked seat %d exceeds total seats %d", seat, l.TotalSeats)
		}
		if _, dup := seen[seat]; dup {
			return fmt.Errorf("booked seat %d listed twice", seat)
		}
		seen[seat] = struct{}{}
	}
	return nil
}

// Validate checks the passenger form. Callers trim whitespace first.
func (p PassengerDetails) Validate() error {
	return validate.Struct(p)
}
