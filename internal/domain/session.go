package domain

import "time"

// BookingStep is the position of a session in the booking workflow.
type BookingStep string

const (
	StepHome           BookingStep = "HOME"
	StepRouteSelection BookingStep = "ROUTE_SELECTION"
	StepSeatSelection  BookingStep = "SEAT_SELECTION"
	StepConfirmation   BookingStep = "CONFIRMATION"
)

// BookingSession is the in-progress booking of one rider. It is owned by a
// single rider and never shared across sessions.
type BookingSession struct {
	ID        string
	Step      BookingStep
	ChosenLeg *RouteLeg
	Selection SeatSelection
	Record    *BookingRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBookingSession returns a session at Home.
func NewBookingSession(id string, now time.Time) *BookingSession {
	return &BookingSession{
		ID:        id,
		Step:      StepHome,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset returns the session to its initial state.
func (s *BookingSession) Reset() {
	s.Step = StepHome
	s.ChosenLeg = nil
	s.Selection = nil
	s.Record = nil
}

// Snapshot returns a deep copy safe to hand to callers outside the session lock.
func (s *BookingSession) Snapshot() BookingSession {
	out := *s
	if s.ChosenLeg != nil {
		leg := s.ChosenLeg.Clone()
		out.ChosenLeg = &leg
	}
	if s.Selection != nil {
		out.Selection = append(SeatSelection(nil), s.Selection...)
	}
	if s.Record != nil {
		rec := *s.Record
		rec.Leg = s.Record.Leg.Clone()
		rec.Seats = append([]SeatID(nil), s.Record.Seats...)
		out.Record = &rec
	}
	return out
}
