package domain

// SeatsPerRow is the 2+2 coach layout: two seats either side of the aisle.
const SeatsPerRow = 4

// SeatID is a seat number, 1..TotalSeats, numbered row-major left to right.
type SeatID int

// SeatState is the rider-visible state of one seat.
type SeatState string

const (
	SeatStateFree     SeatState = "FREE"
	SeatStateBooked   SeatState = "BOOKED"
	SeatStateSelected SeatState = "SELECTED"
)

// SeatRow is one row of the layout.
type SeatRow struct {
	Number int      `json:"number"`
	Left   []SeatID `json:"left"`
	Right  []SeatID `json:"right"`
}

// Layout arranges totalSeats into rows of up to four seats, the last row
// possibly partial. Seat numbers are the identifiers reservations use.
func Layout(totalSeats int) []SeatRow {
	if totalSeats <= 0 {
		return nil
	}
	rows := make([]SeatRow, 0, (totalSeats+SeatsPerRow-1)/SeatsPerRow)
	for start := 1; start <= totalSeats; start += SeatsPerRow {
		row := SeatRow{Number: len(rows) + 1}
		for i := 0; i < SeatsPerRow; i++ {
			seat := start + i
			if seat > totalSeats {
				break
			}
			if i < SeatsPerRow/2 {
				row.Left = append(row.Left, SeatID(seat))
			} else {
				row.Right = append(row.Right, SeatID(seat))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// SeatView pairs a seat with its state.
type SeatView struct {
	ID    SeatID    `json:"id"`
	State SeatState `json:"state"`
}

// SeatRowView is a layout row annotated with seat states.
type SeatRowView struct {
	Number int        `json:"number"`
	Left   []SeatView `json:"left"`
	Right  []SeatView `json:"right"`
}

// SeatSelection is an ordered set of seats. Order is selection order.
type SeatSelection []SeatID

// Contains reports whether id is selected.
func (s SeatSelection) Contains(id SeatID) bool {
	for _, seat := range s {
		if seat == id {
			return true
		}
	}
	return false
}

// Toggle returns a new selection with id added at the end, or removed if present.
func (s SeatSelection) Toggle(id SeatID) SeatSelection {
	if s.Contains(id) {
		return s.Without(id)
	}
	out := make(SeatSelection, 0, len(s)+1)
	out = append(out, s...)
	return append(out, id)
}

// Without returns a new selection with the given seats removed, order kept.
func (s SeatSelection) Without(ids ...SeatID) SeatSelection {
	drop := make(map[SeatID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make(SeatSelection, 0, len(s))
	for _, seat := range s {
		if _, ok := drop[seat]; !ok {
			out = append(out, seat)
		}
	}
	return out
}
