package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"busbooking/internal/domain"
)

const boardingNote = "Please arrive at the boarding point at least 10 minutes before departure. " +
	"Show this booking ID to the driver."

// RenderTicket renders a printable PDF e-ticket and returns it with a file name.
func RenderTicket(record *domain.BookingRecord) ([]byte, string, error) {
	if record == nil {
		return nil, "", &ValidationError{Field: "booking", Msg: "missing booking"}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+record.ID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range ticketLines(record) {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s", formatAmount(record.TotalPrice)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, boardingNote, "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render ticket: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("ticket-%s.pdf", record.ID), nil
}

// FormatTicket formats the booking as plain text (for email/print).
func FormatTicket(record *domain.BookingRecord) string {
	var b strings.Builder
	b.WriteString("=====================================\n")
	b.WriteString("           BUS E-TICKET\n")
	b.WriteString("=====================================\n")
	for _, line := range ticketLines(record) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("-------------------------------------\n")
	b.WriteString("TOTAL:            " + formatAmount(record.TotalPrice) + "\n")
	b.WriteString("=====================================\n")
	b.WriteString(boardingNote + "\n")
	return b.String()
}

func ticketLines(record *domain.BookingRecord) []string {
	return []string{
		"Booking ID:     " + record.ID,
		"Date:          " + record.CreatedAt.Format("Jan 02, 2006 3:04 PM"),
		"Passenger:     " + record.PassengerName,
		fmt.Sprintf("%-15s%s", record.RiderCategory.IdentifierLabel()+":", record.RiderIdentifier),
		"Bus:           " + record.Leg.BusID,
		"Route:         " + record.Leg.Origin + " -> " + record.Leg.Destination,
		"Boarding at:   " + record.BoardingPoint,
		"Departure:     " + record.Leg.DepartureTime.String(),
		"Seats:         " + formatSeats(record.Seats),
		fmt.Sprintf("Fare per seat: %s", formatAmount(record.Leg.PricePerSeat)),
	}
}

func formatSeats(seats []domain.SeatID) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = fmt.Sprint(int(s))
	}
	return strings.Join(parts, ", ")
}

func formatAmount(amount int64) string {
	return fmt.Sprintf("Rs. %d", amount)
}
