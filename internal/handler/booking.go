package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"busbooking/internal/service"
)

// BookingHandler handles HTTP requests for confirmed bookings.
type BookingHandler struct {
	workflow *service.BookingWorkflow
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(workflow *service.BookingWorkflow) *BookingHandler {
	return &BookingHandler{workflow: workflow}
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	record, err := h.workflow.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, record)
}

// Ticket handles GET /v1/bookings/:id/ticket and returns the PDF e-ticket.
// ?format=text returns the plain-text ticket instead.
func (h *BookingHandler) Ticket(c *gin.Context) {
	record, err := h.workflow.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, service.FormatTicket(record))
		return
	}

	pdf, filename, err := service.RenderTicket(record)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
