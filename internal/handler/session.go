package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"

	"busbooking/internal/domain"
	"busbooking/internal/service"
)

// SessionHandler handles HTTP requests for booking sessions.
type SessionHandler struct {
	sessions *service.SessionManager
	workflow *service.BookingWorkflow
	catalog  *service.CatalogService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessions *service.SessionManager,
	workflow *service.BookingWorkflow,
	catalog *service.CatalogService,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		workflow: workflow,
		catalog:  catalog,
	}
}

// LegView is a leg with its rider-facing availability flags.
type LegView struct {
	domain.RouteLeg
	LowAvailability bool `json:"low_availability"`
	Full            bool `json:"full"`
}

func newLegView(leg domain.RouteLeg) LegView {
	return LegView{RouteLeg: leg, LowAvailability: leg.LowAvailability(), Full: leg.Full()}
}

// SessionResponse is the HTTP view of a booking session.
type SessionResponse struct {
	ID            string                `json:"id"`
	Step          domain.BookingStep    `json:"step"`
	ChosenLeg     *LegView              `json:"chosen_leg,omitempty"`
	SelectedSeats []domain.SeatID       `json:"selected_seats"`
	SelectedTotal int64                 `json:"selected_total"`
	Booking       *domain.BookingRecord `json:"booking,omitempty"`
	Degraded      bool                  `json:"degraded"`
	UpdatedAt     string                `json:"updated_at"`
}

func (h *SessionHandler) toResponse(sess domain.BookingSession) *SessionResponse {
	resp := &SessionResponse{
		ID:            sess.ID,
		Step:          sess.Step,
		SelectedSeats: []domain.SeatID(sess.Selection),
		Booking:       sess.Record,
		Degraded:      h.catalog.Degraded(),
		UpdatedAt:     sess.UpdatedAt.Format(time.RFC3339),
	}
	if resp.SelectedSeats == nil {
		resp.SelectedSeats = []domain.SeatID{}
	}
	if sess.ChosenLeg != nil {
		view := newLegView(*sess.ChosenLeg)
		resp.ChosenLeg = &view
		resp.SelectedTotal = sess.ChosenLeg.PricePerSeat * int64(len(sess.Selection))
	}
	return resp
}

// RoutesResponse is the HTTP response for a route search.
type RoutesResponse struct {
	Groups   []domain.RouteGroup `json:"groups"`
	Degraded bool                `json:"degraded"`
}

// SeatMapResponse is the HTTP response for a seat map.
type SeatMapResponse struct {
	LegID         string               `json:"leg_id"`
	Rows          []domain.SeatRowView `json:"rows"`
	SelectedSeats []domain.SeatID      `json:"selected_seats"`
	SelectedTotal int64                `json:"selected_total"`
}

// SelectLegRequest is the HTTP request body for choosing a leg.
type SelectLegRequest struct {
	LegID string `json:"leg_id" binding:"required"`
}

// run applies op to session :id and writes the resulting session, or the
// error together with the session as op left it.
func (h *SessionHandler) run(c *gin.Context, op func(*domain.BookingSession) error) {
	sess, err := h.sessions.With(c.Param("id"), op)
	if err != nil {
		if sess.ID == "" {
			respondError(c, err)
			return
		}
		respondSessionError(c, err, h.toResponse(sess))
		return
	}
	respondJSON(c, http.StatusOK, h.toResponse(sess))
}

// Create handles POST /v1/sessions. The new session starts at RouteSelection.
func (h *SessionHandler) Create(c *gin.Context) {
	created := h.sessions.Create()
	sess, err := h.sessions.With(created.ID, func(s *domain.BookingSession) error {
		return h.workflow.Start(c.Request.Context(), s)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, h.toResponse(sess))
}

// Get handles GET /v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.toResponse(sess))
}

// Delete handles DELETE /v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Start handles POST /v1/sessions/:id/start
func (h *SessionHandler) Start(c *gin.Context) {
	h.run(c, func(s *domain.BookingSession) error {
		return h.workflow.Start(c.Request.Context(), s)
	})
}

// Routes handles GET /v1/sessions/:id/routes?origin=&destination=
func (h *SessionHandler) Routes(c *gin.Context) {
	var groups []domain.RouteGroup
	_, err := h.sessions.With(c.Param("id"), func(s *domain.BookingSession) error {
		groups = h.workflow.SearchRoutes(c.Request.Context(), s, c.Query("origin"), c.Query("destination"))
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if groups == nil {
		groups = []domain.RouteGroup{}
	}
	respondJSON(c, http.StatusOK, RoutesResponse{Groups: groups, Degraded: h.catalog.Degraded()})
}

// SelectLeg handles POST /v1/sessions/:id/leg
func (h *SessionHandler) SelectLeg(c *gin.Context) {
	var req SelectLegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}
	h.run(c, func(s *domain.BookingSession) error {
		return h.workflow.SelectLeg(c.Request.Context(), s, req.LegID)
	})
}

// Seats handles GET /v1/sessions/:id/seats
func (h *SessionHandler) Seats(c *gin.Context) {
	var rows []domain.SeatRowView
	sess, err := h.sessions.With(c.Param("id"), func(s *domain.BookingSession) error {
		var err error
		rows, err = h.workflow.SeatMap(c.Request.Context(), s)
		return err
	})
	if err != nil {
		if sess.ID == "" {
			respondError(c, err)
			return
		}
		respondSessionError(c, err, h.toResponse(sess))
		return
	}

	resp := h.toResponse(sess)
	respondJSON(c, http.StatusOK, SeatMapResponse{
		LegID:         resp.ChosenLeg.ID,
		Rows:          rows,
		SelectedSeats: resp.SelectedSeats,
		SelectedTotal: resp.SelectedTotal,
	})
}

// ToggleSeat handles POST /v1/sessions/:id/seats/:seat/toggle
func (h *SessionHandler) ToggleSeat(c *gin.Context) {
	seat, err := strconv.Atoi(c.Param("seat"))
	if err != nil {
		respondError(c, &service.ValidationError{Field: "seat", Msg: "seat must be a number"})
		return
	}
	h.run(c, func(s *domain.BookingSession) error {
		return h.workflow.ToggleSeat(c.Request.Context(), s, domain.SeatID(seat))
	})
}

// Back handles POST /v1/sessions/:id/back
func (h *SessionHandler) Back(c *gin.Context) {
	h.run(c, func(s *domain.BookingSession) error {
		return h.workflow.Back(c.Request.Context(), s)
	})
}

// Confirm handles POST /v1/sessions/:id/confirm
func (h *SessionHandler) Confirm(c *gin.Context) {
	var req domain.PassengerDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}

	var record *domain.BookingRecord
	sess, err := h.sessions.With(c.Param("id"), func(s *domain.BookingSession) error {
		var err error
		record, err = h.workflow.Confirm(c.Request.Context(), s, req)
		return err
	})
	if err != nil {
		if sess.ID == "" {
			respondError(c, err)
			return
		}
		respondSessionError(c, err, h.toResponse(sess))
		return
	}

	if txn := nrgin.Transaction(c); txn != nil {
		txn.AddAttribute("booking_id", record.ID)
		txn.AddAttribute("leg_id", record.Leg.ID)
		txn.AddAttribute("seat_count", len(record.Seats))
	}

	respondJSON(c, http.StatusCreated, h.toResponse(sess))
}

// Reset handles POST /v1/sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	h.run(c, func(s *domain.BookingSession) error {
		return h.workflow.Reset(c.Request.Context(), s)
	})
}
