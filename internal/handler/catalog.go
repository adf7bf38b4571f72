package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"busbooking/internal/domain"
	"busbooking/internal/service"
)

// CatalogHandler handles the admin HTTP requests that manage route legs.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// LegRequest is the HTTP request body for creating or updating a leg.
type LegRequest struct {
	ID            string   `json:"id,omitempty"`
	BusID         string   `json:"bus_id"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departure_time"` // "07:00 AM" or "19:00"
	PricePerSeat  int64    `json:"price_per_seat"`
	TotalSeats    int      `json:"total_seats"`
	Stops         []string `json:"intermediate_stops,omitempty"`
	ImageRef      string   `json:"image_ref,omitempty"`
}

func (r LegRequest) toLeg() (domain.RouteLeg, error) {
	departure, err := domain.ParseTimeOfDay(r.DepartureTime)
	if err != nil {
		return domain.RouteLeg{}, &service.ValidationError{Field: "departure_time", Msg: err.Error()}
	}
	return domain.RouteLeg{
		ID:                r.ID,
		BusID:             r.BusID,
		Origin:            r.Origin,
		Destination:       r.Destination,
		DepartureTime:     departure,
		PricePerSeat:      r.PricePerSeat,
		TotalSeats:        r.TotalSeats,
		IntermediateStops: r.Stops,
		ImageRef:          r.ImageRef,
	}, nil
}

// LegsResponse is the HTTP response for listing legs.
type LegsResponse struct {
	Legs   []LegView             `json:"legs"`
	Status service.CatalogStatus `json:"status"`
}

// List handles GET /v1/admin/legs
func (h *CatalogHandler) List(c *gin.Context) {
	legs := h.catalog.Legs()
	views := make([]LegView, 0, len(legs))
	for _, leg := range legs {
		views = append(views, newLegView(leg))
	}
	respondJSON(c, http.StatusOK, LegsResponse{Legs: views, Status: h.catalog.Status()})
}

// Create handles POST /v1/admin/legs
func (h *CatalogHandler) Create(c *gin.Context) {
	var req LegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}
	leg, err := req.toLeg()
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.catalog.AddLeg(c.Request.Context(), leg)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, newLegView(created))
}

// Update handles PUT /v1/admin/legs/:id
func (h *CatalogHandler) Update(c *gin.Context) {
	var req LegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}
	leg, err := req.toLeg()
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.catalog.UpdateLeg(c.Request.Context(), c.Param("id"), leg)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newLegView(updated))
}

// Delete handles DELETE /v1/admin/legs/:id
func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteLeg(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh handles POST /v1/admin/legs/refresh. A failed reload still
// answers with the status so operators see the degraded flag.
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if err := h.catalog.Refresh(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrStorageUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":  err.Error(),
				"status": h.catalog.Status(),
			})
			return
		}
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.catalog.Status())
}

// Health handles GET /health
func (h *CatalogHandler) Health(c *gin.Context) {
	status := h.catalog.Status()
	state := "ok"
	if status.Degraded {
		state = "degraded"
	}
	respondJSON(c, http.StatusOK, gin.H{"status": state, "catalog": status})
}
