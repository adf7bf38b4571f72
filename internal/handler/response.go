package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"busbooking/internal/domain"
	"busbooking/internal/repository"
	"busbooking/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Field   string           `json:"field,omitempty"`
	Seats   []domain.SeatID  `json:"seats,omitempty"`
	Session *SessionResponse `json:"session,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	c.JSON(mapErrorToHTTPStatus(err), errorBody(err))
}

// respondSessionError sends an error response that also carries the session
// as the failed operation left it.
func respondSessionError(c *gin.Context, err error, sess *SessionResponse) {
	body := errorBody(err)
	body.Session = sess
	c.JSON(mapErrorToHTTPStatus(err), body)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

func errorBody(err error) ErrorResponse {
	body := ErrorResponse{Error: err.Error()}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		body.Field = validationErr.Field
	}
	var conflict *service.SeatConflictError
	if errors.As(err, &conflict) {
		body.Seats = conflict.Seats
	}
	return body
}

func invalidBody(err error) error {
	return &service.ValidationError{Field: "body", Msg: "invalid request body: " + err.Error()}
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrRouteNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidSeat):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrSeatUnavailable),
		errors.Is(err, service.ErrSeatConflict),
		errors.Is(err, service.ErrLegFull),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCatalogBusy),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Service unavailable (retryable)
	case errors.Is(err, service.ErrReservationTimeout),
		errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
