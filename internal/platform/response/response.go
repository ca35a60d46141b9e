package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayfinder/service-booking/internal/domain"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// PageMeta carries pagination metadata alongside a page of items.
type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with a page of items and paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       items,
		"pagination": PageMeta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: message})
}

// Error maps a domain error to its HTTP status and error code. Unrecognized
// errors become an opaque 500; details stay in the server logs.
func Error(c *gin.Context, err error) {
	var (
		validationErr   *domain.ValidationError
		invalidRangeErr *domain.InvalidRangeError
		capacityErr     *domain.CapacityExceededError
		dateConflictErr *domain.DateConflictError
		invalidStateErr *domain.InvalidStateError
		forbiddenErr    *domain.ForbiddenError
		unauthorizedErr *domain.UnauthorizedError
		notFoundErr     *domain.NotFoundError
		conflictErr     *domain.ConflictError
	)

	switch {
	case errors.As(err, &invalidRangeErr):
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: err.Error(), Code: "INVALID_RANGE"})
	case errors.As(err, &capacityErr):
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: err.Error(), Code: "CAPACITY_EXCEEDED"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: err.Error(), Code: "VALIDATION_ERROR"})
	case errors.As(err, &unauthorizedErr):
		c.JSON(http.StatusUnauthorized, Envelope{Success: false, Error: err.Error(), Code: "UNAUTHORIZED"})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, Envelope{Success: false, Error: err.Error(), Code: "FORBIDDEN"})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, Envelope{Success: false, Error: err.Error(), Code: "NOT_FOUND"})
	case errors.As(err, &dateConflictErr):
		c.JSON(http.StatusConflict, Envelope{Success: false, Error: "these dates are no longer available", Code: "DATE_CONFLICT"})
	case errors.As(err, &invalidStateErr):
		c.JSON(http.StatusConflict, Envelope{Success: false, Error: err.Error(), Code: "INVALID_TRANSITION"})
	case errors.As(err, &conflictErr):
		// Retryable: the caller lost a race against a concurrent writer.
		c.JSON(http.StatusConflict, Envelope{Success: false, Error: err.Error(), Code: "CONCURRENT_UPDATE"})
	default:
		c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
	}
}
