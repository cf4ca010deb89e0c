package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/booking"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
	"github.com/isoward/isoward/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, ward.ErrWardNotFound),
		errors.Is(err, bed.ErrBedNotFound),
		errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrBedLockTimeout),
		errors.Is(err, bed.ErrVersionConflict),
		errors.Is(err, booking.ErrActiveBookingExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "CONFLICT"})

	case errors.Is(err, service.ErrAdjacencyRisk):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "ADJACENCY_RISK"})

	case errors.Is(err, service.ErrNoAvailableBeds),
		errors.Is(err, service.ErrNoSafeBed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "NO_BED"})

	case errors.Is(err, bed.ErrBedUnavailable),
		errors.Is(err, bed.ErrBedOccupied),
		errors.Is(err, bed.ErrBedNotOccupied),
		errors.Is(err, bed.ErrInvalidStatusTransition),
		errors.Is(err, bed.ErrInvalidStatus),
		errors.Is(err, patient.ErrPatientNotBedded),
		errors.Is(err, patient.ErrInvalidCondition),
		errors.Is(err, booking.ErrBookingNotActive):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "PRECONDITION_FAILED"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}
