package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/isoward/isoward/internal/domain/booking"
	"github.com/isoward/isoward/internal/service"
)

type ActivityHandler struct {
	activity *service.ActivityService
	bookings booking.Repository
}

func NewActivityHandler(activity *service.ActivityService, bookings booking.Repository) *ActivityHandler {
	return &ActivityHandler{activity: activity, bookings: bookings}
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	limit := parseQueryInt(c, "limit", 20)

	entries, err := h.activity.Recent(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, entries)
}

func (h *ActivityHandler) ListBookings(c *gin.Context) {
	var patientID *uuid.UUID
	if raw := c.Query("patientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid patientId: must be a valid UUID"})
			return
		}
		patientID = &id
	}

	bookings, err := h.bookings.List(c.Request.Context(), patientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, bookings)
}
