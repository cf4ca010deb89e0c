package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/service"
)

type BedHandler struct {
	alloc *service.AllocationService
	wards *service.WardService
}

func NewBedHandler(alloc *service.AllocationService, wards *service.WardService) *BedHandler {
	return &BedHandler{alloc: alloc, wards: wards}
}

func (h *BedHandler) ListBeds(c *gin.Context) {
	wardID, err := uuid.Parse(c.Query("wardId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "wardId query parameter is required and must be a valid UUID"})
		return
	}

	var statusFilter *bed.Status
	if raw := c.Query("status"); raw != "" {
		s := bed.Status(raw)
		if !s.IsPersisted() {
			respondServiceError(c, bed.ErrInvalidStatus)
			return
		}
		statusFilter = &s
	}

	views, err := h.wards.ListBeds(c.Request.Context(), wardID, statusFilter, nil)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(views))
	for _, v := range views {
		out = append(out, gin.H{"bed": v.Bed, "status": v.Bed.Status, "occupant": v.Occupant})
	}
	respondOK(c, out)
}

type admitRequest struct {
	Name      string `json:"name" binding:"required"`
	Age       int    `json:"age"`
	Condition string `json:"condition" binding:"required"`
}

func (h *BedHandler) Admit(c *gin.Context) {
	bedID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req admitRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.alloc.Admit(c.Request.Context(), bedID, &patient.AdmitPatientCommand{
		Name:      req.Name,
		Age:       req.Age,
		Condition: patient.Condition(req.Condition),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

type maintenanceRequest struct {
	Enter *bool `json:"enter" binding:"required"`
}

func (h *BedHandler) SetMaintenance(c *gin.Context) {
	bedID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req maintenanceRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.alloc.SetMaintenance(c.Request.Context(), bedID, *req.Enter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, b)
}
