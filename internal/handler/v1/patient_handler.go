package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/service"
)

type PatientHandler struct {
	wards *service.WardService
	alloc *service.AllocationService
}

func NewPatientHandler(wards *service.WardService, alloc *service.AllocationService) *PatientHandler {
	return &PatientHandler{wards: wards, alloc: alloc}
}

func (h *PatientHandler) ListPatients(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:     c.Query("search"),
		BeddedOnly: c.Query("bedded") == "true",
	}

	patients, err := h.wards.ListPatients(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, patients)
}

func (h *PatientHandler) Discharge(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.alloc.Discharge(c.Request.Context(), patientID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"discharged": true})
}

type updateConditionRequest struct {
	Condition string `json:"condition" binding:"required"`
}

func (h *PatientHandler) UpdateCondition(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateConditionRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.alloc.UpdateCondition(c.Request.Context(), patientID, patient.Condition(req.Condition))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type transferRequest struct {
	TargetBedID string `json:"targetBedId" binding:"required"`
}

func (h *PatientHandler) Transfer(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req transferRequest
	if !bindJSON(c, &req) {
		return
	}

	targetBedID, err := uuid.Parse(req.TargetBedID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid targetBedId: must be a valid UUID"})
		return
	}

	p, err := h.alloc.Transfer(c.Request.Context(), patientID, targetBedID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}
