package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/isoward/isoward/internal/service"
)

type SimulationHandler struct {
	sim *service.SimulationService
}

func NewSimulationHandler(sim *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{sim: sim}
}

type simulationStepRequest struct {
	WardID string `json:"wardId" binding:"required,uuid"`
}

func (h *SimulationHandler) RunStep(c *gin.Context) {
	var req simulationStepRequest
	if !bindJSON(c, &req) {
		return
	}

	wardID, err := uuid.Parse(req.WardID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid wardId: must be a valid UUID"})
		return
	}

	result, err := h.sim.RunStep(c.Request.Context(), wardID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "Simulation step complete", "result": result})
}
