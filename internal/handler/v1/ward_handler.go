package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/isoward/isoward/internal/domain/bed"
	"github.com/isoward/isoward/internal/domain/patient"
	"github.com/isoward/isoward/internal/domain/ward"
	"github.com/isoward/isoward/internal/service"
)

type WardHandler struct {
	wards *service.WardService
	alloc *service.AllocationService
}

func NewWardHandler(wards *service.WardService, alloc *service.AllocationService) *WardHandler {
	return &WardHandler{wards: wards, alloc: alloc}
}

type createWardRequest struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type"`
	RowCount int    `json:"rowCount" binding:"required"`
	ColCount int    `json:"colCount" binding:"required"`
}

func (h *WardHandler) CreateWard(c *gin.Context) {
	var req createWardRequest
	if !bindJSON(c, &req) {
		return
	}

	w, err := h.wards.CreateWard(c.Request.Context(), &ward.CreateWardCommand{
		Name:     req.Name,
		Type:     req.Type,
		RowCount: req.RowCount,
		ColCount: req.ColCount,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, w)
}

func (h *WardHandler) ListWards(c *gin.Context) {
	wards, err := h.wards.ListWards(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(wards))
	for _, w := range wards {
		out = append(out, gin.H{"ward": w.Ward, "beds": w.Beds})
	}
	respondOK(c, out)
}

func (h *WardHandler) ListWardBeds(c *gin.Context) {
	wardID, ok := parseUUID(c, "id")
	if !ok {
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

	var candidate *patient.Condition
	if raw := c.Query("candidate"); raw != "" {
		cond := patient.Condition(raw)
		if !cond.IsValid() {
			respondServiceError(c, patient.ErrInvalidCondition)
			return
		}
		candidate = &cond
	}

	views, err := h.wards.ListBeds(c.Request.Context(), wardID, statusFilter, candidate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(views))
	for _, v := range views {
		status := v.Bed.Status
		if v.Blocked {
			status = bed.StatusBlocked
		}
		out = append(out, gin.H{
			"bed":      v.Bed,
			"status":   status,
			"occupant": v.Occupant,
		})
	}
	respondOK(c, out)
}

type autoAdmitRequest struct {
	Name      string `json:"name" binding:"required"`
	Age       int    `json:"age"`
	Condition string `json:"condition" binding:"required"`
}

func (h *WardHandler) AutoAdmit(c *gin.Context) {
	wardID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req autoAdmitRequest
	if !bindJSON(c, &req) {
		return
	}

	p, b, err := h.alloc.AutoAdmit(c.Request.Context(), wardID, &patient.AdmitPatientCommand{
		Name:      req.Name,
		Age:       req.Age,
		Condition: patient.Condition(req.Condition),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, gin.H{"patient": p, "bed": b})
}

func (h *WardHandler) RecommendBed(c *gin.Context) {
	wardID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.alloc.RecommendOptimalBed(c.Request.Context(), wardID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, b)
}

func (h *WardHandler) GetStats(c *gin.Context) {
	stats, err := h.wards.GetStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, stats)
}
