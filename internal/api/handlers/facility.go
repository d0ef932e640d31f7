package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// GetFineScheme 查询当前罚款方案
func (h *Handler) GetFineScheme(c *gin.Context) {
	scheme, err := h.facility.FineScheme(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fine_scheme": scheme})
}

type setSchemeRequest struct {
	Scheme models.FineScheme `json:"fine_scheme" binding:"required"`
}

// SetFineScheme 切换罚款方案，只影响之后开出的票据
func (h *Handler) SetFineScheme(c *gin.Context) {
	var req setSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fault.Validation("invalid request body: %v", err))
		return
	}

	if err := h.facility.SetFineScheme(c.Request.Context(), req.Scheme); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fine_scheme": req.Scheme})
}

// OccupancyReport 占用报表
func (h *Handler) OccupancyReport(c *gin.Context) {
	report, err := h.facility.Occupancy(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RevenueReport 营收报表
func (h *Handler) RevenueReport(c *gin.Context) {
	report, err := h.facility.Revenue(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
