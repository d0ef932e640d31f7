package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/parklot/internal/fault"
)

type claimRequest struct {
	SpotID string `json:"spot_id" binding:"required"`
}

// ClaimReservation 为预约车位创建预约
func (h *Handler) ClaimReservation(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fault.Validation("invalid request body: %v", err))
		return
	}

	reservation, err := h.reservations.Claim(c.Request.Context(), req.SpotID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// ListReservations 列出有效预约
func (h *Handler) ListReservations(c *gin.Context) {
	reservations, err := h.reservations.ListActive(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

type assignRequest struct {
	Plate string `json:"plate" binding:"required"`
}

// AssignReservation 把预约绑定到车牌
func (h *Handler) AssignReservation(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fault.Validation("invalid request body: %v", err))
		return
	}

	reservation, err := h.reservations.Assign(c.Request.Context(), c.Param("id"), req.Plate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// CancelReservation 取消预约
func (h *Handler) CancelReservation(c *gin.Context) {
	if err := h.reservations.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
