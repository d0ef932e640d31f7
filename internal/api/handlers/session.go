package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

type entryRequest struct {
	Plate  string              `json:"plate" binding:"required"`
	Class  models.VehicleClass `json:"class" binding:"required"`
	SpotID string              `json:"spot_id"`
}

// Entry 车辆入场
func (h *Handler) Entry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fault.Validation("invalid request body: %v", err))
		return
	}

	result, err := h.sessions.Enter(c.Request.Context(), req.Plate, req.Class, req.SpotID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// PreviewBill 出场前查询账单
func (h *Handler) PreviewBill(c *gin.Context) {
	bill, err := h.sessions.Bill(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

type exitRequest struct {
	Plate    string               `json:"plate" binding:"required"`
	Tendered float64              `json:"tendered"`
	Method   models.PaymentMethod `json:"method" binding:"required"`
}

// Exit 车辆出场结算
func (h *Handler) Exit(c *gin.Context) {
	var req exitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fault.Validation("invalid request body: %v", err))
		return
	}

	receipt, err := h.sessions.Exit(c.Request.Context(), req.Plate, req.Tendered, req.Method)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// GetVehicle 查询车辆信息，附带未缴罚款合计
func (h *Handler) GetVehicle(c *gin.Context) {
	plate, err := models.ValidatePlate(c.Param("plate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	vehicle, err := h.vehicles.GetVehicle(c.Request.Context(), plate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	unpaid, err := h.fines.SumUnpaidFines(c.Request.Context(), plate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vehicle":           vehicle,
		"unpaid_fine_total": unpaid,
	})
}

// ListVehicleFines 查询车辆未缴罚款，按创建时间从旧到新
func (h *Handler) ListVehicleFines(c *gin.Context) {
	plate, err := models.ValidatePlate(c.Param("plate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	fines, err := h.fines.UnpaidFinesForPlate(c.Request.Context(), plate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if fines == nil {
		fines = []*models.Fine{}
	}
	c.JSON(http.StatusOK, fines)
}
