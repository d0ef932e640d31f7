package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// ListSpots 列出车位，可用 ?class= 过滤出某车型可停的空位
func (h *Handler) ListSpots(c *gin.Context) {
	if class := c.Query("class"); class != "" {
		vehicleClass := models.VehicleClass(class)
		if !vehicleClass.Valid() {
			h.respondError(c, fault.Validation("unknown vehicle class: %s", class))
			return
		}
		spots, err := h.allocator.FindCandidates(c.Request.Context(), vehicleClass)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, spots)
		return
	}

	spots, err := h.facility.ListSpots(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spots)
}

// GetSpot 查询单个车位
func (h *Handler) GetSpot(c *gin.Context) {
	spot, err := h.facility.GetSpot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

type changeCategoryRequest struct {
	Category models.SpotCategory `json:"category" binding:"required"`
}

// ChangeSpotCategory 修改空闲车位的类型
func (h *Handler) ChangeSpotCategory(c *gin.Context) {
	var req changeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fault.Validation("invalid request body: %v", err))
		return
	}

	spot, err := h.allocator.ChangeCategory(c.Request.Context(), c.Param("id"), req.Category)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}
