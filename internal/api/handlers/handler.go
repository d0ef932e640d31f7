package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/service"
	"github.com/langchou/parklot/pkg/ws"
)

// Handler HTTP 处理器集合
type Handler struct {
	sessions     *service.SessionService
	allocator    *service.SpotAllocator
	reservations *service.ReservationManager
	facility     *service.FacilityService
	vehicles     service.VehicleStore
	fines        service.FineStore
	hub          *ws.Hub
	logger       *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(
	sessions *service.SessionService,
	allocator *service.SpotAllocator,
	reservations *service.ReservationManager,
	facility *service.FacilityService,
	vehicles service.VehicleStore,
	fines service.FineStore,
	hub *ws.Hub,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessions:     sessions,
		allocator:    allocator,
		reservations: reservations,
		facility:     facility,
		vehicles:     vehicles,
		fines:        fines,
		hub:          hub,
		logger:       logger,
	}
}

// RegisterRoutes 挂载全部路由
func (h *Handler) RegisterRoutes(router *gin.Engine, registry *prometheus.Registry) {
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/ws", gin.WrapF(h.hub.ServeWS))

	api := router.Group("/api")
	{
		api.POST("/entry", h.Entry)
		api.GET("/exit/:plate/bill", h.PreviewBill)
		api.POST("/exit", h.Exit)

		api.GET("/spots", h.ListSpots)
		api.GET("/spots/:id", h.GetSpot)
		api.PUT("/spots/:id/category", h.ChangeSpotCategory)

		api.POST("/reservations", h.ClaimReservation)
		api.GET("/reservations", h.ListReservations)
		api.POST("/reservations/:id/assign", h.AssignReservation)
		api.DELETE("/reservations/:id", h.CancelReservation)

		api.GET("/vehicles/:plate", h.GetVehicle)
		api.GET("/vehicles/:plate/fines", h.ListVehicleFines)

		api.GET("/config/fine-scheme", h.GetFineScheme)
		api.PUT("/config/fine-scheme", h.SetFineScheme)

		api.GET("/reports/occupancy", h.OccupancyReport)
		api.GET("/reports/revenue", h.RevenueReport)
	}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError 把错误分类映射成 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindConflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
