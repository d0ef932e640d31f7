package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/api/handlers"
	"github.com/langchou/parklot/internal/config"
	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/repository"
	"github.com/langchou/parklot/internal/service"
	"github.com/langchou/parklot/internal/telemetry"
	"github.com/langchou/parklot/pkg/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}

	var logger *zap.Logger
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	vehicleRepo := repository.NewVehicleRepository(db)
	spotRepo := repository.NewSpotRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	fineRepo := repository.NewFineRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	configRepo := repository.NewConfigRepository(db)

	bus := events.NewBus(logger)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry)
	metrics.Observe(bus)

	hub := ws.NewHub(logger)
	hub.Observe(bus)
	go hub.Run()

	allocator := service.NewSpotAllocator(spotRepo, bus, logger)
	reservations := service.NewReservationManager(reservationRepo, spotRepo, logger)
	ledger := service.NewTicketLedger(ticketRepo, configRepo, logger)
	fineEngine := service.NewFineEngine(fineRepo, bus, logger)
	billing := service.NewBillingCalculator(vehicleRepo, spotRepo, ledger, fineEngine, fineRepo, reservations, logger)
	sessions := service.NewSessionService(vehicleRepo, paymentRepo, allocator, reservations, ledger, billing, bus, logger)
	facility := service.NewFacilityService(spotRepo, ticketRepo, paymentRepo, fineRepo, configRepo, logger)

	if err := facility.Initialize(ctx); err != nil {
		logger.Fatal("initialize facility", zap.Error(err))
	}
	if err := facility.SetDefaultFineScheme(ctx, cfg.DefaultFineScheme); err != nil {
		logger.Fatal("apply default fine scheme", zap.Error(err))
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	handler := handlers.NewHandler(sessions, allocator, reservations, facility, vehicleRepo, fineRepo, hub, logger)
	handler.RegisterRoutes(router, registry)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
