package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/models"
	"github.com/langchou/parklot/internal/repository"
	"github.com/langchou/parklot/internal/service"
	"github.com/langchou/parklot/pkg/ws"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repository.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	bus := events.NewBus(logger)

	allocator := service.NewSpotAllocator(store, bus, logger)
	reservations := service.NewReservationManager(store, store, logger)
	ledger := service.NewTicketLedger(store, store, logger)
	fineEngine := service.NewFineEngine(store, bus, logger)
	billing := service.NewBillingCalculator(store, store, ledger, fineEngine, store, reservations, logger)
	sessions := service.NewSessionService(store, store, allocator, reservations, ledger, billing, bus, logger)
	facility := service.NewFacilityService(store, store, store, store, store, logger)
	require.NoError(t, facility.Initialize(context.Background()))

	hub := ws.NewHub(logger)
	handler := NewHandler(sessions, allocator, reservations, facility, store, store, hub, logger)

	router := gin.New()
	handler.RegisterRoutes(router, prometheus.NewRegistry())
	return router, store
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	resp := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestEntryBillExitFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/entry",
		`{"plate":"abc1234","class":"STANDARD","spot_id":"F1-R1-S1"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var entry struct {
		Ticket struct {
			ID    string `json:"id"`
			Plate string `json:"plate"`
		} `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entry))
	assert.Equal(t, "ABC1234", entry.Ticket.Plate)

	resp = doRequest(router, http.MethodGet, "/api/exit/ABC1234/bill", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var bill struct {
		ParkingFee float64 `json:"parking_fee"`
		TotalDue   float64 `json:"total_due"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &bill))

	resp = doRequest(router, http.MethodPost, "/api/exit",
		`{"plate":"ABC1234","tendered":100,"method":"CASH"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// 出场后车位回到空闲
	resp = doRequest(router, http.MethodGet, "/api/spots/F1-R1-S1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var spot struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &spot))
	assert.Equal(t, "AVAILABLE", spot.Status)
}

func TestEntryInvalidPlateReturns400(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/entry",
		`{"plate":"NOPE","class":"STANDARD"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEntryOccupiedSpotReturns409(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/entry",
		`{"plate":"ABC1234","class":"STANDARD","spot_id":"F1-R1-S1"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doRequest(router, http.MethodPost, "/api/entry",
		`{"plate":"XYZ9876","class":"STANDARD","spot_id":"F1-R1-S1"}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestBillUnknownPlateReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/api/exit/ZZZ9999/bill", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestVehicleFinesEndpoints(t *testing.T) {
	router, store := newTestRouter(t)
	ctx := context.Background()

	resp := doRequest(router, http.MethodPost, "/api/entry",
		`{"plate":"ABC1234","class":"STANDARD","spot_id":"F1-R1-S1"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	require.NoError(t, store.InsertFine(ctx, &models.Fine{
		ID:        "fine-1",
		Plate:     "ABC1234",
		TicketID:  "T-old",
		Kind:      models.FineOverstay,
		Amount:    50,
		Scheme:    models.SchemeFixed,
		CreatedAt: time.Now().Add(-time.Hour),
	}))

	resp = doRequest(router, http.MethodGet, "/api/vehicles/ABC1234", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var vehicle struct {
		Vehicle struct {
			Plate string `json:"plate"`
		} `json:"vehicle"`
		UnpaidFineTotal float64 `json:"unpaid_fine_total"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &vehicle))
	assert.Equal(t, "ABC1234", vehicle.Vehicle.Plate)
	assert.Equal(t, 50.0, vehicle.UnpaidFineTotal)

	resp = doRequest(router, http.MethodGet, "/api/vehicles/ABC1234/fines", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var fines []struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fines))
	require.Len(t, fines, 1)
	assert.Equal(t, "fine-1", fines[0].ID)
	assert.Equal(t, 50.0, fines[0].Amount)

	resp = doRequest(router, http.MethodGet, "/api/vehicles/NOPE/fines", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReservationEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/reservations", `{"spot_id":"F1-R1-S10"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var reservation struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &reservation))

	resp = doRequest(router, http.MethodPost, "/api/reservations/"+reservation.ID+"/assign",
		`{"plate":"ABC1234"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, http.MethodGet, "/api/reservations", "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, http.MethodDelete, "/api/reservations/"+reservation.ID, "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestFineSchemeEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPut, "/api/config/fine-scheme", `{"fine_scheme":"HOURLY"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, http.MethodGet, "/api/config/fine-scheme", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "HOURLY")

	resp = doRequest(router, http.MethodPut, "/api/config/fine-scheme", `{"fine_scheme":"BOGUS"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReportsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/api/reports/occupancy", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total_spots":200`)

	resp = doRequest(router, http.MethodGet, "/api/reports/revenue", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}
