package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/repository"
)

// testEnv 用内存存储把整套服务拼起来，时钟可控
type testEnv struct {
	store        *repository.MemoryStore
	bus          *events.Bus
	allocator    *SpotAllocator
	reservations *ReservationManager
	ledger       *TicketLedger
	fineEngine   *FineEngine
	billing      *BillingCalculator
	sessions     *SessionService
	facility     *FacilityService
	clock        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	bus := events.NewBus(logger)

	env := &testEnv{
		store: store,
		bus:   bus,
		clock: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	env.allocator = NewSpotAllocator(store, bus, logger)
	env.reservations = NewReservationManager(store, store, logger)
	env.ledger = NewTicketLedger(store, store, logger)
	env.fineEngine = NewFineEngine(store, bus, logger)
	env.billing = NewBillingCalculator(store, store, env.ledger, env.fineEngine, store, env.reservations, logger)
	env.sessions = NewSessionService(store, store, env.allocator, env.reservations, env.ledger, env.billing, bus, logger)
	env.facility = NewFacilityService(store, store, store, store, store, logger)
	env.sessions.now = func() time.Time { return env.clock }
	env.reservations.now = func() time.Time { return env.clock }

	require.NoError(t, env.facility.Initialize(context.Background()))
	return env
}

// advance 把测试时钟向前拨
func (env *testEnv) advance(d time.Duration) {
	env.clock = env.clock.Add(d)
}
