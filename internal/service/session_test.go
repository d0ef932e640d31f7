package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

func TestEnterAllocatesSpotAndOpensTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.sessions.Enter(ctx, "abc1234", models.ClassStandard, "")
	require.NoError(t, err)

	assert.Equal(t, "ABC1234", result.Vehicle.Plate)
	assert.Equal(t, models.StatusOccupied, result.Spot.Status)
	assert.True(t, result.Ticket.Open())
	assert.Equal(t, result.Spot.ID, result.Ticket.SpotID)

	// 车位占用状态与占用车牌必须一致
	spot, err := env.store.GetSpot(ctx, result.Spot.ID)
	require.NoError(t, err)
	require.NotNil(t, spot.OccupantPlate)
	assert.Equal(t, "ABC1234", *spot.OccupantPlate)
}

func TestEnterAutoPickSkipsReservedSpots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "")
	require.NoError(t, err)
	assert.NotEqual(t, models.SpotReserved, result.Spot.Category)
}

func TestEnterTwiceIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "")
	require.NoError(t, err)

	_, err = env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindConflict))
}

func TestEnterInvalidPlateIsValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Enter(context.Background(), "BAD", models.ClassStandard, "")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestEnterClassMismatchIsValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "")
	require.NoError(t, err)
	env.advance(time.Hour)
	_, err = env.sessions.Exit(ctx, "ABC1234", 100, models.MethodCash)
	require.NoError(t, err)

	// 同一车牌换车型再入场
	_, err = env.sessions.Enter(ctx, "ABC1234", models.ClassLarge, "")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestEnterRollsBackSpotWhenTicketOpenFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 直接在存储里留一张未关闭票据，让开票步骤失败
	require.NoError(t, env.store.InsertVehicle(ctx, &models.Vehicle{Plate: "ABC1234", Class: models.ClassStandard}))
	require.NoError(t, env.store.InsertTicket(ctx, &models.Ticket{
		ID:        "T-stale",
		Plate:     "ABC1234",
		SpotID:    "F2-R1-S1",
		EntryTime: env.clock.Add(-time.Hour),
		Scheme:    models.SchemeFixed,
	}))

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindConflict))

	// 分配必须被补偿释放
	spot, err := env.store.GetSpot(ctx, "F1-R1-S1")
	require.NoError(t, err)
	assert.True(t, spot.Available())
	assert.Nil(t, spot.OccupantPlate)
}

func TestEnterRollbackPublishesNoEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var kinds []events.Kind
	env.bus.Subscribe("recorder", func(event events.Event) {
		kinds = append(kinds, event.Kind)
	})

	require.NoError(t, env.store.InsertVehicle(ctx, &models.Vehicle{Plate: "ABC1234", Class: models.ClassStandard}))
	require.NoError(t, env.store.InsertTicket(ctx, &models.Ticket{
		ID:        "T-stale",
		Plate:     "ABC1234",
		SpotID:    "F2-R1-S1",
		EntryTime: env.clock.Add(-time.Hour),
		Scheme:    models.SchemeFixed,
	}))

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindConflict))

	// 回滚掉的入场对订阅方必须完全不可见
	assert.Empty(t, kinds)
}

func TestExitFullPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(2 * time.Hour)

	receipt, err := env.sessions.Exit(ctx, "ABC1234", 4, models.MethodCard)
	require.NoError(t, err)

	assert.Equal(t, 4.0, receipt.Settlement.PaidParkingFee)
	assert.Equal(t, 0.0, receipt.Settlement.NewBalance)
	assert.Equal(t, models.MethodCard, receipt.Payment.Method)

	// 车位释放、票据关闭、余额清零
	spot, err := env.store.GetSpot(ctx, "F1-R1-S1")
	require.NoError(t, err)
	assert.True(t, spot.Available())

	vehicle, err := env.store.GetVehicle(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, 0.0, vehicle.Balance)

	_, err = env.ledger.ActiveForPlate(ctx, "ABC1234")
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestExitUnderpaymentCarriesDebtToNextVisit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(2 * time.Hour) // 费用 4

	receipt, err := env.sessions.Exit(ctx, "ABC1234", 1, models.MethodCash)
	require.NoError(t, err)
	assert.Equal(t, -3.0, receipt.Settlement.NewBalance)

	vehicle, err := env.store.GetVehicle(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, -3.0, vehicle.Balance)
}

func TestExitWaterfallPaysFinesOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 第一次超时停车欠下 50 罚款和 60 停车费
	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(30 * time.Hour)
	receipt, err := env.sessions.Exit(ctx, "ABC1234", 0, models.MethodCash)
	require.NoError(t, err)
	assert.Equal(t, -60.0, receipt.Settlement.NewBalance)
	assert.Empty(t, receipt.Settlement.PaidFines)

	// 第二次停 1 小时（费用 2），付 120：先还 60 欠款，再付 2 停车费，再付 50 罚款，剩 8 结转
	_, err = env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(time.Hour)

	receipt, err = env.sessions.Exit(ctx, "ABC1234", 120, models.MethodCash)
	require.NoError(t, err)
	require.Len(t, receipt.Settlement.PaidFines, 1)
	assert.Equal(t, 50.0, receipt.Settlement.PaidFineTotal)
	assert.Equal(t, 8.0, receipt.Settlement.NewBalance)

	// 罚款已标记支付
	unpaid, err := env.store.UnpaidFinesForPlate(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Empty(t, unpaid)
}

func TestExitWithoutEntryIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Exit(context.Background(), "ABC1234", 10, models.MethodCash)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestExitNegativeTenderIsValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Exit(context.Background(), "ABC1234", -5, models.MethodCash)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestSessionLifecycleEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var kinds []events.Kind
	env.bus.Subscribe("recorder", func(event events.Event) {
		kinds = append(kinds, event.Kind)
	})

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(time.Hour)
	_, err = env.sessions.Exit(ctx, "ABC1234", 10, models.MethodCash)
	require.NoError(t, err)

	assert.Contains(t, kinds, events.SpotStatusChanged)
	assert.Contains(t, kinds, events.VehicleEntered)
	assert.Contains(t, kinds, events.PaymentProcessed)
	assert.Contains(t, kinds, events.VehicleExited)
	// 入场事件在车位占用之后
	assert.Less(t,
		indexOf(kinds, events.SpotStatusChanged),
		indexOf(kinds, events.VehicleEntered))
}

func indexOf(kinds []events.Kind, kind events.Kind) int {
	for i, k := range kinds {
		if k == kind {
			return i
		}
	}
	return -1
}
