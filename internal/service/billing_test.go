package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

func TestGenerateBillSimpleStay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)

	env.advance(90 * time.Minute) // 不满 2 小时按 2 小时计
	bill, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)

	assert.Equal(t, int64(2), bill.HoursParked)
	assert.Equal(t, models.SpotCompact.BaseRate(), bill.HourlyRate)
	assert.Equal(t, 4.0, bill.ParkingFee)
	assert.Empty(t, bill.NewFines)
	assert.Equal(t, bill.ParkingFee, bill.TotalDue)
}

func TestGenerateBillAccessibleVehicleFreeInAccessibleSpot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// F1-R1-S9 是无障碍车位
	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassAccessible, "F1-R1-S9")
	require.NoError(t, err)

	env.advance(3 * time.Hour)
	bill, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)

	assert.Equal(t, 0.0, bill.HourlyRate)
	assert.Equal(t, 0.0, bill.ParkingFee)
}

func TestGenerateBillWithOverstayFine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)

	env.advance(30 * time.Hour)
	bill, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)

	assert.Equal(t, int64(30), bill.HoursParked)
	assert.Equal(t, 60.0, bill.ParkingFee)
	require.Len(t, bill.NewFines, 1)
	assert.Equal(t, models.FineOverstay, bill.NewFines[0].Kind)
	assert.Equal(t, 50.0, bill.NewFineAmount)
	assert.Equal(t, 110.0, bill.TotalDue)
}

func TestGenerateBillReservedMisuse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 无预约停入预约位：允许入场，出场账单带滥用罚款
	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, reservedSpot)
	require.NoError(t, err)

	env.advance(time.Hour)
	bill, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)

	require.Len(t, bill.NewFines, 1)
	assert.Equal(t, models.FineReservedMisuse, bill.NewFines[0].Kind)
	assert.Equal(t, 50.0, bill.NewFineAmount)
	assert.Equal(t, models.SpotReserved.BaseRate(), bill.HourlyRate)
}

func TestGenerateBillReservedWithReservationNoFine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reservation, err := env.reservations.Claim(ctx, reservedSpot)
	require.NoError(t, err)
	_, err = env.reservations.Assign(ctx, reservation.ID, "ABC1234")
	require.NoError(t, err)

	_, err = env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, reservedSpot)
	require.NoError(t, err)

	env.advance(time.Hour)
	bill, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Empty(t, bill.NewFines)
}

func TestGenerateBillSeparatesPriorFines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 第一次入场超时离场但分文未付，留下历史罚款
	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(30 * time.Hour)
	_, err = env.sessions.Exit(ctx, "ABC1234", 0, models.MethodCash)
	require.NoError(t, err)

	// 第二次正常停车
	_, err = env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(time.Hour)

	bill, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)

	assert.Empty(t, bill.NewFines)
	require.Len(t, bill.PriorFines, 1)
	assert.Equal(t, 50.0, bill.PriorFineAmount)
	assert.Equal(t, 50.0, bill.TotalFineAmount)
	assert.Len(t, bill.UnpaidFines, 1)
}

func TestGenerateBillIsRepeatable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(30 * time.Hour)

	first, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)
	second, err := env.sessions.Bill(ctx, "ABC1234")
	require.NoError(t, err)

	assert.Equal(t, first.TotalDue, second.TotalDue)
	assert.Len(t, second.UnpaidFines, 1)
}

func TestGenerateBillNoActiveTicket(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Bill(context.Background(), "ABC1234")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}
