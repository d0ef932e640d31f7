package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/parklot/internal/models"
)

func TestInitializeSeedsFullFacility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	spots, err := env.facility.ListSpots(ctx)
	require.NoError(t, err)
	require.Len(t, spots, models.TotalFloors*models.RowsPerFloor*models.SpotsPerRow)

	counts := map[models.SpotCategory]int{}
	for _, spot := range spots {
		counts[spot.Category]++
		assert.Equal(t, spot.Category.BaseRate(), spot.HourlyRate)
		assert.True(t, spot.Available())
	}
	rows := models.TotalFloors * models.RowsPerFloor
	assert.Equal(t, rows*models.CompactPerRow, counts[models.SpotCompact])
	assert.Equal(t, rows*models.RegularPerRow, counts[models.SpotRegular])
	assert.Equal(t, rows*models.AccessPerRow, counts[models.SpotAccessible])
	assert.Equal(t, rows*models.ReservedPerRow, counts[models.SpotReserved])
}

func TestInitializeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.facility.Initialize(ctx))
	count, err := env.store.CountSpots(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(models.TotalFloors*models.RowsPerFloor*models.SpotsPerRow), count)
}

func TestOccupancyReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)

	report, err := env.facility.Occupancy(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), report.TotalSpots)
	assert.Equal(t, int64(1), report.OccupiedSpots)
	assert.Equal(t, int64(1), report.OpenTickets)
	assert.Equal(t, int64(1), report.ByCategory[models.SpotCompact].Occupied)
}

func TestRevenueReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Enter(ctx, "ABC1234", models.ClassStandard, "F1-R1-S1")
	require.NoError(t, err)
	env.advance(2 * time.Hour)
	_, err = env.sessions.Exit(ctx, "ABC1234", 4, models.MethodCash)
	require.NoError(t, err)

	report, err := env.facility.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.PaymentCount)
	assert.Equal(t, 4.0, report.TotalRevenue)
	assert.Equal(t, 4.0, report.ParkingFeeTotal)
	assert.Equal(t, 0.0, report.FineTotal)
	assert.Equal(t, 0.0, report.OutstandingFines)
}

func TestFineSchemeRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scheme, err := env.facility.FineScheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFineScheme, scheme)

	require.NoError(t, env.facility.SetFineScheme(ctx, models.SchemeHourly))
	scheme, err = env.facility.FineScheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SchemeHourly, scheme)

	assert.Error(t, env.facility.SetFineScheme(ctx, "BOGUS"))
}
