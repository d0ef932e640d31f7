package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"ABC1234", "ABC1234", false},
		{"abc1234", "ABC1234", false},
		{"  xyz9876  ", "XYZ9876", false},
		{"AB1234", "", true},
		{"ABCD123", "", true},
		{"ABC12345", "", true},
		{"1234ABC", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ValidatePlate(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestHoursBetween(t *testing.T) {
	entry := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		exit time.Time
		want int64
	}{
		{"one second rounds up", entry.Add(time.Second), 1},
		{"exactly one hour", entry.Add(time.Hour), 1},
		{"one hour one second", entry.Add(time.Hour + time.Second), 2},
		{"zero duration", entry, 0},
		{"full day", entry.Add(24 * time.Hour), 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HoursBetween(entry, tt.exit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHoursBetweenExitBeforeEntry(t *testing.T) {
	entry := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := HoursBetween(entry, entry.Add(-time.Minute))
	assert.Error(t, err)
}

func TestCanParkIn(t *testing.T) {
	tests := []struct {
		class    VehicleClass
		category SpotCategory
		want     bool
	}{
		{ClassTwoWheel, SpotCompact, true},
		{ClassTwoWheel, SpotRegular, false},
		{ClassStandard, SpotCompact, true},
		{ClassStandard, SpotRegular, true},
		{ClassStandard, SpotAccessible, false},
		{ClassLarge, SpotCompact, false},
		{ClassLarge, SpotRegular, true},
		{ClassAccessible, SpotAccessible, true},
		{ClassAccessible, SpotCompact, true},
		// RESERVED 对所有车型开放，滥用在出场时罚款
		{ClassTwoWheel, SpotReserved, true},
		{ClassLarge, SpotReserved, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanParkIn(tt.class, tt.category),
			"%s in %s", tt.class, tt.category)
	}
}

func TestHourlyRate(t *testing.T) {
	compact := &ParkingSpot{Category: SpotCompact, HourlyRate: SpotCompact.BaseRate()}
	accessible := &ParkingSpot{Category: SpotAccessible, HourlyRate: SpotAccessible.BaseRate()}
	reserved := &ParkingSpot{Category: SpotReserved, HourlyRate: SpotReserved.BaseRate()}

	assert.Equal(t, 2.0, HourlyRate(ClassStandard, compact))
	assert.Equal(t, 10.0, HourlyRate(ClassStandard, reserved))
	// ACCESSIBLE 车辆在无障碍车位免费，其它车位统一优惠费率
	assert.Equal(t, 0.0, HourlyRate(ClassAccessible, accessible))
	assert.Equal(t, 2.0, HourlyRate(ClassAccessible, reserved))
}

func TestSpotID(t *testing.T) {
	assert.Equal(t, "F1-R2-S3", SpotID(1, 2, 3))
}

func TestTicketOpen(t *testing.T) {
	ticket := &Ticket{ID: "T-1"}
	assert.True(t, ticket.Open())
	now := time.Now()
	ticket.ExitTime = &now
	assert.False(t, ticket.Open())
}
