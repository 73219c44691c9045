package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		id       int
		capacity int
		wantErr  error
	}{
		{"valid", 1, 8, nil},
		{"zero id", 0, 8, domain.ErrVehicleIDInvalid},
		{"negative id", -1, 8, domain.ErrVehicleIDInvalid},
		{"zero capacity", 1, 0, domain.ErrVehicleCapacityInvalid},
		{"negative capacity", 1, -2, domain.ErrVehicleCapacityInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(tt.id, tt.capacity, domain.NewFloor(0))
			if tt.wantErr != nil {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.VehicleIdle, v.State())
			assert.Equal(t, domain.DirectionIdle, v.Direction())
		})
	}
}

func TestSetTarget_SameFloorOpensDoorsImmediately(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(3))
	require.NoError(t, err)

	v.SetTarget(domain.NewFloor(3))

	assert.Equal(t, domain.VehicleDoorsOpen, v.State())
	assert.Equal(t, domain.DirectionIdle, v.Direction())
	assert.Equal(t, 0.0, v.Timer())
	_, hasTarget := v.Target()
	assert.False(t, hasTarget)
}

func TestSetTarget_DifferentFloorStartsMoving(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(0))
	require.NoError(t, err)

	v.SetTarget(domain.NewFloor(5))
	assert.Equal(t, domain.VehicleMoving, v.State())
	assert.Equal(t, domain.DirectionUp, v.Direction())
	target, ok := v.Target()
	require.True(t, ok)
	assert.Equal(t, domain.NewFloor(5), target)

	v.Update(2.0, 1.0) // advance to floor 2 so floor 0 lies below
	v.SetTarget(domain.NewFloor(0))
	assert.Equal(t, domain.DirectionDown, v.Direction())
}

func TestUpdate_MovingAdvancesTowardTargetAndSnaps(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(0))
	require.NoError(t, err)
	v.SetTarget(domain.NewFloor(2))

	v.Update(1.0, 1.0) // 1 floor/s * 1s = 1 floor
	assert.InDelta(t, 1.0, v.Position(), 1e-9)
	assert.Equal(t, domain.VehicleMoving, v.State())

	v.Update(1.0, 1.0)
	assert.InDelta(t, 2.0, v.Position(), 1e-9)
	assert.Equal(t, domain.VehicleDoorsOpen, v.State(), "arrival auto-opens doors")
	assert.Equal(t, domain.DirectionIdle, v.Direction())
	_, hasTarget := v.Target()
	assert.False(t, hasTarget)
}

func TestUpdate_NeverOvershootsTarget(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(0))
	require.NoError(t, err)
	v.SetTarget(domain.NewFloor(1))

	v.Update(10.0, 1.0) // would move 10 floors without clamping
	assert.InDelta(t, 1.0, v.Position(), 1e-9)
	assert.Equal(t, domain.VehicleDoorsOpen, v.State())
}

func TestUpdate_TimedStatesOnlyCountDown(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(0))
	require.NoError(t, err)
	v.BeginDoorDwell(2.0)

	v.Update(0.5, 1.0)
	assert.InDelta(t, 1.5, v.Timer(), 1e-9)
	assert.InDelta(t, 0.0, v.Position(), 1e-9, "no positional change during doors-open")

	v.Update(5.0, 1.0)
	assert.Equal(t, 0.0, v.Timer(), "timer clamps to zero")
}

func TestBeginBoarding_TimerIsPerPersonSecond(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(0))
	require.NoError(t, err)
	v.BeginBoarding(3)
	assert.Equal(t, domain.VehicleLoading, v.State())
	assert.InDelta(t, 3.0, v.Timer(), 1e-9)
}

func TestBeginUnloading_TimerIsHalfSecondPerPerson(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(0))
	require.NoError(t, err)
	v.BeginUnloading(4)
	assert.Equal(t, domain.VehicleUnloading, v.State())
	assert.InDelta(t, 2.0, v.Timer(), 1e-9)
}

func TestCloseDoorsToIdle(t *testing.T) {
	v, err := New(1, 4, domain.NewFloor(0))
	require.NoError(t, err)
	v.SetTarget(domain.NewFloor(4))
	v.CloseDoorsToIdle()

	assert.Equal(t, domain.VehicleIdle, v.State())
	assert.Equal(t, domain.DirectionIdle, v.Direction())
	assert.Equal(t, 0.0, v.Timer())
	_, hasTarget := v.Target()
	assert.False(t, hasTarget)
}

func TestAddRemovePassenger(t *testing.T) {
	v, err := New(1, 2, domain.NewFloor(0))
	require.NoError(t, err)

	v.AddPassenger(101)
	v.AddPassenger(102)
	assert.Equal(t, 2, v.OccupantCount())
	assert.ElementsMatch(t, []int{101, 102}, v.Onboard())

	removed := v.RemovePassenger(101)
	assert.True(t, removed)
	assert.Equal(t, []int{102}, v.Onboard())

	removed = v.RemovePassenger(999)
	assert.False(t, removed)
}

func TestAddPassenger_AtCapacityPanics(t *testing.T) {
	v, err := New(1, 1, domain.NewFloor(0))
	require.NoError(t, err)
	v.AddPassenger(1)
	assert.Panics(t, func() { v.AddPassenger(2) })
}
