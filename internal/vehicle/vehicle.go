// Package vehicle implements the per-car mechanics: continuous floor
// position, motion toward a target, and the timed sub-states (doors,
// loading, unloading) that the controller drives through its own
// higher-level assignment state machine. The vehicle itself has no notion
// of calls, capacity policy, or dispatch — it only counts down timers and
// moves.
package vehicle

import (
	"fmt"
	"math"
	"sync"

	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

// Vehicle is a single simulated elevator car.
type Vehicle struct {
	mu sync.RWMutex

	id       int
	capacity int

	position  float64
	hasTarget bool
	target    float64
	direction domain.Direction
	state     domain.VehicleState
	timer     float64
	onboard   []int
}

// New constructs a Vehicle at the given starting floor. id must be
// positive and capacity must be positive; both are construction-time
// invariants.
func New(id int, capacity int, startFloor domain.Floor) (*Vehicle, error) {
	if id <= 0 {
		return nil, domain.ErrVehicleIDInvalid
	}
	if capacity <= 0 {
		return nil, domain.ErrVehicleCapacityInvalid
	}
	return &Vehicle{
		id:        id,
		capacity:  capacity,
		position:  float64(startFloor.Value()),
		direction: domain.DirectionIdle,
		state:     domain.VehicleIdle,
	}, nil
}

// ID returns the vehicle's identifier.
func (v *Vehicle) ID() int {
	return v.id
}

// Capacity returns the maximum number of onboard passengers.
func (v *Vehicle) Capacity() int {
	return v.capacity
}

// Position returns the continuous floor position.
func (v *Vehicle) Position() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.position
}

// CurrentFloor returns the derived current floor: the continuous position
// rounded to the nearest integer, ties away from zero.
func (v *Vehicle) CurrentFloor() domain.Floor {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return domain.NewFloor(int(math.Round(v.position)))
}

// Direction returns the vehicle's current direction of travel.
func (v *Vehicle) Direction() domain.Direction {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.direction
}

// State returns the vehicle's current mechanical state.
func (v *Vehicle) State() domain.VehicleState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Timer returns the remaining seconds of the current timed state.
func (v *Vehicle) Timer() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.timer
}

// Target returns the current target floor and whether one is set.
func (v *Vehicle) Target() (domain.Floor, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.hasTarget {
		return domain.Floor(0), false
	}
	return domain.NewFloor(int(math.Round(v.target))), true
}

// Onboard returns a copy of the onboard person-id list.
func (v *Vehicle) Onboard() []int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	cp := make([]int, len(v.onboard))
	copy(cp, v.onboard)
	return cp
}

// OccupantCount returns the number of onboard passengers.
func (v *Vehicle) OccupantCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.onboard)
}

// SetTarget sets the vehicle in motion toward floor. If floor equals the
// current floor, the vehicle transitions directly to doors-open with zero
// dwell and idle direction.
func (v *Vehicle) SetTarget(floor domain.Floor) {
	v.mu.Lock()
	defer v.mu.Unlock()

	targetPos := float64(floor.Value())
	if math.Round(v.position) == targetPos {
		v.hasTarget = false
		v.direction = domain.DirectionIdle
		v.state = domain.VehicleDoorsOpen
		v.timer = 0
		return
	}

	v.hasTarget = true
	v.target = targetPos
	if targetPos > v.position {
		v.direction = domain.DirectionUp
	} else {
		v.direction = domain.DirectionDown
	}
	v.state = domain.VehicleMoving
	v.timer = 0
}

// BeginDoorDwell arms the doors-open timed state.
func (v *Vehicle) BeginDoorDwell(seconds float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = domain.VehicleDoorsOpen
	v.direction = domain.DirectionIdle
	v.timer = math.Max(0, seconds)
}

// BeginBoarding arms the loading timed state for n boarding passengers.
func (v *Vehicle) BeginBoarding(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = domain.VehicleLoading
	v.timer = float64(n) * constants.BoardSecondsPerPerson
}

// BeginUnloading arms the unloading timed state for n alighting passengers.
func (v *Vehicle) BeginUnloading(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = domain.VehicleUnloading
	v.timer = float64(n) * constants.UnloadSecondsPerPerson
}

// CloseDoorsToIdle returns the vehicle to idle with no target.
func (v *Vehicle) CloseDoorsToIdle() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = domain.VehicleIdle
	v.direction = domain.DirectionIdle
	v.timer = 0
	v.hasTarget = false
}

// AddPassenger appends id to the onboard list. Adding past capacity is an
// invariant violation and panics rather than
// returning an error — it signals a controller bug, not a recoverable
// runtime condition.
func (v *Vehicle) AddPassenger(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.onboard) >= v.capacity {
		panic(fmt.Sprintf("vehicle %d: add_passenger called at capacity (%d)", v.id, v.capacity))
	}
	v.onboard = append(v.onboard, id)
}

// RemovePassenger removes id from the onboard list, returning whether it
// was present.
func (v *Vehicle) RemovePassenger(id int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, onboardID := range v.onboard {
		if onboardID == id {
			v.onboard = append(v.onboard[:i], v.onboard[i+1:]...)
			return true
		}
	}
	return false
}

// Update advances the vehicle's mechanics by dt seconds at the given
// cruise speed (floors per second). Timed states only count down; moving
// states advance position toward the target, snapping to it on arrival
// and auto-transitioning to doors-open so the controller can
// detect arrival without polling position deltas.
func (v *Vehicle) Update(dt, speedFloorsPerSecond float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case domain.VehicleDoorsOpen, domain.VehicleLoading, domain.VehicleUnloading:
		v.timer -= dt
		if v.timer < 0 {
			v.timer = 0
		}
		return
	case domain.VehicleMoving:
		if !v.hasTarget {
			return
		}
		step := speedFloorsPerSecond * dt
		if v.target > v.position {
			v.position += step
			if v.position > v.target {
				v.position = v.target
			}
		} else {
			v.position -= step
			if v.position < v.target {
				v.position = v.target
			}
		}
		if math.Abs(v.position-v.target) < constants.EpsilonFloor {
			v.position = v.target
			v.hasTarget = false
			v.direction = domain.DirectionIdle
			v.state = domain.VehicleDoorsOpen
			v.timer = 0
		}
		return
	default:
		return
	}
}
