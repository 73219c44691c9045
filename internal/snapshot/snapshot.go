// Package snapshot builds immutable per-tick snapshots from the live
// building and vehicle read models. Every contained sequence is a fresh
// copy so a consumer may retain the snapshot indefinitely without
// aliasing live state.
package snapshot

import (
	"github.com/arclight-sim/elevator-traffic-sim/internal/building"
	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
	"github.com/arclight-sim/elevator-traffic-sim/internal/vehicle"
)

// VehicleSnapshot is one vehicle's state at a tick.
type VehicleSnapshot struct {
	VehicleID       int
	PositionFloor   float64
	CurrentFloor    int
	TargetFloor     *int
	Direction       domain.Direction
	State           domain.VehicleState
	Capacity        int
	OccupantCount   int
	StopQueueFloors []int
}

// FloorSnapshot is one floor's queue state at a tick.
type FloorSnapshot struct {
	Floor                   int
	WaitingUp               int
	WaitingDown             int
	CurrentOccupantsOnFloor int
}

// Tick is a complete, deep-copied snapshot of the building and fleet at
// one simulation tick.
type Tick struct {
	RunID     int
	TickNum   int64
	T         float64
	Elevators []VehicleSnapshot
	Floors    []FloorSnapshot
}

// StopQueueSource supplies the per-vehicle stop queue the controller
// tracks (ActiveAssignment.Boarded destinations); the vehicle itself has
// no notion of pending stops.
type StopQueueSource func(vehicleID int) []domain.Floor

// Assembler builds Tick snapshots from a building and fleet.
type Assembler struct {
	runID     int
	building  *building.Building
	vehicles  []*vehicle.Vehicle
	stopQueue StopQueueSource
}

// New constructs an Assembler for the given run.
func New(runID int, b *building.Building, vehicles []*vehicle.Vehicle, stopQueue StopQueueSource) *Assembler {
	return &Assembler{runID: runID, building: b, vehicles: vehicles, stopQueue: stopQueue}
}

// Build assembles a Tick snapshot for the given tick number and sim time.
func (a *Assembler) Build(tickNum int64, t float64) Tick {
	elevators := make([]VehicleSnapshot, len(a.vehicles))
	for i, v := range a.vehicles {
		var target *int
		if f, ok := v.Target(); ok {
			tf := f.Value()
			target = &tf
		}
		stops := a.stopQueue(v.ID())
		stopFloors := make([]int, len(stops))
		for j, f := range stops {
			stopFloors[j] = f.Value()
		}
		elevators[i] = VehicleSnapshot{
			VehicleID:       v.ID(),
			PositionFloor:   v.Position(),
			CurrentFloor:    v.CurrentFloor().Value(),
			TargetFloor:     target,
			Direction:       v.Direction(),
			State:           v.State(),
			Capacity:        v.Capacity(),
			OccupantCount:   v.OccupantCount(),
			StopQueueFloors: stopFloors,
		}
	}

	floors := make([]FloorSnapshot, a.building.FloorCount())
	for i := range floors {
		floors[i] = FloorSnapshot{
			Floor:                   i,
			WaitingUp:               a.building.WaitingUp(i),
			WaitingDown:             a.building.WaitingDown(i),
			CurrentOccupantsOnFloor: a.building.Occupants(i),
		}
	}

	return Tick{
		RunID:     a.runID,
		TickNum:   tickNum,
		T:         t,
		Elevators: elevators,
		Floors:    floors,
	}
}
