// Package dispatch implements the pluggable call-assignment strategies:
// pure functions mapping a read-only fleet view and a call to a vehicle
// id. The controller holds a Policy as an owned abstraction; the
// cooldown wrapper composes by holding the inner Policy.
package dispatch

import (
	"sort"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

// VehicleView is the read-only state the dispatch policy needs about one
// fleet member. It is satisfied by *vehicle.Vehicle without this package
// importing it back (the controller adapts).
type VehicleView struct {
	ID           int
	CurrentFloor domain.Floor
	State        domain.VehicleState
}

// Policy selects a vehicle id for a call, given a read-only fleet view.
// Fleet must never be mutated by an implementation.
type Policy interface {
	SelectElevator(fleet []VehicleView, call domain.CallRequest) (int, bool)
}

// Basic orders candidates by (idle first), then by distance to the call's
// origin floor, then by id ascending, and returns the first. Ties broken
// by id ascending for run-to-run determinism.
type Basic struct{}

// NewBasic constructs the basic nearest-idle policy.
func NewBasic() *Basic {
	return &Basic{}
}

// SelectElevator implements Policy.
func (b *Basic) SelectElevator(fleet []VehicleView, call domain.CallRequest) (int, bool) {
	if len(fleet) == 0 {
		return 0, false
	}
	candidates := make([]VehicleView, len(fleet))
	copy(candidates, fleet)

	sort.SliceStable(candidates, func(i, j int) bool {
		iIdle, jIdle := idleRank(candidates[i].State), idleRank(candidates[j].State)
		if iIdle != jIdle {
			return iIdle < jIdle
		}
		di, dj := candidates[i].CurrentFloor.Distance(call.Origin), candidates[j].CurrentFloor.Distance(call.Origin)
		if di != dj {
			return di < dj
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0].ID, true
}

func idleRank(s domain.VehicleState) int {
	if s == domain.VehicleIdle {
		return 0
	}
	return 1
}
