package controller

import "github.com/arclight-sim/elevator-traffic-sim/internal/domain"

// Phase is one step of the per-vehicle pickup-to-complete state machine.
type Phase string

const (
	PhaseGoingToPickup      Phase = "going-to-pickup"
	PhaseDoorDwellAtPickup  Phase = "door-dwell-at-pickup"
	PhaseBoarding           Phase = "boarding"
	PhaseGoingToDropoff     Phase = "going-to-dropoff"
	PhaseDoorDwellAtDropoff Phase = "door-dwell-at-dropoff"
	PhaseUnloading          Phase = "unloading"
	PhaseComplete           Phase = "complete"
)

// ActiveAssignment binds a primary call (and any co-directional batch
// boarded alongside it) to one vehicle for the duration of pickup through
// dropoff.
type ActiveAssignment struct {
	Primary      domain.CallRequest
	Phase        Phase
	PickupArmed  bool
	DropoffArmed bool
	Boarded      []domain.CallRequest
	NextTarget   *domain.Floor
}
