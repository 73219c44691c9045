// Package controller implements the elevator controller: the FIFO of
// pending calls, one ActiveAssignment per busy vehicle, and the
// pickup-to-dropoff phase machine that drives batch boarding, capacity
// handling, and cooldown notification.
package controller

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/arclight-sim/elevator-traffic-sim/internal/building"
	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/internal/dispatch"
	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
	"github.com/arclight-sim/elevator-traffic-sim/internal/eventbus"
	"github.com/arclight-sim/elevator-traffic-sim/internal/vehicle"
)

// cooldownNotifier is implemented by *dispatch.Cooldown; the controller
// only depends on the narrow capability it needs (departure notification
// and the per-tick clock),
// not the concrete decorator type, so a bare Basic policy works too.
type cooldownNotifier interface {
	NotifyDeparted(vehicleID int)
	SetNow(t float64)
}

// Controller owns the pending-call queue and the active assignments, and
// steers the fleet through pickup and dropoff each tick.
type Controller struct {
	mu sync.Mutex

	pending  []domain.CallRequest
	active   map[int]*ActiveAssignment
	vehicles []*vehicle.Vehicle

	building *building.Building
	policy   dispatch.Policy
	bus      *eventbus.Bus
	logger   *slog.Logger

	now float64
}

// New constructs a Controller over the given building, fleet, dispatch
// policy, and event bus.
func New(b *building.Building, vehicles []*vehicle.Vehicle, policy dispatch.Policy, bus *eventbus.Bus) *Controller {
	return &Controller{
		active:   make(map[int]*ActiveAssignment),
		vehicles: vehicles,
		building: b,
		policy:   policy,
		bus:      bus,
		logger:   slog.With(slog.String("component", constants.ComponentController)),
	}
}

// SubmitCall enqueues a call at the tail of the pending FIFO. The
// building-queue enqueue is the submitter's responsibility —
// the controller only tracks the call itself.
func (c *Controller) SubmitCall(call domain.CallRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, call)
}

// PendingCount returns the number of calls waiting for assignment.
func (c *Controller) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ActiveCount returns the number of vehicles currently working an
// assignment.
func (c *Controller) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// StopQueueFloors returns the destination floors a vehicle's current
// assignment still owes a stop to, in boarded order, for the snapshot
// assembler to copy out. A vehicle with no active assignment has an
// empty stop queue.
func (c *Controller) StopQueueFloors(vehicleID int) []domain.Floor {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.active[vehicleID]
	if !ok {
		return nil
	}
	floors := make([]domain.Floor, len(a.Boarded))
	for i, call := range a.Boarded {
		floors[i] = call.Destination
	}
	return floors
}

func (c *Controller) vehicleByID(id int) *vehicle.Vehicle {
	for _, v := range c.vehicles {
		if v.ID() == id {
			return v
		}
	}
	return nil
}

func (c *Controller) fleetView() []dispatch.VehicleView {
	views := make([]dispatch.VehicleView, len(c.vehicles))
	for i, v := range c.vehicles {
		views[i] = dispatch.VehicleView{ID: v.ID(), CurrentFloor: v.CurrentFloor(), State: v.State()}
	}
	return views
}

// Tick advances sim time to now and runs the per-tick controller
// procedure: assign pending calls, then step every active assignment.
// Vehicle mechanics themselves are advanced by the caller
// (the simulation engine) separately, after this call.
func (c *Controller) Tick(now float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now

	if notifier, ok := c.policy.(cooldownNotifier); ok {
		notifier.SetNow(now)
	}

	c.assignPending()
	c.stepActive()
}

// assignPending assigns calls off the head of
// pending until the policy would hand a call to an already-busy vehicle,
// at which point assignment stops for this tick (the head call is never
// starved by skipping ahead).
func (c *Controller) assignPending() {
	for len(c.pending) > 0 {
		head := c.pending[0]
		vehicleID, ok := c.policy.SelectElevator(c.fleetView(), head)
		if !ok {
			return
		}
		if _, busy := c.active[vehicleID]; busy {
			return
		}

		c.pending = c.pending[1:]
		c.active[vehicleID] = &ActiveAssignment{Primary: head, Phase: PhaseGoingToPickup}

		v := c.vehicleByID(vehicleID)
		if v == nil {
			continue
		}
		v.SetTarget(head.Origin)

		c.bus.Publish(domain.CallAssigned{
			EventBase:        domain.EventBase{T: c.now, Source: constants.ComponentController},
			CallID:           head.CallID,
			VehicleID:        vehicleID,
			EstimatedPickupT: math.NaN(),
		})
	}
}

// stepActive advances every active assignment
// by one phase transition, in ascending vehicle-id order for deterministic
// event ordering.
func (c *Controller) stepActive() {
	ids := make([]int, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		assignment := c.active[id]
		v := c.vehicleByID(id)
		if v == nil {
			continue
		}
		c.stepAssignment(v, assignment)
		if assignment.Phase == PhaseComplete {
			delete(c.active, id)
		}
	}
}

func (c *Controller) stepAssignment(v *vehicle.Vehicle, a *ActiveAssignment) {
	switch a.Phase {
	case PhaseGoingToPickup:
		c.stepGoingToPickup(v, a)
	case PhaseDoorDwellAtPickup:
		c.stepDoorDwellAtPickup(v, a)
	case PhaseBoarding:
		c.stepBoarding(v, a)
	case PhaseGoingToDropoff:
		c.stepGoingToDropoff(v, a)
	case PhaseDoorDwellAtDropoff:
		c.stepDoorDwellAtDropoff(v, a)
	case PhaseUnloading:
		c.stepUnloading(v, a)
	}
}

func (c *Controller) stepGoingToPickup(v *vehicle.Vehicle, a *ActiveAssignment) {
	if v.CurrentFloor() != a.Primary.Origin || v.State() != domain.VehicleDoorsOpen {
		return
	}
	c.bus.Publish(domain.ElevatorArrived{
		EventBase: domain.EventBase{T: c.now, Source: constants.ComponentController},
		VehicleID: v.ID(), Floor: a.Primary.Origin,
	})
	a.Phase = PhaseDoorDwellAtPickup
}

func (c *Controller) stepDoorDwellAtPickup(v *vehicle.Vehicle, a *ActiveAssignment) {
	if !a.PickupArmed {
		a.PickupArmed = true
		v.BeginDoorDwell(constants.DwellSeconds)
		c.bus.Publish(domain.DoorsOpened{
			EventBase: domain.EventBase{T: c.now, Source: constants.ComponentController},
			VehicleID: v.ID(), Floor: a.Primary.Origin,
		})
		return
	}
	if v.Timer() > 0 {
		return
	}
	a.Phase = PhaseBoarding
}

func (c *Controller) stepBoarding(v *vehicle.Vehicle, a *ActiveAssignment) {
	if v.State() == domain.VehicleLoading && v.Timer() > 0 {
		return
	}
	if v.State() == domain.VehicleLoading && v.Timer() == 0 && a.NextTarget != nil {
		c.closeDoors(v, a.Primary.Origin)
		if notifier, ok := c.policy.(cooldownNotifier); ok {
			notifier.NotifyDeparted(v.ID())
		}
		v.SetTarget(*a.NextTarget)
		a.Phase = PhaseGoingToDropoff
		return
	}

	capacityRemaining := v.Capacity() - v.OccupantCount()
	if capacityRemaining <= 0 {
		c.bus.Publish(domain.CapacityHit{
			EventBase:            domain.EventBase{T: c.now, Source: constants.ComponentController},
			CallID:               a.Primary.CallID,
			PersonID:             a.Primary.PersonID,
			VehicleID:            v.ID(),
			Floor:                a.Primary.Origin,
			VehicleOccupantCount: v.OccupantCount(),
			VehicleCapacity:      v.Capacity(),
		})
		c.pending = append(c.pending, a.Primary)
		c.closeDoors(v, a.Primary.Origin)
		a.Phase = PhaseComplete
		return
	}

	batch := c.collectBatch(a.Primary, capacityRemaining)

	for _, batched := range batch {
		dir := batched.Direction.ToDirection()
		var newSize int
		var ok bool
		if dir == domain.DirectionUp {
			_, newSize, ok = c.building.DequeueUp(batched.Origin.Value())
		} else {
			_, newSize, ok = c.building.DequeueDown(batched.Origin.Value())
		}
		if ok {
			c.bus.Publish(domain.QueueSizeChanged{
				EventBase:    domain.EventBase{T: c.now, Source: constants.ComponentController},
				Floor:        batched.Origin,
				Direction:    dir,
				NewQueueSize: newSize,
			})
		}
	}

	boardedCount := 0
	for _, batched := range batch {
		if v.OccupantCount() >= v.Capacity() {
			c.pending = append(c.pending, batched)
			continue
		}
		v.AddPassenger(batched.PersonID)
		a.Boarded = append(a.Boarded, batched)
		boardedCount++
		c.bus.Publish(domain.PersonBoarded{
			EventBase:                 domain.EventBase{T: c.now, Source: constants.ComponentController},
			PersonID:                  batched.PersonID,
			CallID:                    batched.CallID,
			VehicleID:                 v.ID(),
			Floor:                     batched.Origin,
			VehicleOccupantCountAfter: v.OccupantCount(),
		})
	}

	v.BeginBoarding(boardedCount)
	next := nearestDestination(a.Primary.Origin, a.Boarded)
	a.NextTarget = &next
}

// collectBatch always includes the primary call; additionally pulls any
// other pending calls whose (origin, direction) matches the primary's, up
// to the vehicle's remaining capacity, preserving pending FIFO order.
func (c *Controller) collectBatch(primary domain.CallRequest, capacity int) []domain.CallRequest {
	batch := []domain.CallRequest{primary}
	remaining := make([]domain.CallRequest, 0, len(c.pending))
	for _, call := range c.pending {
		if len(batch) >= capacity {
			remaining = append(remaining, call)
			continue
		}
		if call.Origin == primary.Origin && call.Direction == primary.Direction {
			batch = append(batch, call)
			continue
		}
		remaining = append(remaining, call)
	}
	c.pending = remaining
	return batch
}

func nearestDestination(from domain.Floor, boarded []domain.CallRequest) domain.Floor {
	best := boarded[0].Destination
	bestDist := from.Distance(best)
	for _, call := range boarded[1:] {
		d := from.Distance(call.Destination)
		if d < bestDist {
			bestDist = d
			best = call.Destination
		}
	}
	return best
}

func (c *Controller) stepGoingToDropoff(v *vehicle.Vehicle, a *ActiveAssignment) {
	if v.State() != domain.VehicleDoorsOpen {
		return
	}
	current := v.CurrentFloor()
	matches := false
	for _, call := range a.Boarded {
		if call.Destination == current {
			matches = true
			break
		}
	}
	if !matches {
		return
	}
	c.bus.Publish(domain.ElevatorArrived{
		EventBase: domain.EventBase{T: c.now, Source: constants.ComponentController},
		VehicleID: v.ID(), Floor: current,
	})
	a.Phase = PhaseDoorDwellAtDropoff
}

func (c *Controller) stepDoorDwellAtDropoff(v *vehicle.Vehicle, a *ActiveAssignment) {
	if !a.DropoffArmed {
		a.DropoffArmed = true
		v.BeginDoorDwell(constants.DwellSeconds)
		c.bus.Publish(domain.DoorsOpened{
			EventBase: domain.EventBase{T: c.now, Source: constants.ComponentController},
			VehicleID: v.ID(), Floor: v.CurrentFloor(),
		})
		return
	}
	if v.Timer() > 0 {
		return
	}
	a.Phase = PhaseUnloading
}

func (c *Controller) stepUnloading(v *vehicle.Vehicle, a *ActiveAssignment) {
	if v.State() == domain.VehicleUnloading && v.Timer() > 0 {
		return
	}
	if v.State() != domain.VehicleUnloading {
		current := v.CurrentFloor()
		remaining := make([]domain.CallRequest, 0, len(a.Boarded))
		alighted := 0
		for _, call := range a.Boarded {
			if call.Destination == current {
				v.RemovePassenger(call.PersonID)
				alighted++
				c.bus.Publish(domain.PersonAlighted{
					EventBase:                 domain.EventBase{T: c.now, Source: constants.ComponentController},
					PersonID:                  call.PersonID,
					CallID:                    call.CallID,
					VehicleID:                 v.ID(),
					Floor:                     current,
					VehicleOccupantCountAfter: v.OccupantCount(),
				})
				continue
			}
			remaining = append(remaining, call)
		}
		a.Boarded = remaining
		v.BeginUnloading(alighted)
		return
	}

	if len(a.Boarded) == 0 {
		c.closeDoors(v, v.CurrentFloor())
		a.Phase = PhaseComplete
		return
	}
	next := nearestDestination(v.CurrentFloor(), a.Boarded)
	c.closeDoors(v, v.CurrentFloor())
	v.SetTarget(next)
	a.DropoffArmed = false
	a.Phase = PhaseGoingToDropoff
}

func (c *Controller) closeDoors(v *vehicle.Vehicle, floor domain.Floor) {
	v.CloseDoorsToIdle()
	c.bus.Publish(domain.DoorsClosed{
		EventBase: domain.EventBase{T: c.now, Source: constants.ComponentController},
		VehicleID: v.ID(), Floor: floor,
	})
}
