// Package passenger implements per-type arrival scheduling, person and
// route creation, and floor enqueue: each tick it fires due return
// trips, spawns new arrivals off the non-homogeneous Poisson sampler,
// and submits lobby->destination calls to the elevator controller. All
// sampling draws from one seeded RNG, so a fixed seed reproduces the
// exact spawn and route sequence.
package passenger

import (
	"container/heap"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/arclight-sim/elevator-traffic-sim/internal/arrival"
	"github.com/arclight-sim/elevator-traffic-sim/internal/building"
	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
	"github.com/arclight-sim/elevator-traffic-sim/internal/eventbus"
)

// CallSubmitter receives the calls this controller creates. Implemented
// by the elevator controller.
type CallSubmitter interface {
	SubmitCall(call domain.CallRequest)
}

// typeProfile bundles a passenger type's arrival curve, destination
// range, and planned-stay range. Destination bounds are intersected with
// the building height at spawn time.
type typeProfile struct {
	personType domain.PersonType
	curve      *arrival.Curve
	minDest    int
	maxDest    int
	minStayS   float64
	maxStayS   float64
}

// defaultProfiles returns the per-type profiles in a fixed iteration
// order; the order is part of the deterministic RNG consumption pattern.
func defaultProfiles() []typeProfile {
	return []typeProfile{
		{domain.PersonResident, arrival.ResidentCurve, 1, math.MaxInt32, 30 * 60, 4 * 3600},
		{domain.PersonOfficeWorker, arrival.OfficeWorkerCurve, 1, math.MaxInt32, 4 * 3600, 9 * 3600},
		{domain.PersonShopper, arrival.ShopperCurve, 1, 6, 15 * 60, 2 * 3600},
	}
}

// returnTrip is a scheduled destination->lobby leg, fired when sim time
// reaches due. The call itself is minted at fire time so call ids stay
// monotone with submission order.
type returnTrip struct {
	due      float64
	personID int
	from     domain.Floor
	seq      int
}

// tripHeap is a min-heap on due time, ties broken by scheduling order so
// two trips due the same second fire deterministically.
type tripHeap []returnTrip

func (h tripHeap) Len() int { return len(h) }
func (h tripHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h tripHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *tripHeap) Push(x any)   { *h = append(*h, x.(returnTrip)) }
func (h *tripHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Controller owns arrival generation and the person population.
type Controller struct {
	mu sync.Mutex

	rng       *rand.Rand
	building  *building.Building
	submitter CallSubmitter
	bus       *eventbus.Bus
	logger    *slog.Logger

	profiles    []typeProfile
	nextArrival map[domain.PersonType]float64

	trips   tripHeap
	tripSeq int
	persons map[int]*domain.Person

	nextPersonID int
	nextCallID   int

	spawned        int
	callsCompleted int

	sub *eventbus.Subscription
}

// New constructs a passenger controller seeded with seed. It subscribes
// to the bus to track person lifecycle transitions off boarding and
// alighting events.
func New(b *building.Building, submitter CallSubmitter, bus *eventbus.Bus, seed int64) *Controller {
	c := &Controller{
		rng:          rand.New(rand.NewSource(seed)),
		building:     b,
		submitter:    submitter,
		bus:          bus,
		logger:       slog.With(slog.String("component", constants.ComponentPassenger)),
		profiles:     defaultProfiles(),
		nextArrival:  make(map[domain.PersonType]float64),
		persons:      make(map[int]*domain.Person),
		nextPersonID: 1,
		nextCallID:   1,
	}
	c.sub = bus.Subscribe(c.handle)
	return c
}

// Close unsubscribes the controller from the bus.
func (c *Controller) Close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
}

// TotalSpawned returns how many people have entered the system.
func (c *Controller) TotalSpawned() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawned
}

// CallsCompleted returns how many calls have terminated in an alight.
func (c *Controller) CallsCompleted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callsCompleted
}

// PersonState returns a person's lifecycle state, if the person exists.
func (c *Controller) PersonState(personID int) (domain.PersonLifecycleState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.persons[personID]
	if !ok {
		return "", false
	}
	return p.State, true
}

// Tick fires due return trips, then spawns every arrival due at or
// before t, sampling replacements within [t, t+horizon).
func (c *Controller) Tick(t, horizon float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fireDueReturns(t)
	c.spawnArrivals(t, horizon)
}

func (c *Controller) fireDueReturns(t float64) {
	for len(c.trips) > 0 && c.trips[0].due <= t {
		trip := heap.Pop(&c.trips).(returnTrip)
		p, ok := c.persons[trip.personID]
		if !ok {
			continue
		}

		c.transition(p, domain.PersonWaiting, t)
		c.building.DecrementOccupants(trip.from.Value())

		call := c.newCall(p, trip.from, domain.NewFloor(0), t)
		c.submitAndEnqueue(call, t)
	}
}

func (c *Controller) spawnArrivals(t, horizon float64) {
	for _, profile := range c.profiles {
		next, ok := c.nextArrival[profile.personType]
		if !ok || math.IsInf(next, 1) {
			next = arrival.NextArrival(c.rng, profile.curve, t, horizon)
			c.nextArrival[profile.personType] = next
		}
		for next <= t {
			c.spawn(profile, t)
			next = arrival.NextArrival(c.rng, profile.curve, t, horizon)
			c.nextArrival[profile.personType] = next
		}
	}
}

func (c *Controller) spawn(profile typeProfile, t float64) {
	dest := c.sampleDestination(profile)
	stay := profile.minStayS + c.rng.Float64()*(profile.maxStayS-profile.minStayS)

	route, err := domain.NewRoute([]domain.Destination{
		{Floor: dest, PlannedStaySeconds: stay},
		{Floor: domain.NewFloor(0), PlannedStaySeconds: 0},
	})
	if err != nil {
		// Unreachable: the route always has two legs.
		c.logger.Error("route construction failed", slog.String("error", err.Error()))
		return
	}

	id := c.nextPersonID
	c.nextPersonID++
	person := domain.NewPerson(id, profile.personType, domain.NewFloor(0), route)
	p := &person
	c.persons[id] = p
	c.spawned++

	c.bus.Publish(domain.PersonSpawned{
		EventBase:  domain.EventBase{T: t, Source: constants.ComponentPassenger},
		PersonID:   id,
		PersonType: profile.personType,
		Floor:      domain.NewFloor(0),
	})
	c.transition(p, domain.PersonWaiting, t)

	call := c.newCall(p, domain.NewFloor(0), dest, t)
	c.submitAndEnqueue(call, t)

	c.tripSeq++
	heap.Push(&c.trips, returnTrip{due: t + stay, personID: id, from: dest, seq: c.tripSeq})
}

// sampleDestination draws uniformly from the profile's destination range
// intersected with the building height. A one-floor building degenerates
// to the lobby.
func (c *Controller) sampleDestination(profile typeProfile) domain.Floor {
	top := c.building.FloorCount() - 1
	lo := profile.minDest
	hi := profile.maxDest
	if hi > top {
		hi = top
	}
	if lo > hi {
		lo = hi
	}
	if hi < 1 {
		return domain.NewFloor(0)
	}
	return domain.NewFloor(lo + c.rng.Intn(hi-lo+1))
}

func (c *Controller) newCall(p *domain.Person, origin, destination domain.Floor, t float64) domain.CallRequest {
	id := c.nextCallID
	c.nextCallID++
	return domain.NewCallRequest(id, p.ID, p.Type, origin, destination, t)
}

// submitAndEnqueue hands the call to the elevator controller, joins the
// floor queue, and announces both the request and the queue growth.
func (c *Controller) submitAndEnqueue(call domain.CallRequest, t float64) {
	dir := call.Direction.ToDirection()
	c.bus.Publish(domain.CallRequested{
		EventBase:   domain.EventBase{T: t, Source: constants.ComponentPassenger},
		CallID:      call.CallID,
		PersonID:    call.PersonID,
		PersonType:  call.PersonType,
		Origin:      call.Origin,
		Destination: call.Destination,
		Direction:   dir,
	})

	c.submitter.SubmitCall(call)

	var newSize int
	var ok bool
	if dir == domain.DirectionDown {
		newSize, ok = c.building.EnqueueDown(call.Origin.Value(), call.PersonID)
	} else {
		newSize, ok = c.building.EnqueueUp(call.Origin.Value(), call.PersonID)
	}
	if ok {
		c.bus.Publish(domain.QueueSizeChanged{
			EventBase:    domain.EventBase{T: t, Source: constants.ComponentPassenger},
			Floor:        call.Origin,
			Direction:    dir,
			NewQueueSize: newSize,
		})
	}
}

// transition moves a person to a new lifecycle state and announces it.
// Caller holds c.mu.
func (c *Controller) transition(p *domain.Person, to domain.PersonLifecycleState, t float64) {
	if p.State == to {
		return
	}
	from := p.State
	p.State = to
	c.bus.Publish(domain.PersonStateChanged{
		EventBase: domain.EventBase{T: t, Source: constants.ComponentPassenger},
		PersonID:  p.ID,
		From:      from,
		To:        to,
	})
}

// handle tracks boarding and alighting so person lifecycle states and
// floor occupancy stay consistent with what the elevator controller did.
func (c *Controller) handle(event domain.Event) {
	switch e := event.(type) {
	case domain.PersonBoarded:
		c.mu.Lock()
		if p, ok := c.persons[e.PersonID]; ok {
			c.transition(p, domain.PersonRiding, e.T)
		}
		c.mu.Unlock()
	case domain.PersonAlighted:
		c.mu.Lock()
		c.callsCompleted++
		if p, ok := c.persons[e.PersonID]; ok {
			p.CurrentFloor = e.Floor
			p.RouteIndex++
			if e.Floor.Value() == 0 {
				c.transition(p, domain.PersonCompleted, e.T)
			} else {
				c.transition(p, domain.PersonStaying, e.T)
				c.building.IncrementOccupants(e.Floor.Value())
			}
		}
		c.mu.Unlock()
	}
}
