package domain

// Event is the marker interface implemented by every domain event
// variant published on the event bus: one concrete struct per event
// kind, each only implementing isEvent().
type Event interface {
	isEvent()
	EventTime() float64
	EventSource() string
}

// EventBase carries the fields common to every event variant.
type EventBase struct {
	T      float64
	Source string
}

func (b EventBase) EventTime() float64  { return b.T }
func (b EventBase) EventSource() string { return b.Source }

// RunStarted is published once at the beginning of a run.
type RunStarted struct {
	EventBase
	FloorCount             int
	ElevatorCount          int
	RandomSeed             int64
	PlannedDurationSeconds float64
	ScenarioName           string
	ContractVersion        string
}

func (RunStarted) isEvent() {}

// RunEnded is published once at the end of a run.
type RunEnded struct {
	EventBase
	TotalPeople         int
	TotalCallsCompleted int
}

func (RunEnded) isEvent() {}

// PersonSpawned marks a person entering the system.
type PersonSpawned struct {
	EventBase
	PersonID   int
	PersonType PersonType
	Floor      Floor
}

func (PersonSpawned) isEvent() {}

// PersonStateChanged marks a lifecycle-state transition for a person.
type PersonStateChanged struct {
	EventBase
	PersonID int
	From     PersonLifecycleState
	To       PersonLifecycleState
}

func (PersonStateChanged) isEvent() {}

// CallRequested marks a call entering the controller's pending queue.
type CallRequested struct {
	EventBase
	CallID      int
	PersonID    int
	PersonType  PersonType
	Origin      Floor
	Destination Floor
	Direction   Direction
}

func (CallRequested) isEvent() {}

// CallAssigned marks a call being bound to a vehicle.
type CallAssigned struct {
	EventBase
	CallID           int
	VehicleID        int
	EstimatedPickupT float64
}

func (CallAssigned) isEvent() {}

// ElevatorArrived marks a vehicle reaching a floor with doors open.
type ElevatorArrived struct {
	EventBase
	VehicleID int
	Floor     Floor
}

func (ElevatorArrived) isEvent() {}

// DoorsOpened marks the start of a door dwell.
type DoorsOpened struct {
	EventBase
	VehicleID int
	Floor     Floor
}

func (DoorsOpened) isEvent() {}

// DoorsClosed marks the end of a door dwell.
type DoorsClosed struct {
	EventBase
	VehicleID int
	Floor     Floor
}

func (DoorsClosed) isEvent() {}

// PersonBoarded marks a person entering a vehicle.
type PersonBoarded struct {
	EventBase
	PersonID                  int
	CallID                    int
	VehicleID                 int
	Floor                     Floor
	VehicleOccupantCountAfter int
}

func (PersonBoarded) isEvent() {}

// PersonAlighted marks a person leaving a vehicle at its destination.
type PersonAlighted struct {
	EventBase
	PersonID                  int
	CallID                    int
	VehicleID                 int
	Floor                     Floor
	VehicleOccupantCountAfter int
}

func (PersonAlighted) isEvent() {}

// CapacityHit marks a vehicle at capacity during pickup; the primary
// call is re-queued.
type CapacityHit struct {
	EventBase
	CallID               int
	PersonID             int
	VehicleID            int
	Floor                Floor
	VehicleOccupantCount int
	VehicleCapacity      int
}

func (CapacityHit) isEvent() {}

// VehicleStateChanged marks a vehicle's mechanical state transition.
type VehicleStateChanged struct {
	EventBase
	VehicleID int
	From      VehicleState
	To        VehicleState
}

func (VehicleStateChanged) isEvent() {}

// QueueSizeChanged marks a change in a floor's waiting-queue size.
type QueueSizeChanged struct {
	EventBase
	Floor        Floor
	Direction    Direction
	NewQueueSize int
}

func (QueueSizeChanged) isEvent() {}
