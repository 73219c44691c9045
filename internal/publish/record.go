// Package publish implements the asynchronous publication pipeline: the
// event batcher (bounded, no-drop, periodic flush), the snapshot
// coalescer (capacity 1, drop-oldest, optional wall-time throttle), and
// the NDJSON line sink. The pipeline consumes value-typed records copied
// at the boundary; it never touches live domain state.
package publish

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
	"github.com/arclight-sim/elevator-traffic-sim/internal/snapshot"
)

// EventType is the wire tag of an event record.
type EventType string

const (
	TypeRunStarted          EventType = "RunStarted"
	TypeRunEnded            EventType = "RunEnded"
	TypePersonSpawned       EventType = "PersonSpawned"
	TypePersonStateChanged  EventType = "PersonStateChanged"
	TypeCallRequested       EventType = "CallRequested"
	TypeCallAssigned        EventType = "CallAssigned"
	TypeElevatorArrived     EventType = "ElevatorArrived"
	TypeDoorsOpened         EventType = "DoorsOpened"
	TypeDoorsClosed         EventType = "DoorsClosed"
	TypePersonBoarded       EventType = "PersonBoarded"
	TypePersonAlighted      EventType = "PersonAlighted"
	TypeCapacityHit         EventType = "CapacityHit"
	TypeVehicleStateChanged EventType = "VehicleStateChanged"
	TypeQueueSizeChanged    EventType = "QueueSizeChanged"
)

// JSONFloat marshals NaN and the infinities as quoted strings so every
// NDJSON line stays a well-formed JSON object. encoding/json rejects the
// bare IEEE tokens outright.
type JSONFloat float64

// MarshalJSON implements json.Marshaler.
func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(v)
}

// EventRecord is one line of the events stream.
type EventRecord struct {
	RunID    int       `json:"RunId"`
	Sequence int64     `json:"Sequence"`
	T        float64   `json:"T"`
	Type     EventType `json:"Type"`
	Source   string    `json:"Source"`
	Message  string    `json:"Message"`
	Payload  any       `json:"Payload"`
}

// Payload shapes, one per event type. Field names are part of the wire
// contract.

type RunStartedPayload struct {
	FloorCount             int
	ElevatorCount          int
	RandomSeed             int64
	PlannedDurationSeconds float64
	ScenarioName           string
	ContractVersion        string
}

type RunEndedPayload struct {
	TotalPeople         int
	TotalCallsCompleted int
}

type PersonSpawnedPayload struct {
	PersonID   int    `json:"PersonId"`
	PersonType string `json:"PersonType"`
	Floor      int    `json:"Floor"`
}

type PersonStateChangedPayload struct {
	PersonID int    `json:"PersonId"`
	From     string `json:"From"`
	To       string `json:"To"`
}

type CallRequestedPayload struct {
	CallID      int    `json:"CallId"`
	PersonID    int    `json:"PersonId"`
	Origin      int    `json:"Origin"`
	Destination int    `json:"Destination"`
	Direction   string `json:"Direction"`
}

type CallAssignedPayload struct {
	CallID           int       `json:"CallId"`
	VehicleID        int       `json:"VehicleId"`
	EstimatedPickupT JSONFloat `json:"EstimatedPickupT"`
}

type VehicleAtFloorPayload struct {
	VehicleID int `json:"VehicleId"`
	Floor     int `json:"Floor"`
}

type PersonTransferPayload struct {
	PersonID                  int `json:"PersonId"`
	CallID                    int `json:"CallId"`
	VehicleID                 int `json:"VehicleId"`
	Floor                     int `json:"Floor"`
	VehicleOccupantCountAfter int `json:"VehicleOccupantCountAfter"`
}

type CapacityHitPayload struct {
	CallID               int `json:"CallId"`
	PersonID             int `json:"PersonId"`
	VehicleID            int `json:"VehicleId"`
	Floor                int `json:"Floor"`
	VehicleOccupantCount int `json:"VehicleOccupantCount"`
	VehicleCapacity      int `json:"VehicleCapacity"`
}

type VehicleStateChangedPayload struct {
	VehicleID int    `json:"VehicleId"`
	From      string `json:"From"`
	To        string `json:"To"`
}

type QueueSizeChangedPayload struct {
	Floor        int
	Direction    string
	NewQueueSize int
}

// directionTag renders a direction for the wire: Up, Down, or Idle.
func directionTag(d domain.Direction) string {
	switch d {
	case domain.DirectionUp:
		return "Up"
	case domain.DirectionDown:
		return "Down"
	default:
		return "Idle"
	}
}

// RecordFromEvent adapts a domain event into an event record, stamping
// the run id and sequence number. The adapter is the single place the
// in-process tagged union is flattened into the wire schema.
func RecordFromEvent(runID int, sequence int64, event domain.Event) EventRecord {
	rec := EventRecord{
		RunID:    runID,
		Sequence: sequence,
		T:        event.EventTime(),
		Source:   event.EventSource(),
	}

	switch e := event.(type) {
	case domain.RunStarted:
		rec.Type = TypeRunStarted
		rec.Message = fmt.Sprintf("run started: %d floors, %d elevators, seed %d", e.FloorCount, e.ElevatorCount, e.RandomSeed)
		rec.Payload = RunStartedPayload{
			FloorCount:             e.FloorCount,
			ElevatorCount:          e.ElevatorCount,
			RandomSeed:             e.RandomSeed,
			PlannedDurationSeconds: e.PlannedDurationSeconds,
			ScenarioName:           e.ScenarioName,
			ContractVersion:        e.ContractVersion,
		}
	case domain.RunEnded:
		rec.Type = TypeRunEnded
		rec.Message = fmt.Sprintf("run ended: %d people, %d calls completed", e.TotalPeople, e.TotalCallsCompleted)
		rec.Payload = RunEndedPayload{TotalPeople: e.TotalPeople, TotalCallsCompleted: e.TotalCallsCompleted}
	case domain.PersonSpawned:
		rec.Type = TypePersonSpawned
		rec.Message = fmt.Sprintf("person %d (%s) spawned at floor %d", e.PersonID, e.PersonType, e.Floor.Value())
		rec.Payload = PersonSpawnedPayload{PersonID: e.PersonID, PersonType: string(e.PersonType), Floor: e.Floor.Value()}
	case domain.PersonStateChanged:
		rec.Type = TypePersonStateChanged
		rec.Message = fmt.Sprintf("person %d: %s -> %s", e.PersonID, e.From, e.To)
		rec.Payload = PersonStateChangedPayload{PersonID: e.PersonID, From: string(e.From), To: string(e.To)}
	case domain.CallRequested:
		rec.Type = TypeCallRequested
		rec.Message = fmt.Sprintf("call %d: person %d floor %d -> %d", e.CallID, e.PersonID, e.Origin.Value(), e.Destination.Value())
		rec.Payload = CallRequestedPayload{
			CallID:      e.CallID,
			PersonID:    e.PersonID,
			Origin:      e.Origin.Value(),
			Destination: e.Destination.Value(),
			Direction:   directionTag(e.Direction),
		}
	case domain.CallAssigned:
		rec.Type = TypeCallAssigned
		rec.Message = fmt.Sprintf("call %d assigned to vehicle %d", e.CallID, e.VehicleID)
		rec.Payload = CallAssignedPayload{CallID: e.CallID, VehicleID: e.VehicleID, EstimatedPickupT: JSONFloat(e.EstimatedPickupT)}
	case domain.ElevatorArrived:
		rec.Type = TypeElevatorArrived
		rec.Message = fmt.Sprintf("vehicle %d arrived at floor %d", e.VehicleID, e.Floor.Value())
		rec.Payload = VehicleAtFloorPayload{VehicleID: e.VehicleID, Floor: e.Floor.Value()}
	case domain.DoorsOpened:
		rec.Type = TypeDoorsOpened
		rec.Message = fmt.Sprintf("vehicle %d doors opened at floor %d", e.VehicleID, e.Floor.Value())
		rec.Payload = VehicleAtFloorPayload{VehicleID: e.VehicleID, Floor: e.Floor.Value()}
	case domain.DoorsClosed:
		rec.Type = TypeDoorsClosed
		rec.Message = fmt.Sprintf("vehicle %d doors closed at floor %d", e.VehicleID, e.Floor.Value())
		rec.Payload = VehicleAtFloorPayload{VehicleID: e.VehicleID, Floor: e.Floor.Value()}
	case domain.PersonBoarded:
		rec.Type = TypePersonBoarded
		rec.Message = fmt.Sprintf("person %d boarded vehicle %d at floor %d", e.PersonID, e.VehicleID, e.Floor.Value())
		rec.Payload = PersonTransferPayload{
			PersonID: e.PersonID, CallID: e.CallID, VehicleID: e.VehicleID,
			Floor: e.Floor.Value(), VehicleOccupantCountAfter: e.VehicleOccupantCountAfter,
		}
	case domain.PersonAlighted:
		rec.Type = TypePersonAlighted
		rec.Message = fmt.Sprintf("person %d alighted vehicle %d at floor %d", e.PersonID, e.VehicleID, e.Floor.Value())
		rec.Payload = PersonTransferPayload{
			PersonID: e.PersonID, CallID: e.CallID, VehicleID: e.VehicleID,
			Floor: e.Floor.Value(), VehicleOccupantCountAfter: e.VehicleOccupantCountAfter,
		}
	case domain.CapacityHit:
		rec.Type = TypeCapacityHit
		rec.Message = fmt.Sprintf("vehicle %d at capacity at floor %d, call %d re-queued", e.VehicleID, e.Floor.Value(), e.CallID)
		rec.Payload = CapacityHitPayload{
			CallID: e.CallID, PersonID: e.PersonID, VehicleID: e.VehicleID,
			Floor: e.Floor.Value(), VehicleOccupantCount: e.VehicleOccupantCount, VehicleCapacity: e.VehicleCapacity,
		}
	case domain.VehicleStateChanged:
		rec.Type = TypeVehicleStateChanged
		rec.Message = fmt.Sprintf("vehicle %d: %s -> %s", e.VehicleID, e.From, e.To)
		rec.Payload = VehicleStateChangedPayload{VehicleID: e.VehicleID, From: string(e.From), To: string(e.To)}
	case domain.QueueSizeChanged:
		rec.Type = TypeQueueSizeChanged
		rec.Message = fmt.Sprintf("floor %d %s queue now %d", e.Floor.Value(), directionTag(e.Direction), e.NewQueueSize)
		rec.Payload = QueueSizeChangedPayload{Floor: e.Floor.Value(), Direction: directionTag(e.Direction), NewQueueSize: e.NewQueueSize}
	}

	return rec
}

// SnapshotRecord is one line of the snapshots stream.
type SnapshotRecord struct {
	RunID     int                      `json:"RunId"`
	Tick      int64                    `json:"Tick"`
	T         float64                  `json:"T"`
	Elevators []ElevatorSnapshotRecord `json:"Elevators"`
	Floors    []FloorSnapshotRecord    `json:"Floors"`
}

// ElevatorSnapshotRecord is one vehicle inside a snapshot record.
type ElevatorSnapshotRecord struct {
	VehicleID       int     `json:"VehicleId"`
	PositionFloor   float64 `json:"PositionFloor"`
	CurrentFloor    int     `json:"CurrentFloor"`
	TargetFloor     *int    `json:"TargetFloor"`
	Direction       string  `json:"Direction"`
	State           string  `json:"State"`
	Capacity        int     `json:"Capacity"`
	OccupantCount   int     `json:"OccupantCount"`
	StopQueueFloors []int   `json:"StopQueueFloors"`
}

// FloorSnapshotRecord is one floor inside a snapshot record.
type FloorSnapshotRecord struct {
	Floor                   int `json:"Floor"`
	WaitingUp               int `json:"WaitingUp"`
	WaitingDown             int `json:"WaitingDown"`
	CurrentOccupantsOnFloor int `json:"CurrentOccupantsOnFloor"`
}

// SnapshotRecordFrom adapts an assembled tick snapshot into the wire
// shape. The snapshot's sequences are already fresh copies, so the
// record can alias them safely.
func SnapshotRecordFrom(t snapshot.Tick) SnapshotRecord {
	elevators := make([]ElevatorSnapshotRecord, len(t.Elevators))
	for i, e := range t.Elevators {
		elevators[i] = ElevatorSnapshotRecord{
			VehicleID:       e.VehicleID,
			PositionFloor:   e.PositionFloor,
			CurrentFloor:    e.CurrentFloor,
			TargetFloor:     e.TargetFloor,
			Direction:       directionTag(e.Direction),
			State:           string(e.State),
			Capacity:        e.Capacity,
			OccupantCount:   e.OccupantCount,
			StopQueueFloors: e.StopQueueFloors,
		}
	}
	floors := make([]FloorSnapshotRecord, len(t.Floors))
	for i, f := range t.Floors {
		floors[i] = FloorSnapshotRecord{
			Floor:                   f.Floor,
			WaitingUp:               f.WaitingUp,
			WaitingDown:             f.WaitingDown,
			CurrentOccupantsOnFloor: f.CurrentOccupantsOnFloor,
		}
	}
	return SnapshotRecord{RunID: t.RunID, Tick: t.TickNum, T: t.T, Elevators: elevators, Floors: floors}
}
