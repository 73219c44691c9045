package constants

import "time"

// Constants centralized in one location to avoid magic numbers scattered
// across the simulation packages.

// Door and service timing.
const (
	DoorOpenSeconds        = 1.0
	DoorCloseSeconds       = 1.0
	DwellSeconds           = DoorOpenSeconds + DoorCloseSeconds
	BoardSecondsPerPerson  = 1.0
	UnloadSecondsPerPerson = 0.5
)

// Dispatch defaults.
const (
	DefaultCooldownSeconds = 3.0
)

// Publication pipeline defaults.
const (
	DefaultChannelCapacity = 10000
	DefaultMaxBatch        = 512
	DefaultFlushInterval   = 100 * time.Millisecond
)

// Wait/ride statistics defaults.
const (
	DefaultWaitTargetSeconds = 60.0
)

// ContractVersion is stamped on RunStarted event payloads.
const ContractVersion = "1.0"

// Component names used as slog scoping attributes.
const (
	ComponentVehicle    = "vehicle"
	ComponentController = "controller"
	ComponentDispatch   = "dispatch"
	ComponentArrival    = "arrival"
	ComponentPassenger  = "passenger"
	ComponentEventBus   = "eventbus"
	ComponentSnapshot   = "snapshot"
	ComponentPublish    = "publish"
	ComponentMetrics    = "metrics"
	ComponentSimulation = "simulation"
)

// EpsilonFloor is the tolerance for a vehicle's continuous position
// reaching its target floor.
const EpsilonFloor = 1e-6

// MetricsNamespace prefixes every Prometheus metric emitted by this module.
const MetricsNamespace = "elevatorsim"
