// Package simulation wires the building, fleet, controllers, snapshot
// assembler, and publication pipeline into the fixed-step engine. Each
// tick runs strictly in order on one goroutine: passenger arrivals,
// controller assignment and stepping, vehicle mechanics, snapshot
// assembly. Only the publication pipeline runs on background goroutines,
// consuming value-typed records copied at the boundary.
package simulation

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/arclight-sim/elevator-traffic-sim/internal/building"
	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/internal/controller"
	"github.com/arclight-sim/elevator-traffic-sim/internal/dispatch"
	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
	"github.com/arclight-sim/elevator-traffic-sim/internal/eventbus"
	"github.com/arclight-sim/elevator-traffic-sim/internal/infra/config"
	"github.com/arclight-sim/elevator-traffic-sim/internal/infra/logging"
	"github.com/arclight-sim/elevator-traffic-sim/internal/passenger"
	"github.com/arclight-sim/elevator-traffic-sim/internal/publish"
	"github.com/arclight-sim/elevator-traffic-sim/internal/snapshot"
	"github.com/arclight-sim/elevator-traffic-sim/internal/stats"
	"github.com/arclight-sim/elevator-traffic-sim/internal/vehicle"
	"github.com/arclight-sim/elevator-traffic-sim/metrics"
)

// Engine owns one simulation run end to end.
type Engine struct {
	cfg   *config.SimConfig
	runID int

	building   *building.Building
	vehicles   []*vehicle.Vehicle
	bus        *eventbus.Bus
	controller *controller.Controller
	passengers *passenger.Controller
	aggregator *stats.Aggregator
	assembler  *snapshot.Assembler

	sink      publish.Sink
	batcher   *publish.Batcher
	coalescer *publish.Coalescer

	logger *slog.Logger

	seq  int64
	tick int64
}

// New constructs an engine for one run. The sink is owned by the engine
// from here on; Run closes it.
func New(cfg *config.SimConfig, runID int, sink publish.Sink) (*Engine, error) {
	logging.InitLogger(cfg.LogLevel)

	b, err := building.New(cfg.FloorCount)
	if err != nil {
		return nil, err
	}

	vehicles := make([]*vehicle.Vehicle, 0, cfg.ElevatorCount)
	for i := 1; i <= cfg.ElevatorCount; i++ {
		v, err := vehicle.New(i, cfg.VehicleCapacity, domain.NewFloor(0))
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}

	bus := eventbus.New()
	policy := dispatch.NewCooldown(dispatch.NewBasic(), cfg.CooldownSeconds)
	ctrl := controller.New(b, vehicles, policy, bus)
	aggregator := stats.New(bus, cfg.WaitTargetSeconds)
	passengers := passenger.New(b, ctrl, bus, cfg.RandomSeed)
	assembler := snapshot.New(runID, b, vehicles, ctrl.StopQueueFloors)

	e := &Engine{
		cfg:        cfg,
		runID:      runID,
		building:   b,
		vehicles:   vehicles,
		bus:        bus,
		controller: ctrl,
		passengers: passengers,
		aggregator: aggregator,
		assembler:  assembler,
		sink:       sink,
		batcher:    publish.NewBatcher(sink, cfg.EventChannelCapacity, cfg.EventMaxBatch, cfg.EventFlushInterval),
		coalescer:  publish.NewCoalescer(sink, cfg.SnapshotWallPeriod),
		logger: slog.With(
			slog.String("component", constants.ComponentSimulation),
			slog.Int("run_id", runID)),
	}
	e.coalescer.SetWallThrottle(cfg.SnapshotWallThrottle)

	// The adapter is the only sequence-number producer; it always runs on
	// the simulation goroutine, so sequences are strictly monotonic and
	// delivered to the sink in order.
	bus.Subscribe(e.record)

	return e, nil
}

// Stats returns the run's wait/ride aggregator for post-run reporting.
func (e *Engine) Stats() *stats.Aggregator {
	return e.aggregator
}

func (e *Engine) record(event domain.Event) {
	e.seq++
	e.batcher.Publish(publish.RecordFromEvent(e.runID, e.seq, event))
}

// Run executes the configured number of ticks, then drains and closes
// the publication pipeline and the sink. Cancelling ctx stops the run
// early at the next tick boundary; the records already produced are
// still flushed.
func (e *Engine) Run(ctx context.Context) error {
	pipeCtx, stopPipeline := context.WithCancel(context.Background())
	e.batcher.Start(pipeCtx)
	e.coalescer.Start(pipeCtx)

	dt := e.cfg.DT()
	horizon := e.cfg.PlannedDurationSeconds
	steps := int(math.Round(e.cfg.PlannedDurationSeconds / dt))
	t := e.cfg.SimStartOfDaySeconds

	e.logger.Info("run starting",
		slog.Int("floors", e.cfg.FloorCount),
		slog.Int("elevators", e.cfg.ElevatorCount),
		slog.Int64("seed", e.cfg.RandomSeed),
		slog.Float64("duration_s", e.cfg.PlannedDurationSeconds))

	e.bus.Publish(domain.RunStarted{
		EventBase:              domain.EventBase{T: t, Source: constants.ComponentSimulation},
		FloorCount:             e.cfg.FloorCount,
		ElevatorCount:          e.cfg.ElevatorCount,
		RandomSeed:             e.cfg.RandomSeed,
		PlannedDurationSeconds: e.cfg.PlannedDurationSeconds,
		ScenarioName:           e.cfg.ScenarioName,
		ContractVersion:        constants.ContractVersion,
	})

	for i := 0; i < steps; i++ {
		if ctx.Err() != nil {
			e.logger.Warn("run cancelled", slog.Int64("tick", e.tick))
			break
		}

		t += dt
		e.passengers.Tick(t, horizon)
		ctrlStart := time.Now()
		e.controller.Tick(t)
		metrics.ObserveAssignmentDuration(time.Since(ctrlStart).Seconds())
		for _, v := range e.vehicles {
			v.Update(dt, e.cfg.FloorSpeed)
		}

		e.tick++
		snap := e.assembler.Build(e.tick, t)
		e.coalescer.Offer(publish.SnapshotRecordFrom(snap))
	}

	e.bus.Publish(domain.RunEnded{
		EventBase:           domain.EventBase{T: t, Source: constants.ComponentSimulation},
		TotalPeople:         e.passengers.TotalSpawned(),
		TotalCallsCompleted: e.passengers.CallsCompleted(),
	})

	e.logger.Info("run ended",
		slog.Int64("ticks", e.tick),
		slog.Int("people", e.passengers.TotalSpawned()),
		slog.Int("calls_completed", e.passengers.CallsCompleted()))

	stopPipeline()
	e.batcher.Stop()
	e.coalescer.Stop()
	e.passengers.Close()
	e.aggregator.Close()

	return e.sink.Close()
}
