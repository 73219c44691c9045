package simulation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-sim/elevator-traffic-sim/internal/infra/config"
	"github.com/arclight-sim/elevator-traffic-sim/internal/publish"
)

type captureSink struct {
	mu        sync.Mutex
	events    []publish.EventRecord
	snapshots []publish.SnapshotRecord
}

func (s *captureSink) WriteEvents(batch []publish.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *captureSink) WriteSnapshot(rec publish.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, rec)
	return nil
}

func (s *captureSink) Close() error { return nil }

func testConfig() *config.SimConfig {
	return &config.SimConfig{
		FloorCount:             10,
		ElevatorCount:          2,
		VehicleCapacity:        8,
		RandomSeed:             12345,
		PlannedDurationSeconds: 600,
		SimStartOfDaySeconds:   8 * 3600,
		TickInterval:           200 * time.Millisecond,
		FloorSpeed:             1.0,
		CooldownSeconds:        3.0,
		WaitTargetSeconds:      60,
		EventChannelCapacity:   10000,
		EventMaxBatch:          512,
		EventFlushInterval:     5 * time.Millisecond,
		SnapshotWallPeriod:     10 * time.Millisecond,
		ScenarioName:           "engine-test",
	}
}

func runOnce(t *testing.T, cfg *config.SimConfig) *captureSink {
	sink := &captureSink{}
	engine, err := New(cfg, 1, sink)
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))
	return sink
}

func TestRunProducesFramedEventStream(t *testing.T) {
	sink := runOnce(t, testConfig())

	require.NotEmpty(t, sink.events)
	assert.Equal(t, publish.TypeRunStarted, sink.events[0].Type)
	assert.Equal(t, publish.TypeRunEnded, sink.events[len(sink.events)-1].Type)

	for i, rec := range sink.events {
		assert.Equal(t, int64(i+1), rec.Sequence, "sequence numbers are contiguous from 1")
		assert.Equal(t, 1, rec.RunID)
	}
}

func TestRunIsDeterministicUnderFixedSeed(t *testing.T) {
	a := runOnce(t, testConfig())
	b := runOnce(t, testConfig())

	require.Equal(t, len(a.events), len(b.events))

	// Compare the serialized form: NaN estimated-pickup values defeat a
	// reflect-based equality, and the wire bytes are the real contract.
	aj, err := json.Marshal(a.events)
	require.NoError(t, err)
	bj, err := json.Marshal(b.events)
	require.NoError(t, err)
	assert.Equal(t, string(aj), string(bj), "identical seeds must produce identical event streams")
}

func TestSnapshotsAreMonotone(t *testing.T) {
	sink := runOnce(t, testConfig())

	require.NotEmpty(t, sink.snapshots)
	for i := 1; i < len(sink.snapshots); i++ {
		assert.Greater(t, sink.snapshots[i].Tick, sink.snapshots[i-1].Tick)
		assert.GreaterOrEqual(t, sink.snapshots[i].T, sink.snapshots[i-1].T)
	}
}

func TestOccupantsNeverExceedCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.VehicleCapacity = 2 // force capacity pressure during the peak
	sink := runOnce(t, cfg)

	for _, snap := range sink.snapshots {
		for _, e := range snap.Elevators {
			assert.GreaterOrEqual(t, e.OccupantCount, 0)
			assert.LessOrEqual(t, e.OccupantCount, e.Capacity)
		}
	}
}

// Every alighted call has exactly one boarding before it, board time at
// or after request time, alight at or after board.
func TestCallRoundTrips(t *testing.T) {
	sink := runOnce(t, testConfig())

	requestT := map[int]float64{}
	boardT := map[int]float64{}
	boardCount := map[int]int{}
	for _, rec := range sink.events {
		switch rec.Type {
		case publish.TypeCallRequested:
			p := rec.Payload.(publish.CallRequestedPayload)
			requestT[p.CallID] = rec.T
		case publish.TypePersonBoarded:
			p := rec.Payload.(publish.PersonTransferPayload)
			boardT[p.CallID] = rec.T
			boardCount[p.CallID]++
		case publish.TypePersonAlighted:
			p := rec.Payload.(publish.PersonTransferPayload)
			require.Equal(t, 1, boardCount[p.CallID], "call %d must board exactly once before alighting", p.CallID)
			assert.GreaterOrEqual(t, boardT[p.CallID], requestT[p.CallID])
			assert.GreaterOrEqual(t, rec.T, boardT[p.CallID])
		}
	}
}

func TestCancelledRunStillFlushes(t *testing.T) {
	cfg := testConfig()
	sink := &captureSink{}
	engine, err := New(cfg, 1, sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, engine.Run(ctx))

	// RunStarted and RunEnded still frame whatever was produced.
	require.NotEmpty(t, sink.events)
	assert.Equal(t, publish.TypeRunStarted, sink.events[0].Type)
	assert.Equal(t, publish.TypeRunEnded, sink.events[len(sink.events)-1].Type)
}
