package publish

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

// memorySink records everything flushed to it.
type memorySink struct {
	mu        sync.Mutex
	events    []EventRecord
	snapshots []SnapshotRecord
	eventsErr error
}

func (m *memorySink) WriteEvents(batch []EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eventsErr != nil {
		return m.eventsErr
	}
	m.events = append(m.events, batch...)
	return nil
}

func (m *memorySink) WriteSnapshot(rec SnapshotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, rec)
	return nil
}

func (m *memorySink) Close() error { return nil }

func (m *memorySink) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *memorySink) snapshotCopy() []SnapshotRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]SnapshotRecord, len(m.snapshots))
	copy(cp, m.snapshots)
	return cp
}

// Ten thousand records pushed through the batcher arrive in order with
// contiguous sequence numbers, none dropped.
func TestBatcherDeliversAllRecordsInOrder(t *testing.T) {
	sink := &memorySink{}
	b := NewBatcher(sink, 1000, 128, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	b.Start(ctx)

	const total = 10000
	for i := 1; i <= total; i++ {
		b.Publish(EventRecord{RunID: 1, Sequence: int64(i), Type: TypeQueueSizeChanged})
	}

	cancel()
	b.Stop()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, total)
	for i, rec := range sink.events {
		assert.Equal(t, int64(i+1), rec.Sequence)
	}
}

func TestBatcherSinkErrorsAreSwallowed(t *testing.T) {
	sink := &memorySink{eventsErr: errors.New("disk full")}
	b := NewBatcher(sink, 16, 8, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	b.Start(ctx)

	// Publish must not block or panic even though every flush fails.
	for i := 1; i <= 10; i++ {
		b.Publish(EventRecord{Sequence: int64(i)})
	}

	cancel()
	b.Stop()
	assert.Equal(t, 0, sink.eventCount())
}

func TestCoalescerOfferNeverBlocksAndKeepsLatest(t *testing.T) {
	sink := &memorySink{}
	c := NewCoalescer(sink, 10*time.Millisecond)

	// No consumer running: offering many snapshots must not block, and
	// only the newest survives in the slot.
	for i := int64(1); i <= 100; i++ {
		c.Offer(SnapshotRecord{Tick: i})
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	c.Stop()

	snaps := sink.snapshotCopy()
	require.NotEmpty(t, snaps)
	assert.Equal(t, int64(100), snaps[len(snaps)-1].Tick)
}

// No older snapshot may be published after a newer one.
func TestCoalescerMonotoneTicks(t *testing.T) {
	sink := &memorySink{}
	c := NewCoalescer(sink, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	for i := int64(1); i <= 500; i++ {
		c.Offer(SnapshotRecord{Tick: i, T: float64(i)})
	}
	time.Sleep(50 * time.Millisecond)
	cancel()
	c.Stop()

	snaps := sink.snapshotCopy()
	require.NotEmpty(t, snaps)
	for i := 1; i < len(snaps); i++ {
		assert.Greater(t, snaps[i].Tick, snaps[i-1].Tick)
		assert.GreaterOrEqual(t, snaps[i].T, snaps[i-1].T)
	}
}

func TestCoalescerWallThrottleStillPublishes(t *testing.T) {
	sink := &memorySink{}
	c := NewCoalescer(sink, 5*time.Millisecond)
	c.SetWallThrottle(true)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.Offer(SnapshotRecord{Tick: 7})
	time.Sleep(30 * time.Millisecond)
	cancel()
	c.Stop()

	snaps := sink.snapshotCopy()
	require.NotEmpty(t, snaps)
	assert.Equal(t, int64(7), snaps[len(snaps)-1].Tick)
}

func TestNDJSONSinkWritesWellFormedLines(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewNDJSONSink(dir)
	require.NoError(t, err)

	batch := []EventRecord{
		RecordFromEvent(1, 1, domain.RunStarted{
			EventBase:  domain.EventBase{T: 0, Source: "driver"},
			FloorCount: 10, ElevatorCount: 2, RandomSeed: 42,
			ScenarioName: "test", ContractVersion: "1.0",
		}),
		RecordFromEvent(1, 2, domain.CallAssigned{
			EventBase: domain.EventBase{T: 0.2, Source: "controller"},
			CallID:    1, VehicleID: 1, EstimatedPickupT: math.NaN(),
		}),
	}
	require.NoError(t, sink.WriteEvents(batch))
	require.NoError(t, sink.WriteSnapshot(SnapshotRecord{RunID: 1, Tick: 1, T: 0.2}))
	require.NoError(t, sink.Close())

	f, err := os.Open(filepath.Join(dir, "events.ndjson"))
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var obj map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &obj), "every line must be a well-formed JSON object")
		assert.Contains(t, obj, "RunId")
		assert.Contains(t, obj, "Sequence")
	}
	assert.Equal(t, 2, lines)
}

// The assigned-event's estimated pickup time is unknown and travels as a
// quoted "NaN" so the line stays valid JSON.
func TestCallAssignedNaNMarshals(t *testing.T) {
	rec := RecordFromEvent(1, 1, domain.CallAssigned{
		EventBase: domain.EventBase{T: 0, Source: "controller"},
		CallID:    3, VehicleID: 2, EstimatedPickupT: math.NaN(),
	})
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"EstimatedPickupT":"NaN"`)
	assert.Contains(t, string(data), `"CallId":3`)
	assert.Contains(t, string(data), `"VehicleId":2`)
}

// Payload keys use the wire casing (CallId/PersonId/VehicleId), not Go's
// default field names.
func TestPayloadKeyCasing(t *testing.T) {
	boarded := RecordFromEvent(1, 1, domain.PersonBoarded{
		EventBase: domain.EventBase{T: 1, Source: "controller"},
		PersonID:  4, CallID: 5, VehicleID: 6, Floor: domain.NewFloor(2), VehicleOccupantCountAfter: 1,
	})
	data, err := json.Marshal(boarded)
	require.NoError(t, err)
	for _, key := range []string{`"PersonId":4`, `"CallId":5`, `"VehicleId":6`, `"VehicleOccupantCountAfter":1`} {
		assert.Contains(t, string(data), key)
	}
	assert.NotContains(t, string(data), `"PersonID"`)

	hit := RecordFromEvent(1, 2, domain.CapacityHit{
		EventBase: domain.EventBase{T: 1, Source: "controller"},
		CallID:    5, PersonID: 4, VehicleID: 6, Floor: domain.NewFloor(0),
		VehicleOccupantCount: 2, VehicleCapacity: 2,
	})
	data, err = json.Marshal(hit)
	require.NoError(t, err)
	for _, key := range []string{`"CallId":5`, `"PersonId":4`, `"VehicleId":6`, `"VehicleOccupantCount":2`, `"VehicleCapacity":2`} {
		assert.Contains(t, string(data), key)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(2, 10*time.Millisecond, 1)
	boom := errors.New("boom")

	require.Error(t, cb.Execute(func() error { return boom }))
	require.Error(t, cb.Execute(func() error { return boom }))

	// Open: the operation must not run.
	ran := false
	err := cb.Execute(func() error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, ran)

	// After the reset timeout a probe goes through and closes it again.
	time.Sleep(15 * time.Millisecond)
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
}
