package publish

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/metrics"
)

const snapshotsStream = "snapshots"

// Coalescer is the lossy snapshot stage: a capacity-1 queue with a
// drop-oldest policy, so offering never blocks the simulation thread and
// only the most recent snapshot between two consumer wakeups is ever
// published. In fast mode the consumer publishes as soon as a snapshot
// arrives; with the wall throttle on it wakes on a wall-clock period
// instead. The throttle can be flipped at runtime.
type Coalescer struct {
	ch        chan SnapshotRecord
	sink      Sink
	breaker   *CircuitBreaker
	throttled atomic.Bool
	period    time.Duration
	logger    *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewCoalescer constructs a Coalescer over sink. period is the wall
// throttle wakeup interval; non-positive falls back to 250ms.
func NewCoalescer(sink Sink, period time.Duration) *Coalescer {
	if period <= 0 {
		period = 250 * time.Millisecond
	}
	return &Coalescer{
		ch:      make(chan SnapshotRecord, 1),
		sink:    sink,
		breaker: NewCircuitBreaker(5, 2*time.Second, 2),
		period:  period,
		logger:  slog.With(slog.String("component", constants.ComponentPublish), slog.String("stream", snapshotsStream)),
		done:    make(chan struct{}),
	}
}

// SetWallThrottle flips the consumer between fast mode and wall-period
// mode. Takes effect on the consumer's next wakeup.
func (c *Coalescer) SetWallThrottle(on bool) {
	c.throttled.Store(on)
}

// Offer enqueues a snapshot without ever blocking: if the slot is
// occupied, the older snapshot is dropped in favor of the new one.
func (c *Coalescer) Offer(rec SnapshotRecord) {
	for {
		select {
		case c.ch <- rec:
			return
		default:
			select {
			case <-c.ch:
				metrics.IncDrops(snapshotsStream)
			default:
			}
		}
	}
}

// Start launches the consumer goroutine. Safe to call once.
func (c *Coalescer) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go c.run(ctx)
	})
}

// Stop waits for the consumer to observe cancellation and publish the
// most recent remaining snapshot best-effort. The caller must have
// cancelled the context passed to Start first.
func (c *Coalescer) Stop() {
	c.stopOnce.Do(func() {
		<-c.done
	})
}

func (c *Coalescer) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		if c.throttled.Load() {
			select {
			case <-ctx.Done():
				c.publishLatest()
				return
			case <-ticker.C:
				c.publishLatest()
			}
			continue
		}

		select {
		case <-ctx.Done():
			c.publishLatest()
			return
		case rec := <-c.ch:
			rec = c.drainToLatest(rec)
			c.publish(rec)
		case <-ticker.C:
			// Wakeup to re-check the throttle flag.
		}
	}
}

// drainToLatest keeps only the newest snapshot of any that arrived while
// the consumer was busy.
func (c *Coalescer) drainToLatest(rec SnapshotRecord) SnapshotRecord {
	for {
		select {
		case newer := <-c.ch:
			metrics.IncDrops(snapshotsStream)
			rec = newer
		default:
			return rec
		}
	}
}

// publishLatest publishes the queued snapshot, if any.
func (c *Coalescer) publishLatest() {
	select {
	case rec := <-c.ch:
		c.publish(c.drainToLatest(rec))
	default:
	}
}

func (c *Coalescer) publish(rec SnapshotRecord) {
	start := time.Now()
	err := c.breaker.Execute(func() error {
		return c.sink.WriteSnapshot(rec)
	})
	metrics.ObserveFlushDuration(snapshotsStream, time.Since(start).Seconds())

	if err != nil {
		metrics.IncSinkErrors(snapshotsStream)
		c.logger.Warn("snapshot publish failed, snapshot dropped",
			slog.Int64("tick", rec.Tick),
			slog.String("error", err.Error()))
	}
}
