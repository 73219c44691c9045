package publish

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/metrics"
)

const eventsStream = "events"

// Batcher is the no-drop event stage: a bounded multi-producer,
// single-consumer queue. Producers block when the queue is full — that
// blocking send is the backpressure contract. A single background
// goroutine waits for at least one record, drains more without blocking
// until the batch holds maxBatch records, flushes it through the sink, then idles up to
// flushInterval before looping. Sink errors are logged, counted, and
// dropped; they never reach a producer.
type Batcher struct {
	ch            chan EventRecord
	sink          Sink
	breaker       *CircuitBreaker
	maxBatch      int
	flushInterval time.Duration
	logger        *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewBatcher constructs a Batcher over sink. Non-positive tuning values
// fall back to the defaults.
func NewBatcher(sink Sink, channelCap, maxBatch int, flushInterval time.Duration) *Batcher {
	if channelCap <= 0 {
		channelCap = constants.DefaultChannelCapacity
	}
	if maxBatch <= 0 {
		maxBatch = constants.DefaultMaxBatch
	}
	if flushInterval <= 0 {
		flushInterval = constants.DefaultFlushInterval
	}
	return &Batcher{
		ch:            make(chan EventRecord, channelCap),
		sink:          sink,
		breaker:       NewCircuitBreaker(5, 2*time.Second, 2),
		maxBatch:      maxBatch,
		flushInterval: flushInterval,
		logger:        slog.With(slog.String("component", constants.ComponentPublish), slog.String("stream", eventsStream)),
		done:          make(chan struct{}),
	}
}

// Start launches the consumer goroutine. Safe to call once.
func (b *Batcher) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.run(ctx)
	})
}

// Publish enqueues a record, blocking while the queue is full.
func (b *Batcher) Publish(rec EventRecord) {
	b.ch <- rec
	metrics.SetQueueDepth(eventsStream, len(b.ch))
}

// Stop waits for the consumer to observe cancellation, drain, and flush.
// The caller must have cancelled the context passed to Start first.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		<-b.done
	})
}

func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.drainAndFlush()
			return
		case first := <-b.ch:
			batch := b.drainInto([]EventRecord{first})
			b.flush(batch)
		}

		select {
		case <-ctx.Done():
			b.drainAndFlush()
			return
		case <-time.After(b.flushInterval):
		}
	}
}

// drainInto pulls queued records without blocking, up to maxBatch total.
func (b *Batcher) drainInto(batch []EventRecord) []EventRecord {
	for len(batch) < b.maxBatch {
		select {
		case rec := <-b.ch:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
	return batch
}

// drainAndFlush empties the queue in maxBatch-sized chunks at shutdown.
func (b *Batcher) drainAndFlush() {
	for {
		var batch []EventRecord
		batch = b.drainInto(batch)
		if len(batch) == 0 {
			return
		}
		b.flush(batch)
	}
}

func (b *Batcher) flush(batch []EventRecord) {
	metrics.ObserveBatchSize(len(batch))
	metrics.SetQueueDepth(eventsStream, len(b.ch))

	start := time.Now()
	err := b.breaker.Execute(func() error {
		return b.sink.WriteEvents(batch)
	})
	metrics.ObserveFlushDuration(eventsStream, time.Since(start).Seconds())

	if err != nil {
		metrics.IncSinkErrors(eventsStream)
		b.logger.Warn("event flush failed, batch dropped",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()))
	}
}
