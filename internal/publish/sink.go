package publish

// Sink consumes flushed event batches and coalesced snapshots. Write
// errors are swallowed by the pipeline after logging and counting; a
// sink never gets to stall the simulation.
type Sink interface {
	WriteEvents(batch []EventRecord) error
	WriteSnapshot(rec SnapshotRecord) error
	Close() error
}
