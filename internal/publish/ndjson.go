package publish

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	eventsFileName    = "events.ndjson"
	snapshotsFileName = "snapshots.ndjson"
)

// NDJSONSink writes the two append-only line streams: events.ndjson and
// snapshots.ndjson, created fresh (truncated) per run. Each record is one
// JSON object per newline-terminated line. Events are flushed per batch,
// snapshots per record.
type NDJSONSink struct {
	events    *os.File
	snapshots *os.File
	eventsW   *bufio.Writer
	snapsW    *bufio.Writer
}

// NewNDJSONSink creates the output directory if needed and truncates both
// stream files.
func NewNDJSONSink(dir string) (*NDJSONSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	events, err := os.Create(filepath.Join(dir, eventsFileName))
	if err != nil {
		return nil, err
	}
	snapshots, err := os.Create(filepath.Join(dir, snapshotsFileName))
	if err != nil {
		events.Close()
		return nil, err
	}
	return &NDJSONSink{
		events:    events,
		snapshots: snapshots,
		eventsW:   bufio.NewWriter(events),
		snapsW:    bufio.NewWriter(snapshots),
	}, nil
}

// WriteEvents appends one line per record and flushes the batch.
func (s *NDJSONSink) WriteEvents(batch []EventRecord) error {
	for _, rec := range batch {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := s.eventsW.Write(line); err != nil {
			return err
		}
		if err := s.eventsW.WriteByte('\n'); err != nil {
			return err
		}
	}
	return s.eventsW.Flush()
}

// WriteSnapshot appends one line and flushes it.
func (s *NDJSONSink) WriteSnapshot(rec SnapshotRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := s.snapsW.Write(line); err != nil {
		return err
	}
	if err := s.snapsW.WriteByte('\n'); err != nil {
		return err
	}
	return s.snapsW.Flush()
}

// Close flushes and closes both streams.
func (s *NDJSONSink) Close() error {
	var firstErr error
	for _, flush := range []func() error{s.eventsW.Flush, s.snapsW.Flush, s.events.Close, s.snapshots.Close} {
		if err := flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
