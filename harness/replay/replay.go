// Package replay records the scheduler's per-event trace (spec.md §4.1's
// TraceHook) into an append-only badger store, scoped to one run's scratch
// inspection log rather than cross-run persisted simulation state (the
// non-goal "no persistence of simulation state across runs" — see
// SPEC_FULL.md's domain-stack table). Grounded on
// std/object/storage.BadgerStore: open against a directory, write inside
// db.Update, read back with a key-ordered iterator.
package replay

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/antswarm/antndn/sim/engine"
	stdio "github.com/antswarm/antndn/std/utils/io"
)

// Event is one recorded (time, priority, label) trace point, keyed by the
// scheduler's monotonically increasing event sequence number.
type Event struct {
	Seq   uint64
	Time  float64
	Prio  int64
	Label string
}

// Recorder is a badger-backed sink for one run's event trace, opened
// against a fresh temporary directory that Close removes, so nothing
// outlives the run.
type Recorder struct {
	db      *badger.DB
	dir     string
	console *stdio.TimedWriter
}

// NewRecorder opens a Recorder backed by a fresh temp directory.
func NewRecorder() (*Recorder, error) {
	dir, err := os.MkdirTemp("", "antndn-replay-*")
	if err != nil {
		return nil, fmt.Errorf("replay: mkdir temp: %w", err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("replay: open: %w", err)
	}
	return &Recorder{db: db, dir: dir}, nil
}

// SetConsole tees every recorded event as a human-readable line to w,
// buffered and flushed on a deadline rather than once per event (the same
// batched-write shape as std/utils/io.TimedWriter). Intended for a verbose
// CLI flag watching a live run; the badger store remains the source of
// truth read back by Events.
func (r *Recorder) SetConsole(w io.Writer) {
	r.console = stdio.NewTimedWriter(w, 4096)
}

// Hook returns an engine.TraceHook that appends every non-timeout event to
// the store, wired with (*engine.Engine).SetTrace.
func (r *Recorder) Hook() engine.TraceHook {
	return func(t float64, prio int64, seq uint64, label string) {
		key := seqKey(seq)
		value := encodeEvent(t, prio, label)
		_ = r.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, value)
		})
		if r.console != nil {
			fmt.Fprintf(r.console, "%s [%d] %s\n", strconv.FormatFloat(t, 'g', -1, 64), prio, label)
		}
	}
}

// Events reads back every recorded event in sequence order.
func (r *Recorder) Events() ([]Event, error) {
	var events []Event
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			seq := binary.BigEndian.Uint64(item.KeyCopy(nil))
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			ev, err := decodeEvent(seq, val)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replay: read events: %w", err)
	}
	return events, nil
}

// Close releases the badger handle and removes the temp directory backing
// it, since this store is scratch state for one run's inspection, not
// anything meant to persist across runs.
func (r *Recorder) Close() error {
	if r.console != nil {
		_ = r.console.Flush()
	}
	err := r.db.Close()
	os.RemoveAll(r.dir)
	return err
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// encodeEvent packs an event as "time|prio|label"; labels never contain a
// literal "|" since they are always constructed from link/event names that
// themselves come from topology/config identifiers.
func encodeEvent(t float64, prio int64, label string) []byte {
	return []byte(fmt.Sprintf("%s|%d|%s", strconv.FormatFloat(t, 'g', -1, 64), prio, label))
}

func decodeEvent(seq uint64, raw []byte) (Event, error) {
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return Event{}, fmt.Errorf("replay: malformed event record %q", raw)
	}
	t, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Event{}, fmt.Errorf("replay: bad time %q: %w", parts[0], err)
	}
	prio, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("replay: bad priority %q: %w", parts[1], err)
	}
	return Event{Seq: seq, Time: t, Prio: prio, Label: parts[2]}, nil
}
