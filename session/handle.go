package session

import (
	"encoding/json"
	"sync/atomic"

	"padtrace/debug"
)

// Recording is the handle for an active session. It is returned by
// Store.StartSession and threaded through every record call, so there is no
// shared mutable "current session" the writers reach for implicitly.
//
// Record methods are safe for concurrent use from hardware callbacks. Once
// the recording has ended (or been detached by a newer StartSession) they
// log a warning and drop the write instead of failing - callback goroutines
// must not crash on benign misordering.
type Recording struct {
	store    *Store
	id       int64
	start    float64 // unix seconds at t0
	detached atomic.Bool
}

// SessionID returns the persisted session id.
func (r *Recording) SessionID() int64 {
	return r.id
}

// StartTime returns t0 as unix seconds.
func (r *Recording) StartTime() float64 {
	return r.start
}

// Active reports whether record calls still persist rows.
func (r *Recording) Active() bool {
	return !r.detached.Load()
}

// RecordPress appends a button press event. The metadata map, if non-nil,
// is stored as a JSON blob.
func (r *Recording) RecordPress(x, y int, noteName string, frequency float64,
	audioFile string, metadata map[string]any) error {

	if r.detached.Load() {
		debug.Warn("record", "dropping %s at (%d,%d): no active session", EventPress, x, y)
		return nil
	}
	return r.store.insertEvent(r, EventPress, x, y, noteName, frequency, audioFile, marshalMeta(metadata))
}

// RecordRelease appends a button release event.
func (r *Recording) RecordRelease(x, y int, noteName string, metadata map[string]any) error {
	if r.detached.Load() {
		debug.Warn("record", "dropping %s at (%d,%d): no active session", EventRelease, x, y)
		return nil
	}
	return r.store.insertEvent(r, EventRelease, x, y, noteName, 0, "", marshalMeta(metadata))
}

// RecordLEDChange appends a grid-cell color change.
func (r *Recording) RecordLEDChange(x, y int, color [3]uint8) error {
	if r.detached.Load() {
		debug.Warn("record", "dropping led change at (%d,%d): no active session", x, y)
		return nil
	}
	return r.store.insertLEDChange(r, x, y, color)
}

// End finalizes the session: stamps end_time, computes duration and
// total_events, and synchronously runs pattern detection. Further record
// calls on this handle are dropped.
func (r *Recording) End() error {
	if r.detached.Swap(true) {
		debug.Warn("record", "no active session to end")
		return nil
	}
	return r.store.endSession(r)
}

func marshalMeta(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		debug.Warn("record", "metadata not serializable: %v", err)
		return ""
	}
	return string(data)
}
