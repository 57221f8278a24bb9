package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detect(t *testing.T, store *Store, id int64) []Pattern {
	t.Helper()
	require.NoError(t, store.DetectPatterns(id))
	patterns, err := store.SessionPatterns(id)
	require.NoError(t, err)
	return patterns
}

func TestDetectRapidSequenceAndLongPause(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "default")
	id := rec.SessionID()

	// Four presses inside 0.3s gaps, then one 9.8s later.
	for i, rel := range []float64{0, 0.1, 0.15, 0.2, 10} {
		insertPress(t, store, id, rel, i, 1)
	}

	patterns := detect(t, store, id)
	require.Len(t, patterns, 2)

	byType := map[string]Pattern{}
	for _, p := range patterns {
		byType[p.Type] = p
	}

	rapid, ok := byType[PatternRapidSequence]
	require.True(t, ok, "expected a rapid sequence")
	assert.InDelta(t, 0.0, rapid.StartTime, 1e-9)
	assert.InDelta(t, 0.2, rapid.EndTime, 1e-9)
	assert.Equal(t, "Rapid sequence of 4 notes", rapid.Description)

	pause, ok := byType[PatternLongPause]
	require.True(t, ok, "expected a long pause")
	assert.InDelta(t, 0.2, pause.StartTime, 1e-9)
	assert.InDelta(t, 10.0, pause.EndTime, 1e-9)
	assert.Contains(t, pause.Description, "9.8s")
}

func TestDetectRepeatedSequence(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "default")
	id := rec.SessionID()

	// (0,0)(1,1)(2,2) repeats after a spacer press. Presses are 1s apart
	// so neither rapid runs nor long pauses fire.
	cells := [][2]int{{0, 0}, {1, 1}, {2, 2}, {5, 5}, {0, 0}, {1, 1}, {2, 2}}
	for i, c := range cells {
		insertPress(t, store, id, float64(i), c[0], c[1])
	}

	patterns := detect(t, store, id)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, PatternRepeatedSequence, p.Type)
	assert.InDelta(t, 0.0, p.StartTime, 1e-9) // first press of the original window
	assert.InDelta(t, 6.0, p.EndTime, 1e-9)   // last press of the repetition

	var meta struct {
		Positions []position `json:"positions"`
		Matched   []position `json:"matched_positions"`
	}
	require.NoError(t, json.Unmarshal([]byte(p.Metadata), &meta))
	want := []position{{0, 0}, {1, 1}, {2, 2}}
	assert.Equal(t, want, meta.Positions)
	assert.Equal(t, want, meta.Matched)
}

func TestDetectTooFewPresses(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "default")
	id := rec.SessionID()

	insertPress(t, store, id, 0, 0, 1)
	insertPress(t, store, id, 0.1, 1, 1)

	assert.Empty(t, detect(t, store, id))
}

func TestDetectIgnoresReleases(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "default")
	id := rec.SessionID()

	// Press/release pairs: only the presses may form runs.
	for i, rel := range []float64{0, 0.1, 0.2} {
		insertPress(t, store, id, rel, i, 1)
		_, err := store.db.Exec(`
			INSERT INTO events (session_id, timestamp, relative_time, event_type, x, y)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, rel+0.05, rel+0.05, EventRelease, i, 1)
		require.NoError(t, err)
	}

	patterns := detect(t, store, id)
	require.Len(t, patterns, 1)
	assert.Equal(t, PatternRapidSequence, patterns[0].Type)
	assert.Equal(t, "Rapid sequence of 3 notes", patterns[0].Description)
}

func TestDetectRerunReplacesPatterns(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "default")
	id := rec.SessionID()

	for i, rel := range []float64{0, 0.1, 0.2} {
		insertPress(t, store, id, rel, i, 1)
	}

	first := detect(t, store, id)
	second := detect(t, store, id)
	assert.Len(t, second, len(first), "rerun must replace, not accumulate")
}

func TestDetectSplitRuns(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "default")
	id := rec.SessionID()

	// Two rapid runs separated by a 1s gap (below the long-pause bar).
	for i, rel := range []float64{0, 0.1, 0.2, 1.2, 1.3, 1.4} {
		insertPress(t, store, id, rel, i, 1)
	}

	patterns := detect(t, store, id)

	var rapids []Pattern
	for _, p := range patterns {
		if p.Type == PatternRapidSequence {
			rapids = append(rapids, p)
		}
	}
	require.Len(t, rapids, 2)
	assert.InDelta(t, 0.0, rapids[0].StartTime, 1e-9)
	assert.InDelta(t, 0.2, rapids[0].EndTime, 1e-9)
	assert.InDelta(t, 1.2, rapids[1].StartTime, 1e-9)
	assert.InDelta(t, 1.4, rapids[1].EndTime, 1e-9)
}

func TestEndRunsDetection(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "default")
	id := rec.SessionID()

	// Rows inserted behind the handle still belong to the session, so
	// End picks them up.
	for i, rel := range []float64{0, 0.1, 0.2} {
		insertPress(t, store, id, rel, i, 1)
	}
	require.NoError(t, rec.End())

	patterns, err := store.SessionPatterns(id)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, PatternRapidSequence, patterns[0].Type)
}
