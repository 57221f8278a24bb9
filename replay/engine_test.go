package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padtrace/session"
)

// fakeGrid records LED writes so tests can assert on playback output.
type fakeGrid struct {
	mu     sync.Mutex
	writes []gridWrite
	clears int
}

type gridWrite struct {
	x, y  int
	color [3]uint8
}

func (g *fakeGrid) SetCellColor(x, y int, color [3]uint8) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = append(g.writes, gridWrite{x, y, color})
	return nil
}

func (g *fakeGrid) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clears++
	return nil
}

func (g *fakeGrid) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.writes)
}

func (g *fakeGrid) snapshot() []gridWrite {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gridWrite(nil), g.writes...)
}

func openTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// importFixture loads a hand-built document, giving tests full control over
// relative times without sleeping through a real recording.
func importFixture(t *testing.T, store *session.Store, doc session.ExportDocument) int64 {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	id, err := store.ImportSession(path)
	require.NoError(t, err)
	return id
}

func ledFixture(t *testing.T, store *session.Store, rels []float64) int64 {
	t.Helper()
	end := rels[len(rels)-1]
	doc := session.ExportDocument{
		Session: &session.Session{
			StartTime:   0,
			EndTime:     &end,
			Duration:    end,
			UserProfile: "test",
		},
	}
	for i, rel := range rels {
		doc.LEDChanges = append(doc.LEDChanges, session.LEDChange{
			Timestamp:    rel,
			RelativeTime: rel,
			X:            i % 9,
			Y:            1,
			Color:        [3]uint8{0, 255, 0},
		})
	}
	return importFixture(t, store, doc)
}

func TestPlaySessionCompletes(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	id := ledFixture(t, store, []float64{0, 0.05, 0.1, 0.15, 0.2})

	require.NoError(t, engine.PlaySession(id, 1.0, true, false))
	engine.Wait()

	assert.Equal(t, StateComplete, engine.State())
	assert.Equal(t, 5, grid.writeCount())
	assert.GreaterOrEqual(t, grid.clears, 1, "grid cleared after playback")

	// Writes arrive in recorded order.
	writes := grid.snapshot()
	for i, w := range writes {
		assert.Equal(t, i%9, w.x)
	}
}

func TestPlaySessionSpeed(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	id := ledFixture(t, store, []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0})

	start := time.Now()
	require.NoError(t, engine.PlaySession(id, 4.0, true, false))
	engine.Wait()
	elapsed := time.Since(start)

	// 1.0s of recorded time at 4x is 0.25s of wall time.
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 700*time.Millisecond)
	assert.Equal(t, 6, grid.writeCount())
}

func TestPauseResume(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	id := ledFixture(t, store, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5})

	start := time.Now()
	require.NoError(t, engine.PlaySession(id, 1.0, true, false))

	time.Sleep(150 * time.Millisecond)
	engine.Pause()
	assert.Equal(t, StatePaused, engine.State())

	// Nothing advances while paused.
	time.Sleep(50 * time.Millisecond)
	frozen := grid.writeCount()
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, frozen, grid.writeCount())

	engine.Resume()
	engine.Wait()
	elapsed := time.Since(start)

	assert.Equal(t, StateComplete, engine.State())
	assert.Equal(t, 6, grid.writeCount(), "no items skipped across the pause")
	// Total duration grew by roughly the paused interval.
	assert.GreaterOrEqual(t, elapsed, 750*time.Millisecond)
}

func TestStopDuringPlayback(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	id := ledFixture(t, store, []float64{0, 30})

	require.NoError(t, engine.PlaySession(id, 1.0, true, false))
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	engine.Stop()
	assert.Less(t, time.Since(start), time.Second, "stop returns promptly")
	assert.Equal(t, StateStopped, engine.State())
	assert.GreaterOrEqual(t, grid.clears, 1)
	assert.Less(t, grid.writeCount(), 2, "far-future item never applied")
}

func TestPlayWhilePlayingIsNoop(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	id := ledFixture(t, store, []float64{0, 30})

	require.NoError(t, engine.PlaySession(id, 1.0, true, false))
	time.Sleep(50 * time.Millisecond)

	// Second play request is dropped without disturbing the first.
	require.NoError(t, engine.PlaySession(id, 2.0, true, false))
	assert.Equal(t, StatePlaying, engine.State())
	assert.InDelta(t, 1.0, engine.Speed(), 1e-9)

	engine.Stop()
}

func TestSetSpeedValidation(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, &fakeGrid{}, nil)

	assert.InDelta(t, 1.0, engine.Speed(), 1e-9)

	engine.SetSpeed(9.0)
	assert.InDelta(t, 1.0, engine.Speed(), 1e-9, "over max keeps prior")

	engine.SetSpeed(0.1)
	assert.InDelta(t, 1.0, engine.Speed(), 1e-9, "under min keeps prior")

	engine.SetSpeed(2.0)
	assert.InDelta(t, 2.0, engine.Speed(), 1e-9)

	engine.SetSpeed(MinSpeed)
	assert.InDelta(t, MinSpeed, engine.Speed(), 1e-9, "bounds are inclusive")
	engine.SetSpeed(MaxSpeed)
	assert.InDelta(t, MaxSpeed, engine.Speed(), 1e-9)
}

func TestPlaySessionInvalidSpeedKeepsPrior(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	id := ledFixture(t, store, []float64{0, 0.05})

	require.NoError(t, engine.PlaySession(id, 99.0, true, false))
	assert.InDelta(t, 1.0, engine.Speed(), 1e-9)
	engine.Wait()
	assert.Equal(t, StateComplete, engine.State())
}

func TestPlayMissingSession(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, &fakeGrid{}, nil)

	err := engine.PlaySession(424242, 1.0, true, false)
	require.Error(t, err)
	assert.Equal(t, StateIdle, engine.State())
}

func TestPlayEmptySession(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, &fakeGrid{}, nil)

	end := 0.0
	id := importFixture(t, store, session.ExportDocument{
		Session: &session.Session{UserProfile: "test", EndTime: &end},
	})

	require.NoError(t, engine.PlaySession(id, 1.0, true, false))
	assert.Equal(t, StateIdle, engine.State())
	engine.Wait() // returns immediately: nothing was started
}

func TestPatternHighlight(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	end := 0.2
	id := importFixture(t, store, session.ExportDocument{
		Session: &session.Session{UserProfile: "test", EndTime: &end, Duration: end},
		LEDChanges: []session.LEDChange{
			{RelativeTime: 0.1, X: 3, Y: 4, Color: [3]uint8{10, 20, 30}},
		},
		Patterns: []session.Pattern{
			{Type: session.PatternRapidSequence, StartTime: 0.0, EndTime: 0.2},
		},
	})

	require.NoError(t, engine.PlaySession(id, 1.0, true, true))
	engine.Wait()

	writes := grid.snapshot()
	// 81 white flash cells at the pattern start, then the brightened write.
	require.Len(t, writes, 82)
	assert.Equal(t, gridWrite{0, 0, [3]uint8{255, 255, 255}}, writes[0])
	assert.Equal(t, gridWrite{3, 4, [3]uint8{60, 70, 80}}, writes[81])
}

func TestPatternsIgnoredWhenDisabled(t *testing.T) {
	store := openTestStore(t)
	grid := &fakeGrid{}
	engine := New(store, grid, nil)

	end := 0.2
	id := importFixture(t, store, session.ExportDocument{
		Session: &session.Session{UserProfile: "test", EndTime: &end, Duration: end},
		LEDChanges: []session.LEDChange{
			{RelativeTime: 0.1, X: 3, Y: 4, Color: [3]uint8{10, 20, 30}},
		},
		Patterns: []session.Pattern{
			{Type: session.PatternRapidSequence, StartTime: 0.0, EndTime: 0.2},
		},
	})

	require.NoError(t, engine.PlaySession(id, 1.0, true, false))
	engine.Wait()

	writes := grid.snapshot()
	require.Len(t, writes, 1, "no flash, no brightening")
	assert.Equal(t, gridWrite{3, 4, [3]uint8{10, 20, 30}}, writes[0])
}

func TestBrightenClamps(t *testing.T) {
	assert.Equal(t, [3]uint8{60, 70, 80}, brighten([3]uint8{10, 20, 30}))
	assert.Equal(t, [3]uint8{255, 255, 50}, brighten([3]uint8{250, 230, 0}))
}

func TestStopWhenIdle(t *testing.T) {
	store := openTestStore(t)
	engine := New(store, &fakeGrid{}, nil)
	engine.Stop() // must not panic or block
	assert.Equal(t, StateIdle, engine.State())
}
