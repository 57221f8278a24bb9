package replay

import (
	"fmt"
	"sync"
	"time"

	"padtrace/debug"
	"padtrace/mirror"
	"padtrace/session"
)

// Valid playback speed multipliers.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// patternBrighten is added to each color channel while a pattern span is
// active, so highlighted moments read brighter on the grid.
const patternBrighten = 50

// maxWait bounds every sleep in the playback loop, so pause/stop take
// effect within about one tick even when the next item is far away.
const maxWait = time.Millisecond

// LEDWriter drives the grid during playback. Both the hardware controller
// and test fakes satisfy it.
type LEDWriter interface {
	SetCellColor(x, y int, color [3]uint8) error
	Clear() error
}

// State is the playback lifecycle: Idle -> Playing <-> Paused ->
// Stopped/Complete.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopped
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Engine replays recorded sessions against wall-clock time at an
// adjustable speed, with pause/resume and cooperative cancellation.
//
// Progress is tracked by an active-elapsed clock that only advances while
// unpaused, so resuming continues exactly where playback froze - a naive
// wall-clock computation would fast-forward through the paused interval.
type Engine struct {
	store  *session.Store
	grid   LEDWriter
	mirror mirror.Mirror

	mu            sync.Mutex
	state         State
	speed         float64
	activeElapsed float64
	stopFlag      bool
	done          chan struct{}
}

// New creates an engine. A nil mirror is replaced with a no-op.
func New(store *session.Store, grid LEDWriter, m mirror.Mirror) *Engine {
	if m == nil {
		m = mirror.Nop{}
	}
	return &Engine{store: store, grid: grid, mirror: m, state: StateIdle, speed: 1.0}
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the playback speed. Out-of-range values are rejected
// with a warning and the prior speed is kept.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if speed < MinSpeed || speed > MaxSpeed {
		debug.Warn("playback", "invalid speed %.2f, must be %.2f-%.2f; keeping %.2f",
			speed, MinSpeed, MaxSpeed, e.speed)
		return
	}
	e.speed = speed
	debug.Log("playback", "speed set to %.2fx", speed)
}

// PlaySession builds the merged timeline for a session and starts the
// background playback loop.
//
// A call while playback is already running logs a warning and is a no-op.
// An out-of-range speed is rejected the same way SetSpeed rejects it.
// Replay is visual-only: events are displayed, audio is never re-triggered,
// so visualOnly is informational.
func (e *Engine) PlaySession(id int64, speed float64, visualOnly, showPatterns bool) error {
	e.mu.Lock()
	if e.state == StatePlaying || e.state == StatePaused {
		debug.Warn("playback", "already playing a session")
		e.mu.Unlock()
		return nil
	}
	if speed < MinSpeed || speed > MaxSpeed {
		debug.Warn("playback", "invalid speed %.2f, must be %.2f-%.2f; keeping %.2f",
			speed, MinSpeed, MaxSpeed, e.speed)
	} else {
		e.speed = speed
	}
	e.mu.Unlock()

	sess, err := e.store.GetSession(id)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %d not found", id)
	}

	events, err := e.store.SessionEvents(id)
	if err != nil {
		return err
	}
	leds, err := e.store.SessionLEDChanges(id)
	if err != nil {
		return err
	}
	var patterns []session.Pattern
	if showPatterns {
		patterns, err = e.store.SessionPatterns(id)
		if err != nil {
			return err
		}
	}

	if len(events) == 0 && len(leds) == 0 {
		debug.Warn("playback", "session %d has no recorded events", id)
		return nil
	}

	timeline := BuildTimeline(events, leds, patterns)

	e.mu.Lock()
	e.state = StatePlaying
	e.activeElapsed = 0
	e.stopFlag = false
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	debug.Log("playback", "session %d: %d timeline items, speed %.2fx, visualOnly=%v, patterns=%d",
		id, len(timeline), speed, visualOnly, len(patterns))

	go e.run(timeline, showPatterns, done)
	return nil
}

// run is the playback loop. It owns the grid until it returns.
func (e *Engine) run(timeline []Item, showPatterns bool, done chan struct{}) {
	defer close(done)

	last := time.Now()
	inPattern := false

	for i := range timeline {
		item := &timeline[i]

		for {
			e.mu.Lock()
			if e.stopFlag {
				e.state = StateStopped
				e.mu.Unlock()
				e.grid.Clear()
				debug.Log("playback", "stopped")
				return
			}

			now := time.Now()
			if e.state == StatePlaying {
				e.activeElapsed += now.Sub(last).Seconds()
			}
			last = now

			due := e.state == StatePlaying && e.activeElapsed*e.speed >= item.Time
			wait := maxWait
			if e.state == StatePlaying && !due {
				// Exact delta to the next due item, capped so
				// control flags stay responsive.
				delta := time.Duration((item.Time/e.speed - e.activeElapsed) * float64(time.Second))
				if delta < wait {
					wait = delta
				}
			}
			e.mu.Unlock()

			if due {
				break
			}
			if wait > 0 {
				time.Sleep(wait)
			}
		}

		e.apply(item, &inPattern, showPatterns)
	}

	e.mu.Lock()
	e.state = StateComplete
	e.mu.Unlock()
	e.grid.Clear()
	debug.Log("playback", "complete")
}

// apply performs one timeline item's effect.
func (e *Engine) apply(item *Item, inPattern *bool, showPatterns bool) {
	switch item.Kind {
	case KindPatternStart:
		*inPattern = true
		if showPatterns {
			debug.Log("playback", "[%.2fs] pattern: %s", item.Time, item.Pattern.Description)
			e.flashGrid()
		}

	case KindPatternEnd:
		*inPattern = false

	case KindLED:
		color := item.LED.Color
		if *inPattern && showPatterns {
			color = brighten(color)
		}
		e.grid.SetCellColor(item.LED.X, item.LED.Y, color)
		e.mirror.OnLEDUpdate(item.LED.X, item.LED.Y, color)
		debug.LogEvery(100, "playback", "led (%d,%d)", item.LED.X, item.LED.Y)

	case KindEvent:
		// Display only; audio is never re-triggered during replay.
		if item.Event.Type == session.EventPress {
			note := item.Event.NoteName
			if note == "" {
				note = item.Event.AudioFile
			}
			debug.Log("playback", "[%.2fs] press at (%d,%d) %s", item.Time, item.Event.X, item.Event.Y, note)
		}
	}
}

// flashGrid gives a brief full-grid white cue at a pattern start. The
// timeline's subsequent LED writes restore cell colors.
func (e *Engine) flashGrid() {
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			e.grid.SetCellColor(x, y, [3]uint8{255, 255, 255})
		}
	}
	time.Sleep(50 * time.Millisecond)
}

// Pause freezes playback at the current point.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePlaying {
		e.state = StatePaused
		debug.Log("playback", "paused at %.2fs", e.activeElapsed*e.speed)
	}
}

// Resume continues from exactly where playback was paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePaused {
		e.state = StatePlaying
		debug.Log("playback", "resumed at %.2fs", e.activeElapsed*e.speed)
	}
}

// Stop cancels playback and waits (bounded) for the loop to exit, then
// clears the grid. Safe to call when nothing is playing.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StatePlaying && e.state != StatePaused {
		e.mu.Unlock()
		return
	}
	e.stopFlag = true
	done := e.done
	e.mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		debug.Warn("playback", "loop did not exit within 1s")
	}
	e.grid.Clear()
}

// Wait blocks until the current playback finishes (complete or stopped).
// Returns immediately if nothing was started.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func brighten(c [3]uint8) [3]uint8 {
	var out [3]uint8
	for i, v := range c {
		n := int(v) + patternBrighten
		if n > 255 {
			n = 255
		}
		out[i] = uint8(n)
	}
	return out
}
