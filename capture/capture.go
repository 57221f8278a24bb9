// Package capture is the live interaction layer: it turns pad events into
// lit cells and recorded session rows. Every LED write it performs goes
// through the recorder and the optional mirror, so a session can later be
// replayed exactly as it looked.
package capture

import (
	"context"
	"sync/atomic"

	"padtrace/debug"
	"padtrace/midi"
	"padtrace/mirror"
	"padtrace/session"
	"padtrace/theme"
)

// Capture binds one controller to one active recording.
type Capture struct {
	ctrl   midi.Controller
	rec    *session.Recording
	mir    mirror.Mirror
	scale  Scale
	theme  *theme.Theme
	events atomic.Int64
}

// New creates a capture layer. A nil mirror is replaced with a no-op.
func New(ctrl midi.Controller, rec *session.Recording, m mirror.Mirror, scaleName string, th *theme.Theme) *Capture {
	if m == nil {
		m = mirror.Nop{}
	}
	return &Capture{ctrl: ctrl, rec: rec, mir: m, scale: ScaleByName(scaleName), theme: th}
}

// EventCount returns how many pad events have been handled so far.
func (c *Capture) EventCount() int64 {
	return c.events.Load()
}

// Run draws the resting layout and then consumes pad events until the
// context is done or the controller closes its channel. Event-driven: no
// polling, the controller pushes.
func (c *Capture) Run(ctx context.Context) {
	c.drawLayout()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.ctrl.PadEvents():
			if !ok {
				return
			}
			c.handle(ev)
		}
	}
}

func (c *Capture) handle(ev midi.PadEvent) {
	c.events.Add(1)

	name, freq, hasNote := c.scale.NoteAt(ev.X, ev.Y)

	switch ev.Type {
	case midi.PadPress:
		c.setLED(ev.X, ev.Y, c.pressColor(ev.X, ev.Y))
		if err := c.rec.RecordPress(ev.X, ev.Y, name, freq, "", nil); err != nil {
			debug.Warn("capture", "record press: %v", err)
		}
		if hasNote {
			debug.Log("capture", "press (%d,%d) %s %.1fHz", ev.X, ev.Y, name, freq)
		}

	case midi.PadRelease:
		c.setLED(ev.X, ev.Y, c.restColor(ev.X, ev.Y))
		if err := c.rec.RecordRelease(ev.X, ev.Y, name, nil); err != nil {
			debug.Warn("capture", "record release: %v", err)
		}
	}
}

// setLED is the single funnel for grid writes: hardware, recorder, mirror.
func (c *Capture) setLED(x, y int, color [3]uint8) {
	c.ctrl.SetCellColor(x, y, color)
	if err := c.rec.RecordLEDChange(x, y, color); err != nil {
		debug.Warn("capture", "record led change: %v", err)
	}
	c.mir.OnLEDUpdate(x, y, color)
}

// drawLayout paints the resting state: root-degree pads dim, everything
// else off. The paint itself is recorded, so replay opens on the same
// picture the player saw.
func (c *Capture) drawLayout() {
	for y := 1; y <= 8; y++ {
		for x := 0; x <= 7; x++ {
			c.setLED(x, y, c.restColor(x, y))
		}
	}
}

// pressColor picks a vivid per-degree color from the theme palette.
func (c *Capture) pressColor(x, y int) [3]uint8 {
	degree, ok := c.scale.Degree(x, y)
	if !ok {
		return [3]uint8{255, 255, 255}
	}
	n := len(c.scale.Intervals)
	rgb := c.theme.RGB(float64(degree) / float64(n-1))
	return [3]uint8(rgb)
}

// restColor dims root-degree pads so the scale layout stays visible.
func (c *Capture) restColor(x, y int) [3]uint8 {
	degree, ok := c.scale.Degree(x, y)
	if ok && degree == 0 {
		return [3]uint8{20, 20, 30}
	}
	return [3]uint8{0, 0, 0}
}
