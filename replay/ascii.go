package replay

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"padtrace/debug"
	"padtrace/session"
)

// Grid dimensions of the controller, pads plus the control row/column.
const gridSize = 9

// ASCII frame bucket width in seconds.
const frameStep = 0.1

// RenderASCIITimeline renders a session's LED changes as a frame-by-frame
// ASCII animation. Changes are bucketed into 0.1s frames; grid state
// accumulates across frames so each frame shows the full picture, one glyph
// per cell: lit cells draw solid, unlit draw a dot.
//
// Pure function over the rows it is given; no side effects.
func RenderASCIITimeline(leds []session.LEDChange) string {
	if len(leds) == 0 {
		return ""
	}

	type cell struct{ x, y int }

	frames := make(map[float64]map[cell][3]uint8)
	for _, led := range leds {
		t := math.Round(led.RelativeTime/frameStep) * frameStep
		if frames[t] == nil {
			frames[t] = make(map[cell][3]uint8)
		}
		frames[t][cell{led.X, led.Y}] = led.Color
	}

	times := make([]float64, 0, len(frames))
	for t := range frames {
		times = append(times, t)
	}
	sort.Float64s(times)

	state := make(map[cell][3]uint8)
	var out strings.Builder

	for _, t := range times {
		for c, color := range frames[t] {
			state[c] = color
		}

		fmt.Fprintf(&out, "\n[%.1fs]\n", t)
		for y := 0; y < gridSize; y++ {
			for x := 0; x < gridSize; x++ {
				color := state[cell{x, y}]
				if int(color[0])+int(color[1])+int(color[2]) > 0 {
					out.WriteRune('█')
				} else {
					out.WriteRune('·')
				}
			}
			out.WriteByte('\n')
		}
	}

	return out.String()
}

// GenerateASCIITimeline writes the ASCII animation for a session to a file.
func GenerateASCIITimeline(store *session.Store, id int64, path string) error {
	leds, err := store.SessionLEDChanges(id)
	if err != nil {
		return err
	}
	if len(leds) == 0 {
		return fmt.Errorf("session %d has no LED changes to visualize", id)
	}

	if err := os.WriteFile(path, []byte(RenderASCIITimeline(leds)), 0644); err != nil {
		return fmt.Errorf("write ascii timeline: %w", err)
	}

	debug.Log("ascii", "session %d timeline written to %s", id, path)
	return nil
}
