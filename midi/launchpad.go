package midi

import (
	"fmt"
	"sync/atomic"

	"padtrace/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var ledSendCount uint64

// LaunchpadController handles a Novation Launchpad X
type LaunchpadController struct {
	id       string
	outPort  drivers.Out
	inPort   drivers.In
	send     func(msg gomidi.Message) error
	stopFunc func()

	padChan chan PadEvent
}

// NewLaunchpadController creates and configures a Launchpad
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:      id,
		inPort:  inPort,
		outPort: outPort,
		padChan: make(chan PadEvent, 64),
	}

	// Open output
	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send

		// Send SysEx to switch to Programmer mode
		// F0 00 20 29 02 0C 00 7F F7
		lp.send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F}))

		// Set brightness to maximum (0-127)
		// F0 00 20 29 02 0C 08 <brightness> F7
		lp.send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F}))
	}

	// Open input. Presses arrive as NoteOn with velocity > 0, releases as
	// NoteOff or velocity-0 NoteOn; the top control row speaks CC.
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			var channel, note, velocity uint8
			var cc, value uint8

			if msg.GetNoteOn(&channel, &note, &velocity) {
				if x, y, ok := noteToXY(note); ok {
					kind := PadPress
					if velocity == 0 {
						kind = PadRelease
					}
					lp.emit(PadEvent{X: x, Y: y, Type: kind, Velocity: velocity})
				}
				return
			}

			if msg.GetNoteOff(&channel, &note, &velocity) {
				if x, y, ok := noteToXY(note); ok {
					lp.emit(PadEvent{X: x, Y: y, Type: PadRelease})
				}
				return
			}

			if msg.GetControlChange(&channel, &cc, &value) {
				if x, y, ok := ccToXY(cc); ok {
					kind := PadPress
					if value == 0 {
						kind = PadRelease
					}
					lp.emit(PadEvent{X: x, Y: y, Type: kind, Velocity: value})
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

// emit forwards an event without ever blocking the MIDI callback.
func (lp *LaunchpadController) emit(ev PadEvent) {
	select {
	case lp.padChan <- ev:
	default:
		debug.LogEvery(50, "lp-input", "pad channel full, dropping %s at (%d,%d)", ev.Type, ev.X, ev.Y)
	}
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

// SetCellColor lights one cell with the nearest Launchpad palette color.
func (lp *LaunchpadController) SetCellColor(x, y int, color [3]uint8) error {
	if lp.send == nil {
		return nil
	}
	note, ok := xyToNote(x, y)
	if !ok {
		return nil // no LED at (8,0)
	}
	atomic.AddUint64(&ledSendCount, 1)
	return lp.send(gomidi.NoteOn(0, note, mapRGBToLaunchpad(color)))
}

// Clear turns every LED off.
func (lp *LaunchpadController) Clear() error {
	if lp.send == nil {
		return nil
	}
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			if err := lp.SetCellColor(x, y, [3]uint8{0, 0, 0}); err != nil {
				return err
			}
		}
	}
	count := atomic.LoadUint64(&ledSendCount)
	debug.Log("lp-send", "grid cleared (total sends=%d)", count)
	return nil
}

// mapRGBToLaunchpad finds the nearest Launchpad X palette color for an RGB value
func mapRGBToLaunchpad(rgb [3]uint8) uint8 {
	// Launchpad X palette - approximate RGB values for key colors
	// Format: {velocity, R, G, B}
	palette := [][4]uint8{
		{0, 0, 0, 0},         // off
		{5, 255, 0, 0},       // red
		{6, 255, 80, 80},     // bright red
		{7, 180, 60, 60},     // dim red
		{9, 255, 100, 0},     // orange
		{11, 180, 80, 40},    // dim orange
		{13, 255, 200, 0},    // yellow
		{17, 0, 180, 0},      // green
		{19, 0, 100, 0},      // dim green
		{21, 0, 255, 0},      // bright green
		{37, 0, 200, 200},    // cyan
		{43, 40, 60, 120},    // dim blue
		{45, 0, 100, 255},    // blue
		{47, 80, 150, 255},   // bright blue
		{49, 150, 0, 200},    // purple
		{53, 255, 80, 180},   // pink
		{78, 100, 100, 255},  // light blue
		{84, 255, 150, 50},   // bright orange
		{87, 150, 255, 100},  // lime
		{97, 180, 180, 60},   // dim yellow
		{119, 255, 255, 255}, // white
	}

	bestMatch := uint8(0)
	bestDist := 999999

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])

	for _, p := range palette {
		pr, pg, pb := int(p[1]), int(p[2]), int(p[3])
		// Simple Euclidean distance
		dist := (r-pr)*(r-pr) + (g-pg)*(g-pg) + (b-pb)*(b-pb)
		if dist < bestDist {
			bestDist = dist
			bestMatch = p[0]
		}
	}

	return bestMatch
}

func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		lp.Clear()
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	close(lp.padChan)
	return nil
}

// Launchpad X note mapping, translated to the recorded coordinate space:
// x right, y down, (0,0) top-left.
//
// 8x8 grid:  hardware row 0 (bottom) = notes 11-18, row 7 = notes 81-88,
//            so y = 8 - row and x = col.
// Side col:  x = 8 (scene buttons), notes 19, 29, ... 89.
// Top row:   y = 0, CC 91-98 for input, notes 91-98 for LED control.

func xyToNote(x, y int) (uint8, bool) {
	if x < 0 || x > 8 || y < 0 || y > 8 {
		return 0, false
	}
	if y == 0 {
		if x > 7 {
			return 0, false // no LED above the scene column
		}
		return uint8(91 + x), true
	}
	row := 8 - y
	return uint8((row+1)*10 + x + 1), true
}

func noteToXY(note uint8) (x, y int, ok bool) {
	if note >= 91 && note <= 98 {
		return int(note - 91), 0, true
	}
	row := int(note/10) - 1
	col := int(note % 10)
	if col == 0 || row < 0 || row > 7 {
		return 0, 0, false
	}
	return col - 1, 8 - row, true
}

// ccToXY converts CC messages to coordinates (top row buttons)
func ccToXY(cc uint8) (x, y int, ok bool) {
	if cc >= 91 && cc <= 98 {
		return int(cc - 91), 0, true
	}
	return 0, 0, false
}
