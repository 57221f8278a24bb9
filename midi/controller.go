// Package midi connects grid controllers (Novation Launchpads) to the
// recorder and playback engine: pad input arrives on channels, LED output
// goes out as palette-mapped note messages.
package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
)

// PadEventType distinguishes presses from releases.
type PadEventType int

const (
	PadPress PadEventType = iota
	PadRelease
)

func (t PadEventType) String() string {
	if t == PadRelease {
		return "release"
	}
	return "press"
}

// PadEvent is one button interaction on the grid. Coordinates are x right,
// y down, (0,0) top-left, over the full 9x9 surface (8x8 pads plus the top
// control row and right scene column).
type PadEvent struct {
	X, Y     int
	Type     PadEventType
	Velocity uint8
}

// Controller is the grid collaborator: channel-fed input, addressable LED
// output. SetCellColor/Clear are the same surface the playback engine
// drives, so a controller plugs into replay directly.
type Controller interface {
	ID() string
	Type() ControllerType

	// PadEvents delivers presses and releases as they happen.
	PadEvents() <-chan PadEvent

	// SetCellColor lights one cell with the nearest palette color.
	SetCellColor(x, y int, color [3]uint8) error

	// Clear turns every LED off.
	Clear() error

	// Lifecycle
	Close() error
}
