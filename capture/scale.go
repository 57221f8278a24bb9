package capture

import (
	"fmt"
	"math"
)

// Scale lays musical notes over the 8x8 pad grid, bottom-left ascending.
type Scale struct {
	Name      string
	Root      uint8 // MIDI note of the bottom-left pad
	Intervals []int // semitone offsets within one octave
}

var scales = map[string]Scale{
	"C_major":      {Name: "C_major", Root: 48, Intervals: []int{0, 2, 4, 5, 7, 9, 11}},
	"A_minor":      {Name: "A_minor", Root: 45, Intervals: []int{0, 2, 3, 5, 7, 8, 10}},
	"C_pentatonic": {Name: "C_pentatonic", Root: 48, Intervals: []int{0, 2, 4, 7, 9}},
}

// ScaleByName looks up a named scale, falling back to C_major.
func ScaleByName(name string) Scale {
	if s, ok := scales[name]; ok {
		return s
	}
	return scales["C_major"]
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteAt maps a pad cell to its note name and frequency. Only the 8x8 pad
// area (x 0-7, y 1-8) carries notes; other cells return ok=false.
func (s Scale) NoteAt(x, y int) (name string, freq float64, ok bool) {
	if x < 0 || x > 7 || y < 1 || y > 8 {
		return "", 0, false
	}

	// Bottom row first, ascending left to right.
	index := (8-y)*8 + x
	octave := index / len(s.Intervals)
	degree := index % len(s.Intervals)

	note := int(s.Root) + octave*12 + s.Intervals[degree]
	if note > 127 {
		note = 127
	}

	name = fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
	freq = 440.0 * math.Pow(2, float64(note-69)/12.0)
	return name, freq, true
}

// Degree returns the scale degree at a pad cell, for coloring. ok follows
// NoteAt.
func (s Scale) Degree(x, y int) (int, bool) {
	if x < 0 || x > 7 || y < 1 || y > 8 {
		return 0, false
	}
	index := (8-y)*8 + x
	return index % len(s.Intervals), true
}
