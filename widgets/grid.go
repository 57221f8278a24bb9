package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// RenderPadRow renders a row of colored pads with spacing
func RenderPadRow(colors [][3]uint8) string {
	var out strings.Builder
	for i, c := range colors {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderPad(c))
	}
	return out.String()
}

// RenderGrid renders the full 9x9 surface, row 0 at the top - the same
// orientation the session rows are recorded in.
func RenderGrid(grid [9][9][3]uint8) string {
	var lines []string
	for y := 0; y < 9; y++ {
		var line strings.Builder
		for x := 0; x < 9; x++ {
			line.WriteString(RenderPad(grid[y][x]))
			if x < 8 {
				line.WriteString(" ")
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderHeatmap shades cells by relative press count using a base color.
// counts is indexed [y][x]; zero cells render dim.
func RenderHeatmap(counts [9][9]int, base [3]uint8) string {
	max := 1
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			if counts[y][x] > max {
				max = counts[y][x]
			}
		}
	}

	var grid [9][9][3]uint8
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			if counts[y][x] == 0 {
				grid[y][x] = [3]uint8{25, 25, 25}
				continue
			}
			f := float64(counts[y][x]) / float64(max)
			grid[y][x] = [3]uint8{
				uint8(float64(base[0]) * f),
				uint8(float64(base[1]) * f),
				uint8(float64(base[2]) * f),
			}
		}
	}
	return RenderGrid(grid)
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
