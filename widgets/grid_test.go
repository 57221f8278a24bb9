package widgets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPadRow(t *testing.T) {
	row := RenderPadRow([][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}})
	assert.Equal(t, 3, strings.Count(row, "■"))
}

func TestRenderGridShape(t *testing.T) {
	var grid [9][9][3]uint8
	grid[0][0] = [3]uint8{255, 255, 255}

	out := RenderGrid(grid)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 9)
	for _, line := range lines {
		assert.Equal(t, 9, strings.Count(line, "■"))
	}
}

func TestRenderHeatmap(t *testing.T) {
	var counts [9][9]int
	counts[4][4] = 10
	counts[2][2] = 5

	out := RenderHeatmap(counts, [3]uint8{0, 255, 0})
	assert.Equal(t, 81, strings.Count(out, "■"))
}

func TestRenderLegendItem(t *testing.T) {
	item := RenderLegendItem([3]uint8{255, 0, 0}, "press", "lit while held")
	assert.Contains(t, item, "press")
	assert.Contains(t, item, "lit while held")
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Playback", Keys: []KeyBinding{
			{Key: "space", Desc: "pause / resume"},
			{Key: "s", Desc: "stop"},
		}},
	})
	assert.Contains(t, out, "Playback")
	assert.Contains(t, out, "space")
	assert.Contains(t, out, "pause / resume")
}
