package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padtrace/session"
)

func TestBuildTimelineOrdersByTime(t *testing.T) {
	events := []session.Event{
		{RelativeTime: 2.0, Type: session.EventPress},
		{RelativeTime: 0.5, Type: session.EventPress},
	}
	leds := []session.LEDChange{
		{RelativeTime: 1.0},
		{RelativeTime: 0.1},
	}

	items := BuildTimeline(events, leds, nil)
	require.Len(t, items, 4)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Time, items[i].Time)
	}
}

func TestBuildTimelineTieBreak(t *testing.T) {
	// All four kinds at the same instant: boundary markers bracket the
	// payload items, and LEDs land before events.
	events := []session.Event{{RelativeTime: 1.0, Type: session.EventPress}}
	leds := []session.LEDChange{{RelativeTime: 1.0}}
	patterns := []session.Pattern{{StartTime: 1.0, EndTime: 1.0, Type: session.PatternLongPause}}

	items := BuildTimeline(events, leds, patterns)
	require.Len(t, items, 4)

	want := []ItemKind{KindPatternStart, KindLED, KindEvent, KindPatternEnd}
	for i, kind := range want {
		assert.Equal(t, kind, items[i].Kind, "position %d", i)
	}
}

func TestBuildTimelineStableWithinStream(t *testing.T) {
	// Two LED writes at the same timestamp keep their insertion order,
	// so replay reproduces last-write-wins exactly as recorded.
	leds := []session.LEDChange{
		{RelativeTime: 1.0, X: 1},
		{RelativeTime: 1.0, X: 2},
	}

	items := BuildTimeline(nil, leds, nil)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].LED.X)
	assert.Equal(t, 2, items[1].LED.X)
}

func TestBuildTimelinePatternMarkers(t *testing.T) {
	patterns := []session.Pattern{
		{Type: session.PatternRapidSequence, StartTime: 0.0, EndTime: 0.2},
	}
	leds := []session.LEDChange{{RelativeTime: 0.1}}

	items := BuildTimeline(nil, leds, patterns)
	require.Len(t, items, 3)

	assert.Equal(t, KindPatternStart, items[0].Kind)
	assert.Equal(t, KindLED, items[1].Kind)
	assert.Equal(t, KindPatternEnd, items[2].Kind)
	assert.Same(t, items[0].Pattern, items[2].Pattern)
}

func TestBuildTimelineEmpty(t *testing.T) {
	assert.Empty(t, BuildTimeline(nil, nil, nil))
}

func TestItemKindString(t *testing.T) {
	assert.Equal(t, "pattern_start", KindPatternStart.String())
	assert.Equal(t, "led", KindLED.String())
	assert.Equal(t, "event", KindEvent.String())
	assert.Equal(t, "pattern_end", KindPatternEnd.String())
}
