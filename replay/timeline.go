// Package replay reconstructs a recorded session as a chronological
// timeline and plays it back against wall-clock time.
package replay

import (
	"sort"

	"padtrace/session"
)

// ItemKind tags a timeline entry. The declaration order doubles as the
// tie-break priority for items sharing a timestamp:
// pattern_start < led < event < pattern_end.
type ItemKind int

const (
	KindPatternStart ItemKind = iota
	KindLED
	KindEvent
	KindPatternEnd
)

func (k ItemKind) String() string {
	switch k {
	case KindPatternStart:
		return "pattern_start"
	case KindLED:
		return "led"
	case KindEvent:
		return "event"
	case KindPatternEnd:
		return "pattern_end"
	}
	return "unknown"
}

// Item is one entry in a merged timeline. Exactly one payload pointer is
// set, matching Kind.
type Item struct {
	Time    float64
	Kind    ItemKind
	Event   *session.Event
	LED     *session.LEDChange
	Pattern *session.Pattern
}

// BuildTimeline merges a session's events, LED changes, and pattern
// boundary markers into one ascending-by-time sequence. Each pattern
// contributes two markers, at its start and end times.
//
// Items with equal times are ordered by kind priority; within one input
// stream the original (insertion) order is preserved.
func BuildTimeline(events []session.Event, leds []session.LEDChange, patterns []session.Pattern) []Item {
	items := make([]Item, 0, len(events)+len(leds)+2*len(patterns))

	for i := range patterns {
		p := &patterns[i]
		items = append(items, Item{Time: p.StartTime, Kind: KindPatternStart, Pattern: p})
		items = append(items, Item{Time: p.EndTime, Kind: KindPatternEnd, Pattern: p})
	}
	for i := range leds {
		items = append(items, Item{Time: leds[i].RelativeTime, Kind: KindLED, LED: &leds[i]})
	}
	for i := range events {
		items = append(items, Item{Time: events[i].RelativeTime, Kind: KindEvent, Event: &events[i]})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Time != items[j].Time {
			return items[i].Time < items[j].Time
		}
		return items[i].Kind < items[j].Kind
	})

	return items
}
