package session

import (
	"fmt"
	"sort"
)

// CellCount is one grid cell and how often it was pressed.
type CellCount struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Count int `json:"count"`
}

// Summary is a read-only reduction of one session: no side effects, derived
// entirely from persisted rows.
type Summary struct {
	SessionID     int64       `json:"session_id"`
	Duration      float64     `json:"duration"`
	TotalEvents   int         `json:"total_events"`
	ButtonPresses int         `json:"button_presses"`
	MostPressed   []CellCount `json:"most_pressed_buttons"` // top 5
	AverageGap    float64     `json:"average_tempo"`        // mean seconds between presses
	PatternCount  int         `json:"patterns_detected"`
	PatternTypes  []string    `json:"pattern_types"`
}

// Summarize computes a session summary. A missing or empty session returns
// nil without error; the caller decides how to report it.
func (s *Store) Summarize(id int64) (*Summary, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	events, err := s.SessionEvents(id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	patterns, err := s.SessionPatterns(id)
	if err != nil {
		return nil, err
	}

	var presses []Event
	for _, e := range events {
		if e.Type == EventPress {
			presses = append(presses, e)
		}
	}

	counts := make(map[[2]int]int)
	for _, e := range presses {
		counts[[2]int{e.X, e.Y}]++
	}
	ranked := make([]CellCount, 0, len(counts))
	for cell, n := range counts {
		ranked = append(ranked, CellCount{X: cell[0], Y: cell[1], Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		// Deterministic order among equally-pressed cells
		if ranked[i].Y != ranked[j].Y {
			return ranked[i].Y < ranked[j].Y
		}
		return ranked[i].X < ranked[j].X
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	var avgGap float64
	if len(presses) > 1 {
		total := presses[len(presses)-1].RelativeTime - presses[0].RelativeTime
		avgGap = total / float64(len(presses)-1)
	}

	typeSet := make(map[string]bool)
	for _, p := range patterns {
		typeSet[p.Type] = true
	}
	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)

	return &Summary{
		SessionID:     id,
		Duration:      sess.Duration,
		TotalEvents:   len(events),
		ButtonPresses: len(presses),
		MostPressed:   ranked,
		AverageGap:    avgGap,
		PatternCount:  len(patterns),
		PatternTypes:  types,
	}, nil
}

// String renders the summary for terminal display.
func (sum *Summary) String() string {
	if sum == nil {
		return "(empty session)"
	}
	out := fmt.Sprintf("Session #%d  duration=%.1fs  events=%d  presses=%d  patterns=%d",
		sum.SessionID, sum.Duration, sum.TotalEvents, sum.ButtonPresses, sum.PatternCount)
	if sum.AverageGap > 0 {
		out += fmt.Sprintf("  avg gap=%.2fs", sum.AverageGap)
	}
	return out
}
