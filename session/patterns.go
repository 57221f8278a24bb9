package session

import (
	"encoding/json"
	"fmt"

	"padtrace/debug"
)

// Detection thresholds.
const (
	rapidGap     = 0.3 // presses closer than this form a rapid run
	rapidMinRun  = 3   // minimum presses in a run worth annotating
	longPauseGap = 3.0 // gaps longer than this are long pauses
	repeatWindow = 3   // length of the repeated-subsequence window
)

// position is an (x, y) grid cell as stored in pattern metadata.
type position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DetectPatterns analyzes a session's press events and rewrites its derived
// pattern rows. It runs automatically when a recording ends and can be
// re-run at any time; each pass replaces the previous one.
//
// Fewer than 3 presses yields zero patterns and no error.
func (s *Store) DetectPatterns(sessionID int64) error {
	events, err := s.SessionEvents(sessionID)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	var presses []Event
	for _, e := range events {
		if e.Type == EventPress {
			presses = append(presses, e)
		}
	}

	var found []Pattern
	if len(presses) >= rapidMinRun {
		found = append(found, detectRapidSequences(sessionID, presses)...)
		found = append(found, detectLongPauses(sessionID, presses)...)
		found = append(found, detectRepeatedSequences(sessionID, presses)...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM patterns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear patterns: %w", err)
	}
	for _, p := range found {
		if _, err := s.db.Exec(`
			INSERT INTO patterns (session_id, pattern_type, start_time, end_time, description, metadata)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.SessionID, p.Type, p.StartTime, p.EndTime, p.Description, nullStr(p.Metadata)); err != nil {
			return fmt.Errorf("insert pattern: %w", err)
		}
	}

	debug.Log("patterns", "session %d: %d patterns detected over %d presses",
		sessionID, len(found), len(presses))
	return nil
}

// detectRapidSequences finds runs of presses separated by less than
// rapidGap. A run of rapidMinRun or more spans [first, last] of the run.
func detectRapidSequences(sessionID int64, presses []Event) []Pattern {
	var patterns []Pattern

	runStart := 0
	for i := 1; i <= len(presses); i++ {
		if i < len(presses) && presses[i].RelativeTime-presses[i-1].RelativeTime < rapidGap {
			continue
		}
		// Run [runStart, i) ended: either the gap opened up or the
		// stream did.
		if count := i - runStart; count >= rapidMinRun {
			patterns = append(patterns, Pattern{
				SessionID:   sessionID,
				Type:        PatternRapidSequence,
				StartTime:   presses[runStart].RelativeTime,
				EndTime:     presses[i-1].RelativeTime,
				Description: fmt.Sprintf("Rapid sequence of %d notes", count),
			})
		}
		runStart = i
	}
	return patterns
}

// detectLongPauses annotates every adjacent press pair further apart than
// longPauseGap.
func detectLongPauses(sessionID int64, presses []Event) []Pattern {
	var patterns []Pattern
	for i := 0; i < len(presses)-1; i++ {
		gap := presses[i+1].RelativeTime - presses[i].RelativeTime
		if gap > longPauseGap {
			patterns = append(patterns, Pattern{
				SessionID:   sessionID,
				Type:        PatternLongPause,
				StartTime:   presses[i].RelativeTime,
				EndTime:     presses[i+1].RelativeTime,
				Description: fmt.Sprintf("Pause of %.1fs - moment of concentration?", gap),
			})
		}
	}
	return patterns
}

// detectRepeatedSequences scans for the first later repetition of each
// fixed-length position window. Only the first repetition per starting
// window is recorded and overlapping matches are not suppressed: this is an
// O(n^2) heuristic over small press counts, not exhaustive motif mining.
func detectRepeatedSequences(sessionID int64, presses []Event) []Pattern {
	if len(presses) < repeatWindow*2 {
		return nil
	}

	var patterns []Pattern
	for i := 0; i+repeatWindow <= len(presses); i++ {
		window := windowPositions(presses, i)

		for k := i + repeatWindow; k+repeatWindow <= len(presses); k++ {
			if !samePositions(window, windowPositions(presses, k)) {
				continue
			}

			meta, _ := json.Marshal(map[string]any{
				"positions":         window,
				"matched_positions": windowPositions(presses, k),
			})
			patterns = append(patterns, Pattern{
				SessionID:   sessionID,
				Type:        PatternRepeatedSequence,
				StartTime:   presses[i].RelativeTime,
				EndTime:     presses[k+repeatWindow-1].RelativeTime,
				Description: "Repeated sequence discovered",
				Metadata:    string(meta),
			})
			break // only the first repetition per window
		}
	}
	return patterns
}

func windowPositions(presses []Event, start int) []position {
	out := make([]position, repeatWindow)
	for j := 0; j < repeatWindow; j++ {
		out[j] = position{X: presses[start+j].X, Y: presses[start+j].Y}
	}
	return out
}

func samePositions(a, b []position) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
