package replay

import (
	"fmt"
	"strings"
	"time"

	"padtrace/session"
)

// DisplaySessionSummary formats a session overview for the terminal:
// metadata, activity stats, most-pressed cells, and detected patterns.
func DisplaySessionSummary(store *session.Store, id int64) (string, error) {
	sess, err := store.GetSession(id)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return fmt.Sprintf("Session %d not found", id), nil
	}

	sum, err := store.Summarize(id)
	if err != nil {
		return "", err
	}
	patterns, err := store.SessionPatterns(id)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	bar := strings.Repeat("=", 60)

	fmt.Fprintf(&out, "%s\n", bar)
	fmt.Fprintf(&out, "  SESSION #%d: %s\n", id, sess.UserProfile)
	fmt.Fprintf(&out, "%s\n", bar)

	start := time.Unix(int64(sess.StartTime), 0)
	fmt.Fprintf(&out, "  Date: %s\n", start.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&out, "  Duration: %.1f seconds\n", sess.Duration)
	fmt.Fprintf(&out, "  Config: %s\n", orUnknown(sess.ConfigName))
	fmt.Fprintf(&out, "  Scale: %s - %s\n", orUnknown(sess.Scale), orUnknown(sess.ModelName))

	if sum != nil {
		fmt.Fprintf(&out, "\n  Activity:\n")
		fmt.Fprintf(&out, "    Total events: %d\n", sum.TotalEvents)
		fmt.Fprintf(&out, "    Button presses: %d\n", sum.ButtonPresses)
		fmt.Fprintf(&out, "    Avg gap: %.2fs between presses\n", sum.AverageGap)

		if len(sum.MostPressed) > 0 {
			fmt.Fprintf(&out, "\n  Most pressed buttons:\n")
			for i, btn := range sum.MostPressed {
				fmt.Fprintf(&out, "    %d. (%d,%d) - %d times\n", i+1, btn.X, btn.Y, btn.Count)
			}
		}
	}

	if len(patterns) > 0 {
		fmt.Fprintf(&out, "\n  Interesting moments detected:\n")
		for _, p := range patterns {
			fmt.Fprintf(&out, "    * [%.1fs] %s\n", p.StartTime, p.Description)
		}
	}

	if sess.Notes != "" {
		fmt.Fprintf(&out, "\n  Notes: %s\n", sess.Notes)
	}

	fmt.Fprintf(&out, "%s\n", bar)
	return out.String(), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
