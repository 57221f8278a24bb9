// Package session records, persists, and analyzes pad interaction sessions.
//
// A session captures every button press/release and LED change with
// timestamps relative to the session's own start, so it can be replayed,
// summarized, or mined for patterns after the fact.
package session

// Event types stored in the events table.
const (
	EventPress   = "button_press"
	EventRelease = "button_release"
)

// Pattern types emitted by the detector.
const (
	PatternRapidSequence    = "rapid_sequence"
	PatternLongPause        = "long_pause"
	PatternRepeatedSequence = "repeated_sequence"
)

// Session is one recorded interaction interval bound to a user profile.
// All timestamps are unix seconds (REAL in the schema).
type Session struct {
	ID          int64    `json:"id"`
	StartTime   float64  `json:"start_time"`
	EndTime     *float64 `json:"end_time"`
	Duration    float64  `json:"duration"`
	UserProfile string   `json:"user_profile"`
	ConfigName  string   `json:"config_name"`
	Scale       string   `json:"scale"`
	ModelName   string   `json:"model_name"`
	TotalEvents int      `json:"total_events"`
	Notes       string   `json:"notes"`
}

// Event is a single button press or release.
// RelativeTime = Timestamp - session start; it is the ordering key.
type Event struct {
	ID           int64   `json:"id"`
	SessionID    int64   `json:"session_id"`
	Timestamp    float64 `json:"timestamp"`
	RelativeTime float64 `json:"relative_time"`
	Type         string  `json:"event_type"`
	X            int     `json:"x"`
	Y            int     `json:"y"`
	NoteName     string  `json:"note_name,omitempty"`
	Frequency    float64 `json:"frequency,omitempty"`
	AudioFile    string  `json:"audio_file,omitempty"`
	Metadata     string  `json:"metadata,omitempty"` // JSON blob, optional
}

// LEDChange is one grid-cell color mutation. Sessions typically hold many
// more of these than events.
type LEDChange struct {
	ID           int64    `json:"id"`
	SessionID    int64    `json:"session_id"`
	Timestamp    float64  `json:"timestamp"`
	RelativeTime float64  `json:"relative_time"`
	X            int      `json:"x"`
	Y            int      `json:"y"`
	Color        [3]uint8 `json:"color"`
}

// Pattern is a derived time-span annotation over a session's event stream.
// Start and End are relative times; Start <= End always holds.
type Pattern struct {
	ID          int64   `json:"id"`
	SessionID   int64   `json:"session_id"`
	Type        string  `json:"pattern_type"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Description string  `json:"description"`
	Metadata    string  `json:"metadata,omitempty"` // JSON blob, optional
}
