package session

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"padtrace/debug"
)

// Store owns the session database: one long-lived connection, writes
// serialized by a mutex so concurrent hardware callbacks never interleave.
type Store struct {
	db *sql.DB

	mu      sync.Mutex // guards writes and the current pointer
	current *Recording
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	start_time REAL NOT NULL,
	end_time REAL,
	duration REAL,
	user_profile TEXT,
	config_name TEXT,
	scale TEXT,
	model_name TEXT,
	total_events INTEGER DEFAULT 0,
	notes TEXT
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL,
	timestamp REAL NOT NULL,
	relative_time REAL NOT NULL,
	event_type TEXT NOT NULL,
	x INTEGER,
	y INTEGER,
	note_name TEXT,
	frequency REAL,
	audio_file TEXT,
	metadata TEXT,
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS led_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL,
	timestamp REAL NOT NULL,
	relative_time REAL NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	color_r INTEGER NOT NULL,
	color_g INTEGER NOT NULL,
	color_b INTEGER NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS patterns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL,
	pattern_type TEXT NOT NULL,
	start_time REAL NOT NULL,
	end_time REAL NOT NULL,
	description TEXT,
	metadata TEXT,
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_led_session ON led_changes(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_patterns_session ON patterns(session_id);
`

// Open opens (creating if needed) the session database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection only: the mutex above is the write queue.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	debug.Log("store", "session database open at %s", path)
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartOptions describes the session being started.
type StartOptions struct {
	Profile    string // e.g. "Sarah_daughter"; defaults to "default"
	ConfigName string
	Scale      string
	ModelName  string
	Notes      string
}

// StartSession creates a session row, captures t0, and returns the handle
// all record calls go through. If another recording is still active it is
// detached (its subsequent writes are dropped with a warning) - callers are
// expected to end sessions explicitly.
func (s *Store) StartSession(opts StartOptions) (*Recording, error) {
	if opts.Profile == "" {
		opts.Profile = "default"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		debug.Warn("store", "starting session while session %d is active; detaching it", s.current.id)
		s.current.detached.Store(true)
	}

	start := unixNow()
	res, err := s.db.Exec(`
		INSERT INTO sessions (start_time, user_profile, config_name, scale, model_name, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, start, opts.Profile, opts.ConfigName, opts.Scale, opts.ModelName, opts.Notes)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	rec := &Recording{store: s, id: id, start: start}
	s.current = rec

	debug.Log("store", "session %d started for profile %q", id, opts.Profile)
	return rec, nil
}

// insertEvent appends one event row for an attached recording.
func (s *Store) insertEvent(rec *Recording, eventType string, x, y int,
	noteName string, frequency float64, audioFile, metadata string) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := unixNow()
	_, err := s.db.Exec(`
		INSERT INTO events
		(session_id, timestamp, relative_time, event_type, x, y, note_name, frequency, audio_file, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.id, ts, ts-rec.start, eventType, x, y,
		nullStr(noteName), nullF64(frequency), nullStr(audioFile), nullStr(metadata))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// insertLEDChange appends one LED change row for an attached recording.
func (s *Store) insertLEDChange(rec *Recording, x, y int, color [3]uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := unixNow()
	_, err := s.db.Exec(`
		INSERT INTO led_changes
		(session_id, timestamp, relative_time, x, y, color_r, color_g, color_b)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.id, ts, ts-rec.start, x, y, color[0], color[1], color[2])
	if err != nil {
		return fmt.Errorf("insert led change: %w", err)
	}
	return nil
}

// endSession stamps end_time/duration/total_events and clears the current
// pointer. Pattern detection runs after the row is finalized.
func (s *Store) endSession(rec *Recording) error {
	s.mu.Lock()

	end := unixNow()
	duration := end - rec.start

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE session_id = ?`, rec.id).Scan(&total); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("count events: %w", err)
	}

	if _, err := s.db.Exec(`
		UPDATE sessions SET end_time = ?, duration = ?, total_events = ? WHERE id = ?
	`, end, duration, total, rec.id); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("finalize session: %w", err)
	}

	if s.current == rec {
		s.current = nil
	}
	s.mu.Unlock()

	debug.Log("store", "session %d ended: duration=%.2fs events=%d", rec.id, duration, total)

	// Synchronous by design: O(n^2) over press counts that stay small.
	return s.DetectPatterns(rec.id)
}

// GetSession returns session metadata, or nil if the id is unknown.
func (s *Store) GetSession(id int64) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, start_time, end_time, duration, user_profile, config_name,
		       scale, model_name, total_events, notes
		FROM sessions WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return sess, nil
}

// ListSessions returns recent sessions, newest first, optionally filtered
// by user profile. Pass profile "" for all profiles.
func (s *Store) ListSessions(profile string, limit int) ([]Session, error) {
	query := `
		SELECT id, start_time, end_time, duration, user_profile, config_name,
		       scale, model_name, total_events, notes
		FROM sessions
	`
	args := []any{}
	if profile != "" {
		query += ` WHERE user_profile = ?`
		args = append(args, profile)
	}
	query += ` ORDER BY start_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// SessionEvents returns all events for a session ordered by relative time.
func (s *Store) SessionEvents(id int64) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, timestamp, relative_time, event_type, x, y,
		       note_name, frequency, audio_file, metadata
		FROM events
		WHERE session_id = ?
		ORDER BY relative_time ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var noteName, audioFile, metadata sql.NullString
		var frequency sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.RelativeTime,
			&e.Type, &e.X, &e.Y, &noteName, &frequency, &audioFile, &metadata); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.NoteName = noteName.String
		e.Frequency = frequency.Float64
		e.AudioFile = audioFile.String
		e.Metadata = metadata.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// SessionLEDChanges returns all LED changes for a session ordered by
// relative time.
func (s *Store) SessionLEDChanges(id int64) ([]LEDChange, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, timestamp, relative_time, x, y, color_r, color_g, color_b
		FROM led_changes
		WHERE session_id = ?
		ORDER BY relative_time ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query led changes: %w", err)
	}
	defer rows.Close()

	var changes []LEDChange
	for rows.Next() {
		var c LEDChange
		var r, g, b int
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Timestamp, &c.RelativeTime,
			&c.X, &c.Y, &r, &g, &b); err != nil {
			return nil, fmt.Errorf("scan led change: %w", err)
		}
		c.Color = [3]uint8{uint8(r), uint8(g), uint8(b)}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// SessionPatterns returns detected patterns ordered by start time.
func (s *Store) SessionPatterns(id int64) ([]Pattern, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, pattern_type, start_time, end_time, description, metadata
		FROM patterns
		WHERE session_id = ?
		ORDER BY start_time ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		var p Pattern
		var desc, metadata sql.NullString
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Type, &p.StartTime,
			&p.EndTime, &desc, &metadata); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		p.Description = desc.String
		p.Metadata = metadata.String
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var endTime, duration sql.NullFloat64
	var profile, configName, scale, modelName, notes sql.NullString

	if err := row.Scan(&sess.ID, &sess.StartTime, &endTime, &duration,
		&profile, &configName, &scale, &modelName, &sess.TotalEvents, &notes); err != nil {
		return nil, err
	}

	if endTime.Valid {
		t := endTime.Float64
		sess.EndTime = &t
	}
	sess.Duration = duration.Float64
	sess.UserProfile = profile.String
	sess.ConfigName = configName.String
	sess.Scale = scale.String
	sess.ModelName = modelName.String
	sess.Notes = notes.String
	return &sess, nil
}

func unixNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullF64(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}
