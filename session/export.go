package session

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"padtrace/debug"
)

// ExportDocument is the single serializable structure holding everything
// needed to reconstruct a session's timeline offline.
type ExportDocument struct {
	Session    *Session    `json:"session"`
	Events     []Event     `json:"events"`
	LEDChanges []LEDChange `json:"led_changes"`
	Patterns   []Pattern   `json:"patterns"`
	ExportedAt string      `json:"exported_at"`
}

// ExportSession writes a session and all of its rows to a JSON file.
func (s *Store) ExportSession(id int64, path string) error {
	doc, err := s.exportDocument(id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	debug.Log("export", "session %d exported to %s", id, path)
	return nil
}

func (s *Store) exportDocument(id int64) (*ExportDocument, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %d not found", id)
	}

	events, err := s.SessionEvents(id)
	if err != nil {
		return nil, err
	}
	leds, err := s.SessionLEDChanges(id)
	if err != nil {
		return nil, err
	}
	patterns, err := s.SessionPatterns(id)
	if err != nil {
		return nil, err
	}

	return &ExportDocument{
		Session:    sess,
		Events:     events,
		LEDChanges: leds,
		Patterns:   patterns,
		ExportedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// ImportSession reads an export document and recreates the session under a
// fresh id. Row ids are reassigned; relative ordering is preserved.
func (s *Store) ImportSession(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read export: %w", err)
	}

	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parse export: %w", err)
	}
	if doc.Session == nil {
		return 0, fmt.Errorf("export %s has no session", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := doc.Session
	res, err := s.db.Exec(`
		INSERT INTO sessions (start_time, end_time, duration, user_profile,
		                      config_name, scale, model_name, total_events, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.StartTime, endTimeArg(sess), sess.Duration, sess.UserProfile,
		sess.ConfigName, sess.Scale, sess.ModelName, sess.TotalEvents, sess.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}

	for _, e := range doc.Events {
		if _, err := s.db.Exec(`
			INSERT INTO events
			(session_id, timestamp, relative_time, event_type, x, y, note_name, frequency, audio_file, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, e.Timestamp, e.RelativeTime, e.Type, e.X, e.Y,
			nullStr(e.NoteName), nullF64(e.Frequency), nullStr(e.AudioFile), nullStr(e.Metadata)); err != nil {
			return 0, fmt.Errorf("insert event: %w", err)
		}
	}
	for _, c := range doc.LEDChanges {
		if _, err := s.db.Exec(`
			INSERT INTO led_changes
			(session_id, timestamp, relative_time, x, y, color_r, color_g, color_b)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, c.Timestamp, c.RelativeTime, c.X, c.Y, c.Color[0], c.Color[1], c.Color[2]); err != nil {
			return 0, fmt.Errorf("insert led change: %w", err)
		}
	}
	for _, p := range doc.Patterns {
		if _, err := s.db.Exec(`
			INSERT INTO patterns (session_id, pattern_type, start_time, end_time, description, metadata)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, p.Type, p.StartTime, p.EndTime, p.Description, nullStr(p.Metadata)); err != nil {
			return 0, fmt.Errorf("insert pattern: %w", err)
		}
	}

	debug.Log("export", "imported %s as session %d", path, id)
	return id, nil
}

func endTimeArg(sess *Session) any {
	if sess.EndTime == nil {
		return nil
	}
	return *sess.EndTime
}
