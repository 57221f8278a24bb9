package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "roundtrip")
	id := rec.SessionID()

	require.NoError(t, rec.RecordPress(0, 1, "C3", 130.81, "", nil))
	require.NoError(t, rec.RecordLEDChange(0, 1, [3]uint8{255, 0, 0}))
	require.NoError(t, rec.RecordRelease(0, 1, "C3", nil))
	require.NoError(t, rec.RecordLEDChange(0, 1, [3]uint8{0, 0, 0}))

	// Synthetic rapid run so the export carries pattern rows too.
	for i, rel := range []float64{5, 5.1, 5.2} {
		insertPress(t, store, id, rel, i, 2)
	}
	require.NoError(t, rec.End())

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, store.ExportSession(id, path))

	newID, err := store.ImportSession(path)
	require.NoError(t, err)
	assert.NotEqual(t, id, newID, "import must mint a fresh session id")

	orig, err := store.GetSession(id)
	require.NoError(t, err)
	copied, err := store.GetSession(newID)
	require.NoError(t, err)
	require.NotNil(t, copied)

	assert.Equal(t, orig.UserProfile, copied.UserProfile)
	assert.Equal(t, orig.Scale, copied.Scale)
	assert.InDelta(t, orig.StartTime, copied.StartTime, 1e-9)
	assert.InDelta(t, orig.Duration, copied.Duration, 1e-9)
	assert.Equal(t, orig.TotalEvents, copied.TotalEvents)
	require.NotNil(t, copied.EndTime)
	assert.InDelta(t, *orig.EndTime, *copied.EndTime, 1e-9)

	origEvents, err := store.SessionEvents(id)
	require.NoError(t, err)
	copiedEvents, err := store.SessionEvents(newID)
	require.NoError(t, err)
	require.Len(t, copiedEvents, len(origEvents))
	for i := range origEvents {
		assert.Equal(t, origEvents[i].Type, copiedEvents[i].Type)
		assert.Equal(t, origEvents[i].X, copiedEvents[i].X)
		assert.Equal(t, origEvents[i].Y, copiedEvents[i].Y)
		assert.InDelta(t, origEvents[i].RelativeTime, copiedEvents[i].RelativeTime, 1e-9)
	}

	origLEDs, err := store.SessionLEDChanges(id)
	require.NoError(t, err)
	copiedLEDs, err := store.SessionLEDChanges(newID)
	require.NoError(t, err)
	require.Len(t, copiedLEDs, len(origLEDs))
	for i := range origLEDs {
		assert.Equal(t, origLEDs[i].Color, copiedLEDs[i].Color)
		assert.InDelta(t, origLEDs[i].RelativeTime, copiedLEDs[i].RelativeTime, 1e-9)
	}

	origPatterns, err := store.SessionPatterns(id)
	require.NoError(t, err)
	copiedPatterns, err := store.SessionPatterns(newID)
	require.NoError(t, err)
	require.NotEmpty(t, origPatterns)
	require.Len(t, copiedPatterns, len(origPatterns))
	for i := range origPatterns {
		assert.Equal(t, origPatterns[i].Type, copiedPatterns[i].Type)
		assert.Equal(t, origPatterns[i].Description, copiedPatterns[i].Description)
	}
}

func TestExportMissingSession(t *testing.T) {
	store := openTestStore(t)
	path := filepath.Join(t.TempDir(), "out.json")
	err := store.ExportSession(424242, path)
	assert.Error(t, err)
}

func TestExportDocumentKeys(t *testing.T) {
	store := openTestStore(t)
	rec := startTestSession(t, store, "keys")
	require.NoError(t, rec.RecordPress(3, 3, "D3", 146.83, "", nil))
	require.NoError(t, rec.End())

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, store.ExportSession(rec.SessionID(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"session", "events", "led_changes", "patterns", "exported_at"} {
		assert.Contains(t, doc, key)
	}

	var events []map[string]any
	require.NoError(t, json.Unmarshal(doc["events"], &events))
	require.Len(t, events, 1)
	assert.Equal(t, "button_press", events[0]["event_type"])
	assert.Equal(t, "D3", events[0]["note_name"])
}

func TestImportRejectsGarbage(t *testing.T) {
	store := openTestStore(t)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"events": []}`), 0644))

	_, err := store.ImportSession(path)
	assert.Error(t, err)

	_, err = store.ImportSession(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
