package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvents(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func sampleDesign(filePath string) *model.SessionDesign {
	return &model.SessionDesign{
		SessionId: SessionId(filePath),
		FilePath:  filePath,
		Design: model.Design{
			Conditions: []string{"CS-_first", "FIXATION"},
			Timings: map[string]model.Timing{
				"CS-_first": {Onsets: []float64{2}, Durations: []float64{6}, Amplitudes: []float64{1}},
				"FIXATION":  {Onsets: []float64{8}, Durations: []float64{2}, Amplitudes: []float64{1}},
			},
		},
	}
}

func TestSessionId(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/data/sub-001/func/sub-001_task-fear_run-1_events.tsv", "sub-001_task-fear_run-1_events"},
		{"run-2_events.csv", "run-2_events"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SessionId(tt.path))
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	events := writeEvents(t, dir, "run-1_events.tsv", "onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n")

	c, err := NewFileCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	design := sampleDesign(events)
	require.NoError(t, c.Set(design.SessionId, design))

	result := c.Get(design.SessionId)
	require.True(t, result.Found)
	assert.Equal(t, design.Design.Conditions, result.Design.Design.Conditions)
	assert.NotEmpty(t, result.Design.ContentFingerprint)
}

func TestGetMissesWhenFileChanges(t *testing.T) {
	dir := t.TempDir()
	events := writeEvents(t, dir, "run-1_events.tsv", "onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n")

	c, err := NewFileCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	design := sampleDesign(events)
	require.NoError(t, c.Set(design.SessionId, design))

	// Grow the file; size check must invalidate the entry.
	require.NoError(t, os.WriteFile(events, []byte("onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n8.0\t6.0\tCSS\n"), 0644))

	result := c.Get(design.SessionId)
	assert.False(t, result.Found)
	assert.NotEqual(t, MissReasonNone, result.MissReason)
}

func TestGetMissesWhenContentChangesInPlace(t *testing.T) {
	dir := t.TempDir()
	content := "onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n"
	events := writeEvents(t, dir, "run-1_events.tsv", content)

	c, err := NewFileCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	design := sampleDesign(events)
	require.NoError(t, c.Set(design.SessionId, design))

	// Same size, different bytes. Restore the original modtime so only
	// the fingerprint can catch the edit.
	info, err := os.Stat(events)
	require.NoError(t, err)
	swapped := "onset\tduration\ttrial_type\n2.0\t6.0\tCSS\n"
	require.Equal(t, len(content), len(swapped))
	require.NoError(t, os.WriteFile(events, []byte(swapped), 0644))
	require.NoError(t, os.Chtimes(events, time.Now(), info.ModTime()))

	result := c.Get(design.SessionId)
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonFingerprint, result.MissReason)
}

func TestGetNotFound(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	result := c.Get("missing_events")
	assert.False(t, result.Found)
	assert.Equal(t, MissReasonNotFound, result.MissReason)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	events := writeEvents(t, dir, "run-1_events.tsv", "onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n")

	cacheDir := filepath.Join(dir, "cache")
	c, err := NewFileCache(cacheDir)
	require.NoError(t, err)

	design := sampleDesign(events)
	require.NoError(t, c.Set(design.SessionId, design))
	require.NoError(t, c.Clear())

	assert.False(t, c.Get(design.SessionId).Found)
	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPreloadAndBatchValidate(t *testing.T) {
	dir := t.TempDir()
	eventsA := writeEvents(t, dir, "run-1_events.tsv", "onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n")
	eventsB := writeEvents(t, dir, "run-2_events.tsv", "onset\tduration\ttrial_type\n4.0\t6.0\tCSS\n")

	cacheDir := filepath.Join(dir, "cache")
	first, err := NewFileCache(cacheDir)
	require.NoError(t, err)
	require.NoError(t, first.Set(SessionId(eventsA), sampleDesign(eventsA)))
	require.NoError(t, first.Set(SessionId(eventsB), sampleDesign(eventsB)))

	// Invalidate run-2 by appending a trial.
	f, err := os.OpenFile(eventsB, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("10.0\t6.0\tCSR\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Fresh cache instance simulating a new process.
	second, err := NewFileCache(cacheDir)
	require.NoError(t, err)
	require.NoError(t, second.Preload())

	results := second.BatchValidate([]string{
		SessionId(eventsA), SessionId(eventsB), "run-3_events",
	})
	assert.True(t, results[SessionId(eventsA)].Valid)
	assert.False(t, results[SessionId(eventsB)].Valid)
	assert.False(t, results["run-3_events"].Valid)
	assert.Equal(t, MissReasonNotFound, results["run-3_events"].MissReason)
}
