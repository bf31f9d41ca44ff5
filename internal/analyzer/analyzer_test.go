package analyzer

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/presentation/formatter"
)

const eventsTable = "onset\tduration\ttrial_type\n" +
	"2.0\t6.0\tCS-\n" +
	"8.0\t6.0\tCSS\n" +
	"14.0\t6.0\tCSR\n" +
	"20.0\t6.0\tCS-\n" +
	"26.0\t6.0\tCSS\n" +
	"32.0\t6.0\tCSR\n" +
	"38.0\t2.0\tFIXATION\n"

func writeDataset(t *testing.T, sessions ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, session := range sessions {
		runDir := filepath.Join(dir, session, "func")
		require.NoError(t, os.MkdirAll(runDir, 0755))
		path := filepath.Join(runDir, session+"_task-fear_events.tsv")
		require.NoError(t, os.WriteFile(path, []byte(eventsTable), 0644))
	}
	return dir
}

func TestAnalyzerConfigDefaults(t *testing.T) {
	config := &Config{
		DataDir:  t.TempDir(),
		CacheDir: t.TempDir(),
	}

	a, err := New(config)
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), config.Concurrency)
	assert.NotNil(t, a.config)
	assert.NotNil(t, a.cache)
	assert.NotNil(t, a.scanner)
	assert.NotNil(t, a.loader)
}

func TestAnalyzerConcurrencyConfig(t *testing.T) {
	config := &Config{
		DataDir:     t.TempDir(),
		CacheDir:    t.TempDir(),
		Concurrency: 8,
	}

	_, err := New(config)
	require.NoError(t, err)
	assert.Equal(t, 8, config.Concurrency)
}

func TestAnalyzerRunEndToEnd(t *testing.T) {
	dataDir := writeDataset(t, "sub-001", "sub-002")
	cacheDir := t.TempDir()
	exportDir := filepath.Join(t.TempDir(), "designs")

	config := &Config{
		DataDir:      dataDir,
		CacheDir:     cacheDir,
		OutputFormat: "summary",
		ExportDir:    exportDir,
	}

	a, err := New(config)
	require.NoError(t, err)
	require.NoError(t, a.Run())

	// One cache entry and two export artifacts per session.
	for _, session := range []string{"sub-001_task-fear_events", "sub-002_task-fear_events"} {
		assert.FileExists(t, filepath.Join(cacheDir, session+".json"))
		assert.FileExists(t, filepath.Join(exportDir, session+"_design.json"))
		assert.FileExists(t, filepath.Join(exportDir, session+"_contrasts.csv"))
	}

	// Second run is served from cache.
	require.NoError(t, a.Run())
}

func TestAnalyzerRunSingleFile(t *testing.T) {
	dataDir := writeDataset(t, "sub-001")
	file := filepath.Join(dataDir, "sub-001", "func", "sub-001_task-fear_events.tsv")

	config := &Config{
		DataDir:      file,
		CacheDir:     t.TempDir(),
		OutputFormat: "summary",
	}

	a, err := New(config)
	require.NoError(t, err)
	assert.NoError(t, a.Run())
}

func TestAnalyzerRunNoFiles(t *testing.T) {
	config := &Config{
		DataDir:      t.TempDir(),
		CacheDir:     t.TempDir(),
		OutputFormat: "summary",
	}

	a, err := New(config)
	require.NoError(t, err)

	err = a.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no events files found")
}

func TestAnalyzerRunSkipsBrokenFiles(t *testing.T) {
	dataDir := writeDataset(t, "sub-001")
	broken := filepath.Join(dataDir, "sub-002_task-fear_events.tsv")
	require.NoError(t, os.WriteFile(broken, []byte("onset\tduration\n1.0\t2.0\n"), 0644))

	config := &Config{
		DataDir:      dataDir,
		CacheDir:     t.TempDir(),
		OutputFormat: "summary",
	}

	a, err := New(config)
	require.NoError(t, err)

	// The broken file (missing trial_type) is logged and skipped; the
	// valid session still produces output.
	assert.NoError(t, a.Run())
}

func TestAnalyzerRunAllBroken(t *testing.T) {
	dataDir := t.TempDir()
	broken := filepath.Join(dataDir, "sub-001_task-fear_events.tsv")
	require.NoError(t, os.WriteFile(broken, []byte("no delimiter here\n"), 0644))

	config := &Config{
		DataDir:      dataDir,
		CacheDir:     t.TempDir(),
		OutputFormat: "summary",
	}

	a, err := New(config)
	require.NoError(t, err)

	err = a.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session produced a valid design")
}

func TestAnalyzerClearCache(t *testing.T) {
	dataDir := writeDataset(t, "sub-001")
	cacheDir := t.TempDir()

	config := &Config{
		DataDir:      dataDir,
		CacheDir:     cacheDir,
		OutputFormat: "summary",
	}

	a, err := New(config)
	require.NoError(t, err)
	require.NoError(t, a.Run())
	assert.FileExists(t, filepath.Join(cacheDir, "sub-001_task-fear_events.json"))

	require.NoError(t, a.ClearCache())
	assert.NoFileExists(t, filepath.Join(cacheDir, "sub-001_task-fear_events.json"))
}

func TestAnalyzerFormatAndOutput(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json format", "json"},
		{"csv format", "csv"},
		{"summary format", "summary"},
		{"table format (default)", "table"},
		{"invalid format defaults to table", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				DataDir:      t.TempDir(),
				CacheDir:     t.TempDir(),
				OutputFormat: tt.format,
			}
			a, err := New(config)
			require.NoError(t, err)

			summaries := []formatter.SessionSummary{
				{
					SessionId: "sub-001_task-fear_events",
					Trials:    7,
					Conditions: []formatter.ConditionSummary{
						{Condition: "CS-_first", Trials: 1, FirstOnset: 2, LastOnset: 2},
					},
				},
			}

			assert.NotPanics(t, func() {
				a.formatAndOutput(summaries)
			})
		})
	}
}
