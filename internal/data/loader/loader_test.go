package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/condition"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTabSeparated(t *testing.T) {
	data := []byte("onset\tduration\ttrial_type\n" +
		"2.0\t6.0\tCS-\n" +
		"8.0\t6.0\tCSS\n" +
		"14.0\t2.0\tFIXATION\n")

	trials, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, trials, 3)

	assert.Equal(t, model.TrialRecord{Type: "CS-", Onset: 2.0, Duration: 6.0, Amplitude: 1.0}, trials[0])
	assert.Equal(t, "CSS", trials[1].Type)
	assert.Equal(t, "FIXATION", trials[2].Type)
}

func TestParseCommaSeparated(t *testing.T) {
	data := []byte("trial_type,onset,duration,amplitude\n" +
		"CS-,2.0,6.0,0.5\n" +
		"FIXATION,8.0,2.0,1.0\n")

	trials, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, trials, 2)
	assert.Equal(t, 0.5, trials[0].Amplitude)
	assert.Equal(t, 1.0, trials[1].Amplitude)
}

func TestParseColumnOrderIndependence(t *testing.T) {
	data := []byte("duration\ttrial_type\tonset\n" +
		"6.0\tCSR\t14.5\n")

	trials, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, trials, 1)
	assert.Equal(t, "CSR", trials[0].Type)
	assert.Equal(t, 14.5, trials[0].Onset)
	assert.Equal(t, 6.0, trials[0].Duration)
}

func TestParseAmplitudeDefaults(t *testing.T) {
	data := []byte("onset\tduration\ttrial_type\n1.0\t6.0\tCS-\n")

	trials, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultAmplitude, trials[0].Amplitude)
}

func TestParseSkipsBlankLines(t *testing.T) {
	data := []byte("onset\tduration\ttrial_type\n" +
		"1.0\t6.0\tCS-\n" +
		"\n" +
		"8.0\t6.0\tCSS\n")

	trials, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, trials, 2)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantEmpty bool
	}{
		{
			name:      "empty file",
			data:      "",
			wantEmpty: true,
		},
		{
			name:      "whitespace only",
			data:      "\n  \n\t\n",
			wantEmpty: true,
		},
		{
			name:      "header only",
			data:      "onset\tduration\ttrial_type\n",
			wantEmpty: true,
		},
		{
			name: "missing trial_type column",
			data: "onset\tduration\n1.0\t6.0\n",
		},
		{
			name: "missing onset column",
			data: "trial_type\tduration\nCS-\t6.0\n",
		},
		{
			name: "missing duration column",
			data: "trial_type\tonset\nCS-\t1.0\n",
		},
		{
			name: "non-numeric onset",
			data: "onset\tduration\ttrial_type\nn/a\t6.0\tCS-\n",
		},
		{
			name: "single column header",
			data: "onset\n1.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trials, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, trials)
			if tt.wantEmpty {
				assert.ErrorIs(t, err, condition.ErrEmptyInput)
			} else {
				assert.True(t, condition.IsSchemaError(err), "expected schema error, got %v", err)
			}
		})
	}
}

func TestLoadFileCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub-001_task-fear_run-1_events.tsv")
	content := "onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	l := NewLoader(2)
	first, err := l.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A rewrite is not observed: the loader caches per path for the
	// lifetime of one analysis pass.
	require.NoError(t, os.WriteFile(path, []byte("onset\tduration\ttrial_type\n"), 0644))
	second, err := l.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadFilesConcurrent(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "run-1_events.tsv")
	bad := filepath.Join(dir, "run-2_events.tsv")
	require.NoError(t, os.WriteFile(good, []byte("onset\tduration\ttrial_type\n2.0\t6.0\tCS-\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("onset\n2.0\n"), 0644))

	l := NewLoader(4)
	results := make(map[string]LoadResult)
	for r := range l.LoadFiles([]string{good, bad}) {
		results[r.File] = r
	}

	require.Len(t, results, 2)
	assert.NoError(t, results[good].Error)
	assert.Len(t, results[good].Trials, 1)
	assert.Error(t, results[bad].Error)
}

func BenchmarkParse(b *testing.B) {
	data := []byte("onset\tduration\ttrial_type\n")
	row := "2.0\t6.0\tCS-\n"
	for i := 0; i < 500; i++ {
		data = append(data, row...)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}
