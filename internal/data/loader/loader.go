package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/condition"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

// DefaultAmplitude is used when the events table has no amplitude column.
const DefaultAmplitude = 1.0

// Loader reads BIDS-style events tables into trial records.
type Loader struct {
	concurrency int
	mu          sync.Mutex
	cache       map[string][]model.TrialRecord
}

// LoadResult represents the result of loading a single events file.
type LoadResult struct {
	File   string
	Trials []model.TrialRecord
	Error  error
}

// NewLoader creates a new Loader instance.
func NewLoader(concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		concurrency: concurrency,
		cache:       make(map[string][]model.TrialRecord),
	}
}

// LoadFile parses the events table at the specified path. The delimiter
// (tab or comma) is detected from the header line, and columns may
// appear in any order. trial_type, onset, and duration are required;
// amplitude is optional and defaults to 1.0.
func (l *Loader) LoadFile(path string) ([]model.TrialRecord, error) {
	l.mu.Lock()
	if cached, ok := l.cache[path]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Start loading events file: %s", path))

	data, err := os.ReadFile(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to read events file: %s - %v", path, err))
		return nil, err
	}

	trials, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.mu.Lock()
	l.cache[path] = trials
	l.mu.Unlock()

	return trials, nil
}

// Invalidate drops the memoized trials for a path. Called before
// reloading a file that is known to have changed on disk.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	delete(l.cache, path)
	l.mu.Unlock()
}

// Parse converts the raw bytes of an events table into trial records.
func Parse(data []byte) ([]model.TrialRecord, error) {
	// No content at all is an empty input, not a malformed header.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, condition.ErrEmptyInput
	}

	delimiter, err := detectDelimiter(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed events table: %w", err)
	}
	if len(rows) == 0 {
		return nil, condition.ErrEmptyInput
	}

	columns, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var trials []model.TrialRecord
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		trial := model.TrialRecord{Amplitude: DefaultAmplitude}
		trial.Type = strings.TrimSpace(cell(row, columns.trialType))

		if trial.Onset, err = parseFloat(row, columns.onset, i, "onset"); err != nil {
			return nil, err
		}
		if trial.Duration, err = parseFloat(row, columns.duration, i, "duration"); err != nil {
			return nil, err
		}
		if columns.amplitude >= 0 && cell(row, columns.amplitude) != "" {
			if trial.Amplitude, err = parseFloat(row, columns.amplitude, i, "amplitude"); err != nil {
				return nil, err
			}
		}

		trials = append(trials, trial)
	}

	if len(trials) == 0 {
		return nil, condition.ErrEmptyInput
	}
	return trials, nil
}

// columnIndex holds the positions of the known columns; -1 means absent.
type columnIndex struct {
	trialType int
	onset     int
	duration  int
	amplitude int
}

func mapColumns(header []string) (columnIndex, error) {
	columns := columnIndex{trialType: -1, onset: -1, duration: -1, amplitude: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "trial_type":
			columns.trialType = i
		case "onset":
			columns.onset = i
		case "duration":
			columns.duration = i
		case "amplitude", "weight":
			columns.amplitude = i
		}
	}

	for _, required := range []struct {
		index int
		field string
	}{
		{columns.trialType, "trial_type"},
		{columns.onset, "onset"},
		{columns.duration, "duration"},
	} {
		if required.index < 0 {
			return columns, &condition.SchemaError{Row: -1, Field: required.field, Reason: "column is missing"}
		}
	}
	return columns, nil
}

// detectDelimiter sniffs tab vs comma from the header line. Two
// required columns means any valid header contains at least one
// delimiter.
func detectDelimiter(data []byte) (rune, error) {
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	header := data[:end]

	switch {
	case bytes.ContainsRune(header, '\t'):
		return '\t', nil
	case bytes.ContainsRune(header, ','):
		return ',', nil
	default:
		return 0, &condition.SchemaError{Row: -1, Field: "header", Reason: "has no recognizable delimiter (expected tab or comma)"}
	}
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func parseFloat(row []string, index, rowNum int, field string) (float64, error) {
	raw := strings.TrimSpace(cell(row, index))
	if raw == "" {
		return 0, &condition.SchemaError{Row: rowNum, Field: field, Reason: "is empty"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &condition.SchemaError{Row: rowNum, Field: field, Reason: fmt.Sprintf("is not a number: %q", raw)}
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// LoadFiles loads multiple events files concurrently and returns a
// channel of LoadResult.
func (l *Loader) LoadFiles(files []string) <-chan LoadResult {
	start := time.Now()
	results := make(chan LoadResult, len(files))
	var wg sync.WaitGroup

	util.LogDebug(fmt.Sprintf("Start concurrent loading of %d files, concurrency: %d", len(files), l.concurrency))

	semaphore := make(chan struct{}, l.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			trials, err := l.LoadFile(f)
			if err != nil {
				util.LogDebug(fmt.Sprintf("Events file loading failed: %s - %v", f, err))
			}

			results <- LoadResult{
				File:   f,
				Trials: trials,
				Error:  err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)

		util.LogDebug(fmt.Sprintf("Concurrent loading finished, total duration: %v", time.Since(start)))
	}()

	return results
}
