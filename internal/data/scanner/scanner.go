package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

// eventsSuffixes are the file name endings recognized as events tables.
var eventsSuffixes = []string{"_events.tsv", "_events.csv"}

// IsEventsFile reports whether path names an events table.
func IsEventsFile(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range eventsSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// FileScanner finds events tables under a dataset directory.
type FileScanner struct {
	baseDir string
}

// NewFileScanner creates a new FileScanner instance.
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{baseDir: baseDir}
}

// Scan walks the dataset directory and returns every events file path.
// When baseDir names a single file, that file is returned directly so
// a subject's run can be analyzed in isolation.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()

	info, err := os.Stat(s.baseDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !IsEventsFile(s.baseDir) {
			return nil, fmt.Errorf("%s is not an events file", s.baseDir)
		}
		return []string{s.baseDir}, nil
	}

	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning dataset directory: %s", s.baseDir))

	err = filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip path (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if IsEventsFile(path) {
			files = append(files, path)
		}

		return nil
	})

	util.LogDebug(fmt.Sprintf("Dataset scan completed: duration %v, scanned %d directories, %d files, found %d events files",
		time.Since(start), dirCount, totalCount, len(files)))

	return files, err
}
