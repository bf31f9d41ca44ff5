// Package analyzer orchestrates the full pipeline: scan the dataset for
// events files, load them, build the per-session designs, and hand the
// results to a formatter and optionally an exporter.
package analyzer

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/condition"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/data/cache"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/data/loader"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/data/scanner"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/presentation/export"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/presentation/formatter"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

type Config struct {
	DataDir      string
	CacheDir     string
	OutputFormat string
	ExportDir    string // empty disables design export
	Concurrency  int
}

type Analyzer struct {
	config  *Config
	cache   cache.Cache
	scanner *scanner.FileScanner
	loader  *loader.Loader
}

func New(config *Config) (*Analyzer, error) {
	if config.Concurrency == 0 {
		config.Concurrency = runtime.NumCPU()
	}

	fileCache, err := cache.NewFileCache(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	return &Analyzer{
		config:  config,
		cache:   fileCache,
		scanner: scanner.NewFileScanner(config.DataDir),
		loader:  loader.NewLoader(config.Concurrency),
	}, nil
}

func (a *Analyzer) Run() error {
	startTime := time.Now()
	util.LogInfo("Starting design build for dataset: " + a.config.DataDir)

	// Phase 1: Preload cache into memory
	preloadStart := time.Now()
	if err := a.cache.Preload(); err != nil {
		util.LogWarn(fmt.Sprintf("Cache preload failed: %v", err))
	}
	preloadDuration := time.Since(preloadStart)
	util.LogDebug(fmt.Sprintf("Phase 1 - Cache preload duration: %v", preloadDuration))

	// Phase 2: Scan for events files
	scanStart := time.Now()
	files, err := a.scanner.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan dataset: %w", err)
	}
	scanDuration := time.Since(scanStart)
	util.LogDebug(fmt.Sprintf("Phase 2 - Dataset scan duration: %v, found %d files", scanDuration, len(files)))

	if len(files) == 0 {
		return fmt.Errorf("no events files found under %s", a.config.DataDir)
	}

	// Phase 3: Validate cache and split cached vs to-build
	buildStart := time.Now()

	sessionIdMap := make(map[string]string, len(files))
	sessionIds := make([]string, 0, len(files))
	for _, file := range files {
		sessionId := cache.SessionId(file)
		sessionIdMap[file] = sessionId
		sessionIds = append(sessionIds, sessionId)
	}

	validCache := a.cache.BatchValidate(sessionIds)

	var filesToLoad []string
	var cachedFiles []string
	for _, file := range files {
		sessionId := sessionIdMap[file]
		result := validCache[sessionId]
		if result.Valid {
			cachedFiles = append(cachedFiles, file)
		} else {
			filesToLoad = append(filesToLoad, file)
			if result.MissReason != cache.MissReasonNotFound {
				util.LogDebug(fmt.Sprintf("Rebuilding %s: %s", sessionId, result.MissReason))
			}
		}
	}
	util.LogDebug(fmt.Sprintf("Cache hit for %d sessions, need to build %d", len(cachedFiles), len(filesToLoad)))

	designs := make(map[string]*model.SessionDesign, len(files))

	for _, file := range cachedFiles {
		sessionId := sessionIdMap[file]
		cacheResult := a.cache.Get(sessionId)
		if cacheResult.Found && cacheResult.Design != nil {
			designs[sessionId] = cacheResult.Design
		}
	}

	// Phase 4: Load and build the misses concurrently
	failures := 0
	if len(filesToLoad) > 0 {
		// Files land here because they changed or were never built, so
		// any memoized trials for them are stale.
		for _, file := range filesToLoad {
			a.loader.Invalidate(file)
		}
		loadResults := a.loader.LoadFiles(filesToLoad)

		for result := range loadResults {
			sessionId := sessionIdMap[result.File]

			if result.Error != nil {
				failures++
				util.LogWarn(fmt.Sprintf("Failed to load %s: %v", result.File, result.Error))
				continue
			}

			design, err := condition.BuildDesign(result.Trials)
			if err != nil {
				failures++
				util.LogWarn(fmt.Sprintf("Failed to build design for %s: %v", result.File, err))
				continue
			}

			sessionDesign := &model.SessionDesign{
				SessionId: sessionId,
				FilePath:  result.File,
				Design:    design,
			}
			if err := a.cache.Set(sessionId, sessionDesign); err != nil {
				util.LogWarn(fmt.Sprintf("Failed to save cache for %s: %v", result.File, err))
			}

			designs[sessionId] = sessionDesign
		}
	}
	buildDuration := time.Since(buildStart)
	util.LogDebug(fmt.Sprintf("Phase 3/4 - Design build duration: %v, built %d, failed %d",
		buildDuration, len(filesToLoad)-failures, failures))

	if len(designs) == 0 {
		return fmt.Errorf("no session produced a valid design")
	}

	// Phase 5: Summarize, ordered by session ID
	summaries := make([]formatter.SessionSummary, 0, len(designs))
	for sessionId, sd := range designs {
		summaries = append(summaries, formatter.NewSessionSummary(sessionId, sd.FilePath, &sd.Design))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SessionId < summaries[j].SessionId
	})

	// Phase 6: Format and output
	outputStart := time.Now()
	if err := a.formatAndOutput(summaries); err != nil {
		return err
	}
	outputDuration := time.Since(outputStart)
	util.LogDebug(fmt.Sprintf("Phase 6 - Formatting and output duration: %v", outputDuration))

	// Phase 7: Export design artifacts
	if a.config.ExportDir != "" {
		exportStart := time.Now()
		exporter := export.NewExporter(a.config.ExportDir)
		for _, summary := range summaries {
			sd := designs[summary.SessionId]
			if err := exporter.Export(sd.SessionId, &sd.Design); err != nil {
				return fmt.Errorf("failed to export %s: %w", sd.SessionId, err)
			}
		}
		util.LogDebug(fmt.Sprintf("Phase 7 - Export duration: %v, exported %d sessions",
			time.Since(exportStart), len(summaries)))
	}

	totalDuration := time.Since(startTime)
	util.LogDebug(fmt.Sprintf("Total duration: %v (preload:%v scan:%v build:%v output:%v)",
		totalDuration, preloadDuration, scanDuration, buildDuration, outputDuration))

	return nil
}

// Watch re-runs the pipeline whenever an events file under the dataset
// changes. Bursts of events (editors write in several steps) are
// coalesced with a short settle delay.
func (a *Analyzer) Watch() error {
	if err := a.Run(); err != nil {
		return err
	}

	watcher, err := scanner.NewFileWatcher(a.config.DataDir)
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	util.LogInfo("Watching for events file changes (Ctrl+C to stop)...")

	const settle = 500 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			util.LogDebug(fmt.Sprintf("Events file %s: %s", event.Operation, event.Path))
			if timer == nil {
				timer = time.NewTimer(settle)
				timerC = timer.C
			} else {
				timer.Reset(settle)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := a.Run(); err != nil {
				util.LogError("Rebuild failed: " + err.Error())
			}
		}
	}
}

// ClearCache removes every cached design.
func (a *Analyzer) ClearCache() error {
	return a.cache.Clear()
}

func (a *Analyzer) formatAndOutput(summaries []formatter.SessionSummary) error {
	switch a.config.OutputFormat {
	case "json":
		return formatter.NewJSONFormatter().Format(summaries)
	case "csv":
		return formatter.NewCSVFormatter().Format(summaries)
	case "summary":
		return formatter.NewSummaryFormatter().Format(summaries)
	default:
		return formatter.NewTableFormatter().Format(summaries)
	}
}
