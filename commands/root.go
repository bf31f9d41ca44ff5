package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/analyzer"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

var (
	// Logging related
	debug bool

	// Data path
	dataDir string

	// Output related
	outputFormat string
	formatAlias  string
	exportDir    string

	// Behavior
	reset       bool
	watch       bool
	concurrency int

	rootCmd = &cobra.Command{
		Use:   "narsad-design [flags]",
		Short: "fMRI condition and contrast design builder",
		Long: `narsad-design builds first-level GLM design inputs from BIDS events files.

The tool scans a dataset for *_events.tsv / *_events.csv files, splits each
cue family (CS-, CSS, CSR) into its first occurrence and the remainder,
collects per-condition timing arrays, and derives the pairwise contrast
table. Results are cached per session and invalidated when the events file
changes.

Examples:
  narsad-design --dir /data/narsad                      # Analyze a dataset
  narsad-design --dir sub-001_task-fear_events.tsv      # Analyze a single run
  narsad-design --output json                           # Output in JSON format
  narsad-design --export-dir ./designs                  # Write design JSON and contrast CSV files
  narsad-design --watch                                 # Rebuild whenever an events file changes`,
		RunE: runBuild,
	}
)

const (
	defaultLogFile  = "~/.narsad-design/logs/app.log"
	defaultCacheDir = "~/.narsad-design/cache"
)

func init() {
	// Input data configuration
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", ".",
		"Dataset directory or single events file")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&formatAlias, "format", "",
		"Alias for --output")
	rootCmd.Flags().StringVarP(&exportDir, "export-dir", "e", "",
		"Directory to write per-session design JSON and contrast CSV files")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.Flags().BoolVarP(&reset, "reset", "r", false,
		"Clear cache before building")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false,
		"Watch the dataset and rebuild on events file changes")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0,
		"Number of files to load in parallel (0 = number of CPUs)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	// Determine log level based on debug flag
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	// Handle format alias
	if format := cmd.Flags().Lookup("format"); format != nil && format.Changed {
		outputFormat = formatAlias
	}

	// Initialize logging
	logFile := expandPath(defaultLogFile)
	ensureDir(filepath.Dir(logFile))
	util.InitLogger(logLevel, logFile, debug)

	// Expand paths
	dataDir = expandPath(dataDir)
	cacheDir := expandPath(defaultCacheDir)
	if exportDir != "" {
		exportDir = expandPath(exportDir)
	}

	if err := ensureDir(cacheDir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if concurrency == 0 {
		concurrency = runtime.NumCPU()
	}

	config := &analyzer.Config{
		DataDir:      dataDir,
		CacheDir:     cacheDir,
		OutputFormat: outputFormat,
		ExportDir:    exportDir,
		Concurrency:  concurrency,
	}

	a, err := analyzer.New(config)
	if err != nil {
		return err
	}

	if reset {
		if err := a.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	if watch {
		return a.Watch()
	}
	return a.Run()
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
