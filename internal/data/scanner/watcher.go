package scanner

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

// FileEvent represents a change to an events file under watch.
type FileEvent struct {
	Path      string
	Operation string
}

// FileWatcher reports changes to events tables under a dataset
// directory, so watch mode can rebuild designs when a run's events file
// is added or edited.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	events  chan FileEvent
}

// NewFileWatcher starts watching the given dataset directory,
// recursively.
func NewFileWatcher(baseDir string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		events:  make(chan FileEvent, 100),
	}

	if err := fw.addPath(baseDir); err != nil {
		watcher.Close()
		return nil, err
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	// Watch every directory under the dataset root; fsnotify does not
	// recurse on its own.
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			return fw.watcher.Add(p)
		}

		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}

			// New subdirectories (e.g. a freshly synced subject)
			// must be added to the watch set.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.watcher.Add(event.Name); err != nil {
						util.LogWarn("Failed to watch new directory " + event.Name + ": " + err.Error())
					}
					continue
				}
			}

			if IsEventsFile(event.Name) {
				fw.events <- FileEvent{
					Path:      event.Name,
					Operation: event.Op.String(),
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				close(fw.events)
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events returns the channel of events-file changes.
func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
