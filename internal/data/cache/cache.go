package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

type MissReason int

const (
	MissReasonNone MissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNotFound
)

func (r MissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode changed"
	case MissReasonSize:
		return "size changed"
	case MissReasonModTime:
		return "mtime changed"
	case MissReasonFingerprint:
		return "content changed"
	case MissReasonNotFound:
		return "not cached"
	default:
		return "unknown"
	}
}

type Result struct {
	Design     *model.SessionDesign
	Found      bool
	MissReason MissReason
}

type ValidateResult struct {
	Valid      bool
	MissReason MissReason
}

// Cache stores computed session designs keyed by session ID (the events
// file base name). A cached design is reused only while the events file
// it came from is byte-identical.
type Cache interface {
	Get(sessionId string) Result
	Set(sessionId string, design *model.SessionDesign) error
	Clear() error
	Preload() error
	BatchValidate(sessionIds []string) map[string]ValidateResult
}

type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*model.SessionDesign
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*model.SessionDesign),
	}, nil
}

// SessionId derives the cache key from an events file path, e.g.
// "/data/sub-001/func/sub-001_task-fear_run-1_events.tsv" ->
// "sub-001_task-fear_run-1_events".
func SessionId(filePath string) string {
	filename := filepath.Base(filePath)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func (c *FileCache) Get(sessionId string) Result {
	// Full lock: a hit promotes the entry into the memory layer.
	c.mu.Lock()
	defer c.mu.Unlock()

	if design, exists := c.memoryCache[sessionId]; exists {
		if reason := c.validate(design); reason == MissReasonNone {
			return Result{Design: design, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, sessionId)
	}

	return c.getFromFile(sessionId)
}

func (c *FileCache) getFromFile(sessionId string) Result {
	cachePath := filepath.Join(c.baseDir, sessionId+".json")

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return Result{Found: false, MissReason: MissReasonNotFound}
	}

	var design model.SessionDesign
	if err := sonic.Unmarshal(data, &design); err != nil {
		util.LogDebug(fmt.Sprintf("Discarding unreadable cache entry %s: %v", cachePath, err))
		return Result{Found: false, MissReason: MissReasonError}
	}

	if reason := c.validate(&design); reason != MissReasonNone {
		return Result{Found: false, MissReason: reason}
	}

	c.memoryCache[sessionId] = &design

	return Result{Design: &design, Found: true, MissReason: MissReasonNone}
}

// validate checks whether the events file a design was derived from is
// unchanged: inode, size, and modification time first, then the content
// fingerprint.
func (c *FileCache) validate(design *model.SessionDesign) MissReason {
	currentInfo, err := util.GetFileInfo(design.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache validation failed for %s: %v", design.FilePath, err))
		return MissReasonError
	}

	if currentInfo.Inode != design.Inode {
		return MissReasonInode
	}
	if currentInfo.Size != design.FileSize {
		return MissReasonSize
	}
	if currentInfo.ModTime != design.LastModified {
		return MissReasonModTime
	}

	fingerprint, err := util.CalculateFileFingerprint(design.FilePath)
	if err != nil || fingerprint != design.ContentFingerprint {
		return MissReasonFingerprint
	}

	return MissReasonNone
}

func (c *FileCache) Set(sessionId string, design *model.SessionDesign) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fileInfo, err := util.GetFileInfo(design.FilePath)
	if err != nil {
		return err
	}

	design.LastModified = fileInfo.ModTime
	design.FileSize = fileInfo.Size
	design.Inode = fileInfo.Inode

	fingerprint, err := util.CalculateFileFingerprint(design.FilePath)
	if err != nil {
		return err
	}
	design.ContentFingerprint = fingerprint

	if design.SessionId == "" {
		design.SessionId = sessionId
	}

	data, err := sonic.MarshalIndent(design, "", "  ")
	if err != nil {
		return err
	}

	cachePath := filepath.Join(c.baseDir, sessionId+".json")
	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		return err
	}

	c.memoryCache[sessionId] = design

	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*model.SessionDesign)

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.baseDir, entry.Name())); err != nil {
				return err
			}
		}
	}

	return nil
}

// Preload loads every cache file into the memory layer. Invalid entries
// are skipped; they will be recomputed and overwritten.
func (c *FileCache) Preload() error {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	loaded := 0
	invalid := 0

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(c.baseDir, entry.Name()))
		if err != nil {
			invalid++
			continue
		}

		var design model.SessionDesign
		if err := sonic.Unmarshal(data, &design); err != nil {
			invalid++
			continue
		}

		if c.validate(&design) != MissReasonNone {
			invalid++
			continue
		}

		sessionId := strings.TrimSuffix(entry.Name(), ".json")
		c.memoryCache[sessionId] = &design
		loaded++
	}

	util.LogDebug(fmt.Sprintf("Cache preload complete: %d loaded, %d invalid", loaded, invalid))
	return nil
}

func (c *FileCache) BatchValidate(sessionIds []string) map[string]ValidateResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]ValidateResult, len(sessionIds))

	for _, sessionId := range sessionIds {
		if design, exists := c.memoryCache[sessionId]; exists {
			reason := c.validate(design)
			result[sessionId] = ValidateResult{Valid: reason == MissReasonNone, MissReason: reason}
			continue
		}

		fileResult := c.getFromFile(sessionId)
		result[sessionId] = ValidateResult{Valid: fileResult.Found, MissReason: fileResult.MissReason}
	}

	validCount := 0
	for _, r := range result {
		if r.Valid {
			validCount++
		}
	}
	util.LogDebug(fmt.Sprintf("Batch validation complete: %d sessions, %d valid", len(sessionIds), validCount))

	return result
}
