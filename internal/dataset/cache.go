package dataset

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	apperrors "brandlens/internal/errors"
)

const snapshotVersion = "v1"

// fileMarker identifies one state of the source file. The cache holds a
// single entry and revalidates against this marker on every Get.
type fileMarker struct {
	ModTime time.Time
	Size    int64
}

// Cache keeps the one active Dataset and reloads it only when the source
// file changes. It also persists a gob snapshot so a restart against an
// unchanged file skips the parse entirely. Construct independent instances
// per test; there is no package-level state.
type Cache struct {
	mu          sync.RWMutex
	loader      *Loader
	path        string
	snapshotDir string
	logger      *slog.Logger

	marker fileMarker
	ds     *Dataset
}

func NewCache(loader *Loader, path, snapshotDir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		loader:      loader,
		path:        path,
		snapshotDir: snapshotDir,
		logger:      logger,
	}
}

// Get returns the cleaned Dataset for the configured source file, loading or
// reloading it only when the file's (mtime, size) marker changed.
func (c *Cache) Get(ctx context.Context) (*Dataset, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, apperrors.DataUnavailableWrap(err, fmt.Sprintf("cannot stat source file %s", c.path))
	}
	current := fileMarker{ModTime: info.ModTime(), Size: info.Size()}

	c.mu.RLock()
	if c.ds != nil && c.marker == current {
		ds := c.ds
		c.mu.RUnlock()
		return ds, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if c.ds != nil && c.marker == current {
		return c.ds, nil
	}

	if snap, err := c.loadSnapshot(); err == nil && snap.Marker == current && strings.EqualFold(snap.Dataset.Brand, c.loader.brand) {
		c.ds = snap.Dataset
		c.marker = current
		c.logger.Info("dataset restored from snapshot", "file", c.path, "rows", len(snap.Dataset.Rows))
		return c.ds, nil
	}

	ds, err := c.loader.Load(ctx, c.path)
	if err != nil {
		return nil, err
	}

	c.ds = ds
	c.marker = current

	if err := c.saveSnapshot(snapshot{Marker: current, Dataset: ds}); err != nil {
		c.logger.Warn("failed to save dataset snapshot", "error", err)
	}

	return ds, nil
}

// Invalidate drops the cached entry so the next Get reloads from source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ds = nil
	c.marker = fileMarker{}
}

type snapshot struct {
	Marker  fileMarker
	Dataset *Dataset
}

func (c *Cache) snapshotFilename() string {
	return fmt.Sprintf("%s/%s_%s.gob", c.snapshotDir, strings.ReplaceAll(c.path, "/", "_"), snapshotVersion)
}

func (c *Cache) saveSnapshot(snap snapshot) error {
	if c.snapshotDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.snapshotDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(c.snapshotFilename())
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snap)
}

func (c *Cache) loadSnapshot() (snapshot, error) {
	if c.snapshotDir == "" {
		return snapshot{}, fmt.Errorf("snapshots disabled")
	}

	file, err := os.Open(c.snapshotFilename())
	if err != nil {
		return snapshot{}, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return snapshot{}, err
	}
	if snap.Dataset == nil {
		return snapshot{}, fmt.Errorf("snapshot missing dataset")
	}
	return snap, nil
}
