package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultCalibratorPath is where the trainer writes the calibrator artifact.
const DefaultCalibratorPath = "calibrator/hybrid_calibrator.json"

// LoadCalibrator decodes the artifact at path. A missing file yields
// ErrCalibratorNotFound.
func LoadCalibrator(path string) (*LogisticCalibrator, error) {
	if path == "" {
		path = DefaultCalibratorPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCalibratorNotFound, path)
		}
		return nil, fmt.Errorf("read calibrator: %w", err)
	}
	var c LogisticCalibrator
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode calibrator: %w", err)
	}
	if c.Version != calibratorVersion {
		return nil, fmt.Errorf("unsupported calibrator version %d", c.Version)
	}
	return &c, nil
}

// SaveCalibrator writes c to path through a temporary file and a rename, so
// readers observe either the old or the new artifact.
func SaveCalibrator(path string, c *LogisticCalibrator) error {
	if c == nil {
		return errors.New("nil calibrator")
	}
	if path == "" {
		path = DefaultCalibratorPath
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create calibrator dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode calibrator: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp calibrator: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename calibrator: %w", err)
	}
	return nil
}

// CalibratorStore lazily loads the calibrator artifact and keeps it until the
// file changes.
type CalibratorStore struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	cached  *LogisticCalibrator
	modTime time.Time
	size    int64
	loaded  bool
}

// NewCalibratorStore creates a store for the artifact at path.
func NewCalibratorStore(path string, logger *slog.Logger) *CalibratorStore {
	if path == "" {
		path = DefaultCalibratorPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalibratorStore{path: path, logger: logger}
}

// Path returns the artifact location.
func (s *CalibratorStore) Path() string {
	return s.path
}

// Load returns the calibrator, or false when none is available. It never
// fails: unreadable artifacts are logged and treated as absent.
func (s *CalibratorStore) Load() (Calibrator, bool) {
	c := s.Current()
	if c == nil {
		return nil, false
	}
	return c, true
}

// Current returns the loaded calibrator or nil.
func (s *CalibratorStore) Current() *LogisticCalibrator {
	info, err := os.Stat(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Calibrator stat failed", "path", s.path, "error", err)
		}
		s.set(nil, time.Time{}, 0)
		return nil
	}

	s.mu.RLock()
	fresh := s.loaded && info.ModTime().Equal(s.modTime) && info.Size() == s.size
	cached := s.cached
	s.mu.RUnlock()
	if fresh {
		return cached
	}

	c, err := LoadCalibrator(s.path)
	if err != nil {
		s.logger.Warn("Calibrator unusable, using weighted fallback", "path", s.path, "error", err)
		s.set(nil, info.ModTime(), info.Size())
		return nil
	}
	s.logger.Info("Loaded calibrator", "path", s.path, "id", c.ID, "samples", c.Samples)
	s.set(c, info.ModTime(), info.Size())
	return c
}

// Invalidate forgets the cached calibrator so the next Load re-reads the file.
func (s *CalibratorStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.cached = nil
}

func (s *CalibratorStore) set(c *LogisticCalibrator, modTime time.Time, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = c
	s.modTime = modTime
	s.size = size
	s.loaded = true
	if c != nil {
		calibratorLoaded.Set(1)
	} else {
		calibratorLoaded.Set(0)
	}
}

// Watch reloads the calibrator whenever the artifact is created, replaced or
// removed. It blocks until ctx is done.
func (s *CalibratorStore) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create calibrator dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.logger.Debug("Calibrator artifact changed", "op", evt.Op.String())
			s.Invalidate()
			s.Current()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Calibrator watcher error", "error", err)
		}
	}
}
