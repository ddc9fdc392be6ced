package detector

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestLoadCalibrator_NotFound(t *testing.T) {
	req := require.New(t)
	_, err := LoadCalibrator(filepath.Join(t.TempDir(), "missing.json"))
	req.ErrorIs(err, ErrCalibratorNotFound)
	req.ErrorIs(err, os.ErrNotExist)
}

func TestLoadCalibrator_RejectsUnknownVersion(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "cal.json")
	req.NoError(os.WriteFile(path, []byte(`{"version": 99, "coefficients": [1, 1]}`), 0o644))
	_, err := LoadCalibrator(path)
	req.ErrorContains(err, "unsupported calibrator version")
}

func TestCalibratorStore_Lifecycle(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	path := filepath.Join(t.TempDir(), "calibrator", "hybrid_calibrator.json")
	store := NewCalibratorStore(path, log)
	req.Equal(path, store.Path())

	cal, ok := store.Load()
	req.False(ok)
	req.Nil(cal)

	first := &LogisticCalibrator{ID: "first", Version: calibratorVersion, Coefficients: [2]float64{1, 2}, Intercept: -1}
	req.NoError(SaveCalibrator(path, first))
	got, ok := store.Load()
	req.True(ok)
	req.Equal("first", got.(*LogisticCalibrator).ID)

	// Cached until invalidated or the file stamp changes.
	req.Same(store.Current(), store.Current())

	second := &LogisticCalibrator{ID: "second-with-longer-id", Version: calibratorVersion, Coefficients: [2]float64{3, 4}}
	req.NoError(SaveCalibrator(path, second))
	store.Invalidate()
	req.Equal("second-with-longer-id", store.Current().ID)

	req.NoError(os.Remove(path))
	_, ok = store.Load()
	req.False(ok)
}

func TestCalibratorStore_CorruptedArtifact(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "hybrid_calibrator.json")
	req.NoError(os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewCalibratorStore(path, logs.GetLoggerFromLevel(slog.LevelDebug))
	cal, ok := store.Load()
	req.False(ok)
	req.Nil(cal)
}

func TestCalibratorStore_WatchReloads(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "hybrid_calibrator.json")
	store := NewCalibratorStore(path, logs.GetLoggerFromLevel(slog.LevelDebug))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	req.NoError(SaveCalibrator(path, &LogisticCalibrator{ID: "watched", Version: calibratorVersion}))

	req.Eventually(func() bool {
		c := store.Current()
		return c != nil && c.ID == "watched"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	req.NoError(<-done)
}
