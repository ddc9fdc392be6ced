package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	req := require.New(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	req.NoError(err)

	req.Equal(DefaultWeights, cfg.Hybrid.Weights)
	req.Equal(DefaultThresholds, cfg.Hybrid.Thresholds)
	req.Equal(DefaultASLPenalty, cfg.Features.ASLPenalty)
	req.False(cfg.Features.DisableFavoriteTokens)
	req.Equal(DefaultMaxChars, cfg.Model.MaxChars)
	req.Equal([]string{"POSITIVE", "AI", "FAKE"}, cfg.Model.AILabels)
	req.Equal(DefaultCalibratorPath, cfg.Calibrator.Path)
	req.Equal(int64(42), cfg.Training.Seed)
	req.InDelta(0.2, cfg.Training.TestRatio, 1e-12)
	req.Equal(":8080", cfg.Server.Addr)
}

func TestLoadConfig_JSONAndYAML(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	req.NoError(os.WriteFile(jsonPath, []byte(`{
  "features": {"aslPenalty": 2.0, "disableFavoriteTokens": true},
  "hybrid": {"thresholds": {"high": 80, "low": 40}},
  "cache": {"dir": "`+filepath.ToSlash(filepath.Join(dir, "cache"))+`"}
}`), 0o644))
	cfg, err := LoadConfig(jsonPath)
	req.NoError(err)
	req.Equal(2.0, cfg.Features.ASLPenalty)
	req.True(cfg.Features.DisableFavoriteTokens)
	req.Equal(Thresholds{High: 80, Low: 40}, cfg.Hybrid.Thresholds)
	req.DirExists(filepath.Join(dir, "cache"))

	yamlPath := filepath.Join(dir, "config.yaml")
	req.NoError(os.WriteFile(yamlPath, []byte("model:\n  aiLabels: [MACHINE]\ncalibrator:\n  path: out/cal.json\n"), 0o644))
	cfg, err = LoadConfig(yamlPath)
	req.NoError(err)
	req.Equal([]string{"MACHINE"}, cfg.Model.AILabels)
	req.Equal("out/cal.json", cfg.Calibrator.Path)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("AILIAN_MODEL_PATH", "/models/detector.onnx")
	t.Setenv("AILIAN_CALIBRATOR_PATH", "/tmp/cal.json")
	t.Setenv("AILIAN_LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.json"))
	req.NoError(err)
	req.Equal("/models/detector.onnx", cfg.Model.ModelPath)
	req.Equal("/tmp/cal.json", cfg.Calibrator.Path)
	req.Equal("DEBUG", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "config.json")
	req.NoError(os.WriteFile(path, []byte(`{"hybrid": {"thresholds": {"high": 40, "low": 60}}}`), 0o644))
	_, err := LoadConfig(path)
	req.ErrorContains(err, "invalid config")

	req.NoError(os.WriteFile(path, []byte(`{"hybrid": {"weights": {"feature": 1.5, "model": 0.7}}}`), 0o644))
	_, err = LoadConfig(path)
	req.ErrorContains(err, "invalid config")

	req.NoError(os.WriteFile(path, []byte(`{broken`), 0o644))
	_, err = LoadConfig(path)
	req.ErrorContains(err, "decode config")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	var cfg Config
	cfg.ApplyDefaults()
	cfg.Features.TokenFile = "tokens.json"
	cfg.Hybrid.Weights = Weights{Feature: 0.4, Model: 0.6}

	for _, name := range []string{"saved.json", "saved.yml"} {
		path := filepath.Join(dir, name)
		req.NoError(SaveConfig(path, cfg))
		loaded, err := LoadConfig(path)
		req.NoError(err)
		req.Equal(cfg, loaded)
	}
}

func TestConfig_Clone(t *testing.T) {
	req := require.New(t)
	var cfg Config
	cfg.ApplyDefaults()

	clone := cfg.Clone()
	clone.Model.AILabels[0] = "CHANGED"
	req.Equal("POSITIVE", cfg.Model.AILabels[0])
}

func TestEnsureConfigFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "conf", "config.json")

	var cfg Config
	cfg.ApplyDefaults()
	cfg.Calibrator.Path = "custom/cal.json"

	written, err := EnsureConfigFile(path, cfg)
	req.NoError(err)
	req.True(written)
	loaded, err := LoadConfig(path)
	req.NoError(err)
	req.Equal("custom/cal.json", loaded.Calibrator.Path)

	other := cfg.Clone()
	other.Calibrator.Path = "other.json"
	written, err = EnsureConfigFile(path, other)
	req.NoError(err)
	req.False(written)
	loaded, err = LoadConfig(path)
	req.NoError(err)
	req.Equal("custom/cal.json", loaded.Calibrator.Path)
}
