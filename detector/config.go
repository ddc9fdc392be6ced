package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.json"

var validate = validator.New()

// envOverrides lists the settings that can be overridden from the environment.
type envOverrides struct {
	OrtDLL         string `env:"AILIAN_ORT_DLL"`
	ModelPath      string `env:"AILIAN_MODEL_PATH"`
	TokenizerPath  string `env:"AILIAN_TOKENIZER_PATH"`
	ModelID        string `env:"AILIAN_MODEL_ID"`
	CalibratorPath string `env:"AILIAN_CALIBRATOR_PATH"`
	TokenFile      string `env:"AILIAN_TOKEN_FILE"`
	CacheDir       string `env:"AILIAN_CACHE_DIR"`
	ServerAddr     string `env:"AILIAN_SERVER_ADDR"`
	LogLevel       string `env:"AILIAN_LOG_LEVEL"`
}

// LoadConfig loads configuration from the given path or the default config.json.
// Paths ending in .yaml or .yml are decoded as YAML. Environment overrides are
// applied after the file and before defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	case isYAML(path):
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Cache.Dir != "" {
		if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
			return cfg, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overlays AILIAN_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if _, err := env.UnmarshalFromEnviron(&o); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&cfg.Model.OrtDLL, o.OrtDLL)
	set(&cfg.Model.ModelPath, o.ModelPath)
	set(&cfg.Model.TokenizerPath, o.TokenizerPath)
	set(&cfg.Model.ModelID, o.ModelID)
	set(&cfg.Calibrator.Path, o.CalibratorPath)
	set(&cfg.Features.TokenFile, o.TokenFile)
	set(&cfg.Cache.Dir, o.CacheDir)
	set(&cfg.Server.Addr, o.ServerAddr)
	set(&cfg.LogLevel, o.LogLevel)
	return nil
}

// Validate checks value ranges after defaults have been applied.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// EnsureConfigFile writes cfg to path when no configuration file exists yet,
// so the defaults can be edited by hand. It reports whether a file was written.
func EnsureConfigFile(path string, cfg Config) (bool, error) {
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := SaveConfig(path, cfg); err != nil {
		return false, err
	}
	return true, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
