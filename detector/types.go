package detector

import "encoding/json"

// Verdict is the qualitative band a FinalScore falls into.
type Verdict string

const (
	// VerdictAI marks scores above the high threshold.
	VerdictAI Verdict = "ai"
	// VerdictMixed marks scores between the low and high thresholds, inclusive.
	VerdictMixed Verdict = "mixed"
	// VerdictHuman marks scores below the low threshold.
	VerdictHuman Verdict = "human"
)

// Label is the binary class of a training example.
type Label int

const (
	LabelHuman Label = 0
	LabelAI    Label = 1
)

// String returns the class name used in reports.
func (l Label) String() string {
	if l == LabelAI {
		return "ai"
	}
	return "human"
}

// FeatureVector is the normalized (heuristic, model) pair fed to a calibrator.
type FeatureVector struct {
	Feature float64 `json:"feature"`
	Model   float64 `json:"model"`
}

// LabeledExample is one row of a training dataset.
type LabeledExample struct {
	Text  string `json:"text"`
	Label Label  `json:"label"`
}

// Result is the outcome of scoring a single text.
type Result struct {
	Text         string           `json:"-"`
	FinalScore   float64          `json:"finalScore"`
	FeatureScore float64          `json:"featureScore"`
	ModelScore   float64          `json:"modelScore"`
	Calibrated   bool             `json:"calibrated"`
	Degraded     bool             `json:"degraded"`
	Verdict      Verdict          `json:"verdict"`
	Language     string           `json:"language,omitempty"`
	Breakdown    FeatureBreakdown `json:"breakdown"`
}

// ModelConfig configures the ONNX classifier and the label polarity mapping.
type ModelConfig struct {
	OrtDLL        string   `json:"ortDll" yaml:"ortDll"`
	ModelPath     string   `json:"modelPath" yaml:"modelPath"`
	TokenizerPath string   `json:"tokenizerPath" yaml:"tokenizerPath"`
	MaxSeqLen     int      `json:"maxSeqLen" yaml:"maxSeqLen" validate:"gte=8"`
	MaxChars      int      `json:"maxChars" yaml:"maxChars" validate:"gt=0"`
	ModelID       string   `json:"modelId" yaml:"modelId"`
	Labels        []string `json:"labels" yaml:"labels" validate:"min=2"`
	AILabels      []string `json:"aiLabels" yaml:"aiLabels" validate:"min=1"`
	InputNames    []string `json:"inputNames" yaml:"inputNames" validate:"min=1"`
	OutputName    string   `json:"outputName" yaml:"outputName"`
}

// FeatureConfig holds the tunable constants of the heuristic scorer.
type FeatureConfig struct {
	BaselineSentenceLength float64 `json:"baselineSentenceLength" yaml:"baselineSentenceLength" validate:"gte=0"`
	ASLPenalty             float64 `json:"aslPenalty" yaml:"aslPenalty" validate:"gte=0"`
	ASLCap                 float64 `json:"aslCap" yaml:"aslCap" validate:"gte=0"`
	DiversityWeight        float64 `json:"diversityWeight" yaml:"diversityWeight" validate:"gte=0"`
	FavoriteTokenWeight    float64 `json:"favoriteTokenWeight" yaml:"favoriteTokenWeight" validate:"gte=0"`
	FavoriteTokenCap       float64 `json:"favoriteTokenCap" yaml:"favoriteTokenCap" validate:"gte=0"`
	DisableFavoriteTokens  bool    `json:"disableFavoriteTokens" yaml:"disableFavoriteTokens"`
	TokenFile              string  `json:"tokenFile" yaml:"tokenFile"`
}

// Weights is the linear blend used when no calibrator is available.
type Weights struct {
	Feature float64 `json:"feature" yaml:"feature" validate:"gte=0,lte=1"`
	Model   float64 `json:"model" yaml:"model" validate:"gte=0,lte=1"`
}

// Thresholds are the presentation bands applied on top of FinalScore.
type Thresholds struct {
	High float64 `json:"high" yaml:"high" validate:"gte=0,lte=100,gtefield=Low"`
	Low  float64 `json:"low" yaml:"low" validate:"gte=0,lte=100"`
}

// HybridConfig configures the predictor.
type HybridConfig struct {
	Weights    Weights    `json:"weights" yaml:"weights"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
}

// CalibratorConfig locates the calibrator artifact.
type CalibratorConfig struct {
	Path  string `json:"path" yaml:"path"`
	Watch bool   `json:"watch" yaml:"watch"`
}

// TrainingConfig controls the offline calibrator fit.
type TrainingConfig struct {
	TestRatio float64 `json:"testRatio" yaml:"testRatio" validate:"gt=0,lt=1"`
	Seed      int64   `json:"seed" yaml:"seed"`
	Workers   int     `json:"workers" yaml:"workers" validate:"gte=1"`
	MaxIter   int     `json:"maxIter" yaml:"maxIter" validate:"gte=1"`
	C         float64 `json:"c" yaml:"c" validate:"gt=0"`
}

// CacheConfig enables the persistent model score cache when Dir is set.
type CacheConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Model      ModelConfig      `json:"model" yaml:"model"`
	Features   FeatureConfig    `json:"features" yaml:"features"`
	Hybrid     HybridConfig     `json:"hybrid" yaml:"hybrid"`
	Calibrator CalibratorConfig `json:"calibrator" yaml:"calibrator"`
	Training   TrainingConfig   `json:"training" yaml:"training"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Columns    ColumnCandidates `json:"columns" yaml:"columns"`
	LogLevel   string           `json:"logLevel" yaml:"logLevel"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Model.MaxSeqLen == 0 {
		c.Model.MaxSeqLen = 512
	}
	if c.Model.MaxChars == 0 {
		c.Model.MaxChars = DefaultMaxChars
	}
	if len(c.Model.Labels) == 0 {
		c.Model.Labels = []string{"LABEL_0", "LABEL_1"}
	}
	if len(c.Model.AILabels) == 0 {
		c.Model.AILabels = []string{"POSITIVE", "AI", "FAKE"}
	}
	if len(c.Model.InputNames) == 0 {
		c.Model.InputNames = []string{"input_ids", "attention_mask"}
	}
	if c.Model.OutputName == "" {
		c.Model.OutputName = "logits"
	}

	if c.Features.BaselineSentenceLength == 0 {
		c.Features.BaselineSentenceLength = 15
	}
	if c.Features.ASLPenalty == 0 {
		c.Features.ASLPenalty = DefaultASLPenalty
	}
	if c.Features.ASLCap == 0 {
		c.Features.ASLCap = 20
	}
	if c.Features.DiversityWeight == 0 {
		c.Features.DiversityWeight = 50
	}
	if c.Features.FavoriteTokenWeight == 0 {
		c.Features.FavoriteTokenWeight = 4
	}
	if c.Features.FavoriteTokenCap == 0 {
		c.Features.FavoriteTokenCap = 30
	}

	if c.Hybrid.Weights == (Weights{}) {
		c.Hybrid.Weights = DefaultWeights
	}
	if c.Hybrid.Thresholds == (Thresholds{}) {
		c.Hybrid.Thresholds = DefaultThresholds
	}

	if c.Calibrator.Path == "" {
		c.Calibrator.Path = DefaultCalibratorPath
	}

	if c.Training.TestRatio == 0 {
		c.Training.TestRatio = 0.2
	}
	if c.Training.Seed == 0 {
		c.Training.Seed = 42
	}
	if c.Training.Workers <= 0 {
		c.Training.Workers = 4
	}
	if c.Training.MaxIter == 0 {
		c.Training.MaxIter = 200
	}
	if c.Training.C == 0 {
		c.Training.C = 1.0
	}

	c.Columns = c.Columns.withDefaults()

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
}

// FeatureDefaults returns the scorer constants with defaults applied.
func FeatureDefaults() FeatureConfig {
	var c Config
	c.ApplyDefaults()
	return c.Features
}
