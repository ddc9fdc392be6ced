package detector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

//go:generate go run go.uber.org/mock/mockgen -source=model.go -destination=../mocks/mock_classifier.go -package=mocks

// DefaultMaxChars bounds the input handed to the classifier.
const DefaultMaxChars = 1024

// NeutralModelScore is returned whenever the classifier cannot be used.
const NeutralModelScore = 0.5

// Prediction is the raw output of a text classification model.
type Prediction struct {
	Label string
	Score float64
}

// Classifier is a pretrained text classification model.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
	ModelID() string
	Close() error
}

// ModelScorer normalizes a Classifier's (label, confidence) output into an
// AI-likelihood in [0, 1]. It never fails: a missing classifier or any
// inference error yields NeutralModelScore.
type ModelScorer struct {
	classifier Classifier
	aiLabels   []string
	maxChars   int
	cache      ScoreCache
	logger     *slog.Logger
}

// NewModelScorer wraps classifier. classifier and cache may be nil.
func NewModelScorer(classifier Classifier, cfg ModelConfig, cache ScoreCache, logger *slog.Logger) *ModelScorer {
	if logger == nil {
		logger = slog.Default()
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	labels := make([]string, 0, len(cfg.AILabels))
	for _, l := range cfg.AILabels {
		if l = strings.ToUpper(strings.TrimSpace(l)); l != "" {
			labels = append(labels, l)
		}
	}
	return &ModelScorer{
		classifier: classifier,
		aiLabels:   labels,
		maxChars:   maxChars,
		cache:      cache,
		logger:     logger,
	}
}

// Degraded reports whether the scorer runs without a classifier.
func (m *ModelScorer) Degraded() bool {
	return m.classifier == nil
}

// ModelID identifies the wrapped classifier, empty in degraded mode.
func (m *ModelScorer) ModelID() string {
	if m.classifier == nil {
		return ""
	}
	return m.classifier.ModelID()
}

// Score returns the ModelScore of text.
func (m *ModelScorer) Score(ctx context.Context, text string) (score float64) {
	if m.classifier == nil {
		return NeutralModelScore
	}
	snippet := TruncateRunes(strings.TrimSpace(text), m.maxChars)

	var key string
	if m.cache != nil {
		key = ScoreCacheKey(m.classifier.ModelID(), snippet)
		if v, ok := m.cache.Get(key); ok {
			return v
		}
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("Classifier panicked", "panic", r)
			modelFailures.Inc()
			score = NeutralModelScore
		}
	}()
	pred, err := m.classifier.Classify(ctx, snippet)
	if err != nil {
		m.logger.Warn("Model inference failed", "error", err)
		modelFailures.Inc()
		return NeutralModelScore
	}
	score, err = m.polarize(pred)
	if err != nil {
		m.logger.Warn("Malformed model output", "label", pred.Label, "error", err)
		modelFailures.Inc()
		return NeutralModelScore
	}
	if m.cache != nil {
		m.cache.Put(key, score)
	}
	return score
}

// IsAILabel reports whether label denotes the AI class.
func (m *ModelScorer) IsAILabel(label string) bool {
	upper := strings.ToUpper(label)
	for _, l := range m.aiLabels {
		if strings.Contains(upper, l) {
			return true
		}
	}
	return false
}

func (m *ModelScorer) polarize(pred Prediction) (float64, error) {
	if math.IsNaN(pred.Score) || math.IsInf(pred.Score, 0) {
		return 0, fmt.Errorf("confidence is not finite: %v", pred.Score)
	}
	confidence := clamp01(pred.Score)
	if m.IsAILabel(pred.Label) {
		return confidence, nil
	}
	return 1 - confidence, nil
}

// LoadClassifier opens the ONNX classifier described by cfg. Load failures are
// logged and yield a nil Classifier so callers run in degraded mode.
func LoadClassifier(cfg ModelConfig, logger *slog.Logger) Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ModelPath == "" {
		logger.Warn("No model configured, model score is neutral")
		return nil
	}
	c, err := NewOrtClassifier(cfg)
	if err != nil {
		logger.Warn("Model load failed, model score is neutral", "model", cfg.ModelPath, "error", err)
		return nil
	}
	logger.Info("Loaded classifier", "model", c.ModelID(), "labels", cfg.Labels)
	return c
}
