package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service wires the scorers, the calibrator store and the predictor together.
type Service struct {
	cfg        Config
	features   *FeatureScorer
	model      *ModelScorer
	predictor  Predictor
	store      *CalibratorStore
	classifier Classifier
	closers    []io.Closer
	logger     *slog.Logger
}

// NewService constructs a service. classifier and cache may be nil: without a
// classifier the model score is neutral.
func NewService(cfg Config, classifier Classifier, cache ScoreCache, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()
	SetColumnCandidates(cfg.Columns)

	vocab, err := loadVocabulary(cfg.Features.TokenFile, logger)
	if err != nil {
		return nil, err
	}
	features, err := NewFeatureScorer(cfg.Features, nil, vocab)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:        cfg,
		features:   features,
		model:      NewModelScorer(classifier, cfg.Model, cache, logger),
		predictor:  NewPredictor(cfg.Hybrid.Weights),
		store:      NewCalibratorStore(cfg.Calibrator.Path, logger),
		classifier: classifier,
		logger:     logger,
	}, nil
}

// OpenService loads the classifier and the optional score cache described by
// cfg and returns a service owning them.
func OpenService(cfg Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()
	classifier := LoadClassifier(cfg.Model, logger)

	var (
		cache   ScoreCache
		closers []io.Closer
	)
	if cfg.Cache.Dir != "" {
		bc, err := OpenScoreCache(cfg.Cache.Dir, logger)
		if err != nil {
			logger.Warn("Score cache disabled", "dir", cfg.Cache.Dir, "error", err)
		} else {
			cache = bc
			closers = append(closers, bc)
		}
	}
	svc, err := NewService(cfg, classifier, cache, logger)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		if classifier != nil {
			_ = classifier.Close()
		}
		return nil, err
	}
	svc.closers = closers
	return svc, nil
}

func loadVocabulary(path string, logger *slog.Logger) (TokenList, error) {
	if path == "" {
		return DefaultTokenList(), nil
	}
	if err := EnsureTokenFile(path); err != nil {
		return TokenList{}, err
	}
	vocab, fromFile, err := LoadTokenList(path)
	if err != nil {
		return TokenList{}, fmt.Errorf("load token file: %w", err)
	}
	if fromFile {
		logger.Info("Loaded favourite tokens", "path", path, "tokens", len(vocab.Tokens), "phrases", len(vocab.Phrases))
	}
	return vocab, nil
}

// Close releases the classifier and the score cache.
func (s *Service) Close() error {
	var errs []error
	if s.classifier != nil {
		errs = append(errs, s.classifier.Close())
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Config returns a copy of the configuration.
func (s *Service) Config() Config {
	return s.cfg.Clone()
}

// Store exposes the calibrator store.
func (s *Service) Store() *CalibratorStore {
	return s.store
}

// Thresholds returns the verdict bands.
func (s *Service) Thresholds() Thresholds {
	return s.cfg.Hybrid.Thresholds
}

// Degraded reports whether the model score is fixed at neutral.
func (s *Service) Degraded() bool {
	return s.model.Degraded()
}

// Detect scores a single text. It never fails.
func (s *Service) Detect(ctx context.Context, text string) Result {
	started := time.Now()
	normalized := NormalizeText(text)

	var (
		breakdown  FeatureBreakdown
		modelScore float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		breakdown = s.features.Explain(normalized)
		return nil
	})
	g.Go(func() error {
		modelScore = s.model.Score(gctx, normalized)
		return nil
	})
	_ = g.Wait()

	cal, calibrated := s.store.Load()
	final := s.predictor.Predict(breakdown.Score, modelScore, cal)
	verdict := s.cfg.Hybrid.Thresholds.Verdict(final)

	res := Result{
		Text:         text,
		FinalScore:   final,
		FeatureScore: breakdown.Score,
		ModelScore:   modelScore,
		Calibrated:   calibrated,
		Degraded:     s.model.Degraded(),
		Verdict:      verdict,
		Breakdown:    breakdown,
	}
	if lang := DetectLanguage(normalized); lang.Code != "" {
		res.Language = lang.Code
		if !lang.IsKorean() {
			s.logger.Debug("Non-Korean input, heuristics are tuned for Korean", "language", lang.Code)
		}
	}

	detectionsTotal.WithLabelValues(string(verdict), calibrationMode(calibrated)).Inc()
	finalScore.Observe(final)
	detectDuration.Observe(time.Since(started).Seconds())
	return res
}

// DetectAll scores texts with bounded concurrency, preserving order.
func (s *Service) DetectAll(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Training.Workers, 1))
	for i, text := range texts {
		g.Go(func() error {
			results[i] = s.Detect(gctx, text)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// NewTrainer returns a trainer sharing the service's scorers.
func (s *Service) NewTrainer(report io.Writer) *Trainer {
	return NewTrainer(s.features, s.model, s.cfg.Training, s.logger, report)
}

// Train fits a calibrator from datasetPath, stores it at the configured path
// and makes it the active calibrator.
func (s *Service) Train(ctx context.Context, datasetPath string, opts DatasetOptions, report io.Writer) (TrainingResult, error) {
	res, err := s.NewTrainer(report).Train(ctx, datasetPath, s.store.Path(), opts)
	if err != nil {
		return TrainingResult{}, err
	}
	s.store.Invalidate()
	return res, nil
}
