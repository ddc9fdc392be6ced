package detector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// TrainingResult is the outcome of a calibrator fit.
type TrainingResult struct {
	Calibrator *LogisticCalibrator
	Report     ClassificationReport
	TrainSize  int
	TestSize   int
	Skipped    int
}

// Trainer fits a LogisticCalibrator from labeled examples. Feature vectors are
// produced with the same scorers the service uses at detection time.
type Trainer struct {
	features *FeatureScorer
	model    *ModelScorer
	cfg      TrainingConfig
	logger   *slog.Logger
	report   io.Writer
}

// NewTrainer returns a trainer. report receives the rendered classification
// report and may be nil.
func NewTrainer(features *FeatureScorer, model *ModelScorer, cfg TrainingConfig, logger *slog.Logger, report io.Writer) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	if report == nil {
		report = io.Discard
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		cfg.TestRatio = 0.2
	}
	return &Trainer{
		features: features,
		model:    model,
		cfg:      cfg,
		logger:   logger,
		report:   report,
	}
}

// Train loads datasetPath, fits a calibrator and writes it to calibratorPath.
func (t *Trainer) Train(ctx context.Context, datasetPath, calibratorPath string, opts DatasetOptions) (TrainingResult, error) {
	ds, err := LoadDataset(datasetPath, opts)
	if err != nil {
		trainingRuns.WithLabelValues("error").Inc()
		return TrainingResult{}, err
	}
	t.logger.Info("Loaded dataset",
		"path", datasetPath,
		"rows", len(ds.Examples),
		"ai", ds.Positives(),
		"skipped", ds.Skipped,
		"textColumn", ds.TextColumn,
		"labelColumn", ds.LabelColumn)

	res, err := t.Fit(ctx, ds.Examples)
	if err != nil {
		trainingRuns.WithLabelValues("error").Inc()
		return TrainingResult{}, err
	}
	res.Skipped = ds.Skipped
	if err := SaveCalibrator(calibratorPath, res.Calibrator); err != nil {
		trainingRuns.WithLabelValues("error").Inc()
		return TrainingResult{}, err
	}
	trainingRuns.WithLabelValues("ok").Inc()
	t.logger.Info("Saved calibrator", "path", calibratorPath, "id", res.Calibrator.ID)
	return res, nil
}

// Fit computes feature vectors for examples, splits them with a seeded
// shuffle, fits the calibrator on the training part and evaluates it on the
// held-out part.
func (t *Trainer) Fit(ctx context.Context, examples []LabeledExample) (TrainingResult, error) {
	if len(examples) < 2 {
		return TrainingResult{}, fmt.Errorf("%w: %d usable rows", ErrDatasetTooSmall, len(examples))
	}
	started := time.Now()
	vectors, err := t.vectorize(ctx, examples)
	if err != nil {
		return TrainingResult{}, err
	}
	labels := make([]Label, len(examples))
	for i, ex := range examples {
		labels[i] = ex.Label
	}

	trainIdx, testIdx := splitIndices(len(examples), t.cfg.TestRatio, t.cfg.Seed)
	trainX, trainY := gather(vectors, labels, trainIdx)
	testX, testY := gather(vectors, labels, testIdx)

	cal, err := FitLogistic(trainX, trainY, LogisticOptions{C: t.cfg.C, MaxIter: t.cfg.MaxIter})
	if err != nil {
		return TrainingResult{}, fmt.Errorf("fit calibrator: %w", err)
	}
	report := Evaluate(cal, testX, testY)

	var rendered strings.Builder
	report.Render(&rendered)
	if _, err := io.WriteString(t.report, rendered.String()); err != nil {
		t.logger.Warn("Write classification report", "error", err)
	}
	t.logger.Info("Calibrator trained",
		"train", len(trainIdx),
		"test", len(testIdx),
		"accuracy", report.Accuracy,
		"coefficients", cal.Coefficients,
		"intercept", cal.Intercept,
		"elapsed", time.Since(started))
	t.logger.Debug("Classification report\n" + rendered.String())

	return TrainingResult{
		Calibrator: cal,
		Report:     report,
		TrainSize:  len(trainIdx),
		TestSize:   len(testIdx),
	}, nil
}

func (t *Trainer) vectorize(ctx context.Context, examples []LabeledExample) ([]FeatureVector, error) {
	vectors := make([]FeatureVector, len(examples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)
	for i, ex := range examples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text := NormalizeText(ex.Text)
			vectors[i] = FeatureVector{
				Feature: t.features.Score(text) / 100,
				Model:   t.model.Score(gctx, text),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute feature vectors: %w", err)
	}
	return vectors, nil
}

// splitIndices shuffles 0..n-1 with seed and reserves ceil(ratio*n) indices
// for testing, keeping at least one index on each side.
func splitIndices(n int, ratio float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testSize := int(math.Ceil(ratio * float64(n)))
	testSize = min(max(testSize, 1), n-1)
	return perm[testSize:], perm[:testSize]
}

func gather(vectors []FeatureVector, labels []Label, idx []int) ([]FeatureVector, []Label) {
	x := make([]FeatureVector, len(idx))
	y := make([]Label, len(idx))
	for i, j := range idx {
		x[i] = vectors[j]
		y[i] = labels[j]
	}
	return x, y
}
