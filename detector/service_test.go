package detector

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fixedClassifier struct {
	pred   Prediction
	closed bool
}

func (f *fixedClassifier) Classify(context.Context, string) (Prediction, error) { return f.pred, nil }
func (f *fixedClassifier) ModelID() string                                      { return "fixed" }
func (f *fixedClassifier) Close() error {
	f.closed = true
	return nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	var cfg Config
	cfg.Calibrator.Path = filepath.Join(t.TempDir(), "calibrator", "hybrid_calibrator.json")
	cfg.ApplyDefaults()
	return cfg
}

func TestService_DetectWithoutCalibrator(t *testing.T) {
	req := require.New(t)
	classifier := &fixedClassifier{pred: Prediction{Label: "AI", Score: 0.2}}
	svc, err := NewService(testConfig(t), classifier, nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	text := sentence(1, 10) + " " + sentence(11, 10) + " " + sentence(21, 10)
	res := svc.Detect(context.Background(), text)

	req.InDelta(0.0, res.FeatureScore, 1e-9)
	req.InDelta(0.2, res.ModelScore, 1e-12)
	req.InDelta(14.0, res.FinalScore, 1e-9)
	req.False(res.Calibrated)
	req.False(res.Degraded)
	req.Equal(VerdictHuman, res.Verdict)
	req.Equal(3, res.Breakdown.Sentences)
	req.Equal(text, res.Text)

	req.NoError(svc.Close())
	req.True(classifier.closed)
}

func TestService_DegradedNeutral(t *testing.T) {
	req := require.New(t)
	svc, err := NewService(testConfig(t), nil, nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	req.True(svc.Degraded())

	res := svc.Detect(context.Background(), "")
	req.Equal(50.0, res.FeatureScore)
	req.Equal(0.5, res.ModelScore)
	req.True(res.Degraded)
	// 0.3*0.5 + 0.7*0.5
	req.InDelta(50.0, res.FinalScore, 1e-9)
	req.Equal(VerdictMixed, res.Verdict)
	req.NoError(svc.Close())
}

func TestService_CalibratorIsAuthoritative(t *testing.T) {
	req := require.New(t)
	cfg := testConfig(t)
	classifier := &fixedClassifier{pred: Prediction{Label: "AI", Score: 0.9}}
	svc, err := NewService(cfg, classifier, nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	// A calibrator that always answers 0.1 overrides the blend.
	req.NoError(SaveCalibrator(cfg.Calibrator.Path, &LogisticCalibrator{
		ID:        "fixed",
		Version:   calibratorVersion,
		Intercept: -2.1972245773362196, // logit(0.1)
	}))
	svc.Store().Invalidate()

	res := svc.Detect(context.Background(), "따라서 결론적으로 매우 다양한 방법이 있습니다.")
	req.True(res.Calibrated)
	req.InDelta(10.0, res.FinalScore, 1e-6)
	req.Equal(VerdictHuman, res.Verdict)
}

func TestService_TrainActivatesCalibrator(t *testing.T) {
	req := require.New(t)
	cfg := testConfig(t)
	svc, err := NewService(cfg, keywordClassifier{keyword: "따라서"}, nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	dataset := filepath.Join(t.TempDir(), "train.csv")
	req.NoError(os.WriteFile(dataset, []byte(trainingCSV(12, 12)), 0o644))

	before := svc.Detect(context.Background(), "따라서 이 주제는 매우 중요합니다.")
	req.False(before.Calibrated)

	res, err := svc.Train(context.Background(), dataset, DatasetOptions{}, nil)
	req.NoError(err)
	req.FileExists(cfg.Calibrator.Path)
	req.Equal(24, res.TrainSize+res.TestSize)

	after := svc.Detect(context.Background(), "따라서 이 주제는 매우 중요합니다.")
	req.True(after.Calibrated)
	req.Greater(after.FinalScore, 50.0)

	human := svc.Detect(context.Background(), "어제 친구랑 떡볶이 먹었다")
	req.Less(human.FinalScore, 50.0)
}

func TestService_DetectAllKeepsOrder(t *testing.T) {
	req := require.New(t)
	svc, err := NewService(testConfig(t), keywordClassifier{keyword: "따라서"}, nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	texts := []string{"따라서 그렇다.", "그냥 그렇다.", "", "따라서 결론적으로."}
	results := svc.DetectAll(context.Background(), texts)
	req.Len(results, len(texts))
	for i, res := range results {
		req.Equal(texts[i], res.Text)
	}
	req.InDelta(0.9, results[0].ModelScore, 1e-12)
	req.InDelta(0.1, results[1].ModelScore, 1e-12)
}

func TestService_CustomTokenFile(t *testing.T) {
	req := require.New(t)
	cfg := testConfig(t)
	cfg.Features.TokenFile = filepath.Join(t.TempDir(), "tokens.json")
	req.NoError(os.WriteFile(cfg.Features.TokenFile, []byte(`{"tokens": ["낱말1"], "phrases": []}`), 0o644))

	svc, err := NewService(cfg, nil, nil, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	res := svc.Detect(context.Background(), sentence(1, 10))
	req.Equal(1, res.Breakdown.FavoriteTokens)
	req.Empty(res.Breakdown.Phrases)
}
