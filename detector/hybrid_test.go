package detector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedCalibrator float64

func (c fixedCalibrator) PredictProbability(FeatureVector) float64 { return float64(c) }

type recordingCalibrator struct {
	got FeatureVector
}

func (c *recordingCalibrator) PredictProbability(v FeatureVector) float64 {
	c.got = v
	return 0.25
}

func TestPredictor_Fallback(t *testing.T) {
	req := require.New(t)
	p := NewPredictor(DefaultWeights)

	req.InDelta(87.0, p.Predict(80, 0.9, nil), 1e-9)
	req.InDelta(14.0, p.Predict(0, 0.2, nil), 1e-9)
	req.InDelta(100.0, p.Predict(100, 1, nil), 1e-9)
	req.InDelta(0.0, p.Predict(0, 0, nil), 1e-9)
}

func TestPredictor_ClampsAndNeutralizesInputs(t *testing.T) {
	req := require.New(t)
	p := NewPredictor(DefaultWeights)

	req.InDelta(100.0, p.Predict(250, 3, nil), 1e-9)
	req.InDelta(0.0, p.Predict(-40, -1, nil), 1e-9)
	// NaN inputs are treated as f=50, m=0.5.
	req.InDelta(50.0, p.Predict(math.NaN(), math.NaN(), nil), 1e-9)
}

func TestPredictor_UsesCalibrator(t *testing.T) {
	req := require.New(t)
	p := NewPredictor(DefaultWeights)

	cal := &recordingCalibrator{}
	req.InDelta(25.0, p.Predict(80, 0.9, cal), 1e-9)
	req.InDelta(0.8, cal.got.Feature, 1e-12)
	req.InDelta(0.9, cal.got.Model, 1e-12)

	req.InDelta(100.0, p.Predict(10, 0.1, fixedCalibrator(1.5)), 1e-9)
}

func TestPredictor_NaNCalibratorFallsBack(t *testing.T) {
	req := require.New(t)
	p := NewPredictor(DefaultWeights)

	req.InDelta(87.0, p.Predict(80, 0.9, fixedCalibrator(math.NaN())), 1e-9)

	var nilCal *LogisticCalibrator
	req.InDelta(87.0, p.Predict(80, 0.9, nilCal), 1e-9)
}

func TestThresholds_Verdict(t *testing.T) {
	tests := []struct {
		score float64
		want  Verdict
	}{
		{score: 95, want: VerdictAI},
		{score: 70.01, want: VerdictAI},
		{score: 70, want: VerdictMixed},
		{score: 55, want: VerdictMixed},
		{score: 45, want: VerdictMixed},
		{score: 44.99, want: VerdictHuman},
		{score: 0, want: VerdictHuman},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, DefaultThresholds.Verdict(tt.score), "score %v", tt.score)
	}
}
