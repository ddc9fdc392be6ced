package detector

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// syntheticVectors returns n AI vectors with high scores followed by n human
// vectors with low scores.
func syntheticVectors(n int) ([]FeatureVector, []Label) {
	x := make([]FeatureVector, 0, 2*n)
	y := make([]Label, 0, 2*n)
	for i := range n {
		u := float64(i) / float64(n)
		x = append(x, FeatureVector{Feature: 0.55 + 0.4*u, Model: 0.65 + 0.3*u})
		y = append(y, LabelAI)
	}
	for i := range n {
		u := float64(i) / float64(n)
		x = append(x, FeatureVector{Feature: 0.05 + 0.4*u, Model: 0.05 + 0.3*u})
		y = append(y, LabelHuman)
	}
	return x, y
}

func TestFitLogistic_SeparatesClasses(t *testing.T) {
	req := require.New(t)
	x, y := syntheticVectors(100)

	cal, err := FitLogistic(x, y, LogisticOptions{C: 1, MaxIter: 200})
	req.NoError(err)
	req.NotEmpty(cal.ID)
	req.Equal(calibratorVersion, cal.Version)
	req.Equal(200, cal.Samples)
	req.Greater(cal.Coefficients[0], 0.0)
	req.Greater(cal.Coefficients[1], 0.0)

	req.Greater(cal.PredictProbability(FeatureVector{Feature: 0.9, Model: 0.95}), 0.5)
	req.Less(cal.PredictProbability(FeatureVector{Feature: 0.1, Model: 0.1}), 0.5)
	req.Equal(LabelAI, cal.Predict(FeatureVector{Feature: 0.9, Model: 0.95}))
	req.Equal(LabelHuman, cal.Predict(FeatureVector{Feature: 0.1, Model: 0.1}))

	for _, v := range x {
		p := cal.PredictProbability(v)
		req.False(math.IsNaN(p))
		req.GreaterOrEqual(p, 0.0)
		req.LessOrEqual(p, 1.0)
	}
}

func TestFitLogistic_Errors(t *testing.T) {
	req := require.New(t)

	_, err := FitLogistic(nil, nil, LogisticOptions{})
	req.ErrorIs(err, ErrDatasetTooSmall)

	_, err = FitLogistic([]FeatureVector{{Feature: 0.1}, {Feature: 0.2}}, []Label{LabelAI, LabelAI}, LogisticOptions{})
	req.ErrorIs(err, ErrSingleClass)

	_, err = FitLogistic([]FeatureVector{{}}, []Label{LabelAI, LabelHuman}, LogisticOptions{})
	req.Error(err)
}

func TestCalibrator_SaveLoadRoundTrip(t *testing.T) {
	req := require.New(t)
	x, y := syntheticVectors(50)
	cal, err := FitLogistic(x, y, LogisticOptions{})
	req.NoError(err)

	path := filepath.Join(t.TempDir(), "nested", "hybrid_calibrator.json")
	req.NoError(SaveCalibrator(path, cal))

	loaded, err := LoadCalibrator(path)
	req.NoError(err)
	req.Equal(cal.ID, loaded.ID)
	req.Equal(cal.Coefficients, loaded.Coefficients)
	req.Equal(cal.Intercept, loaded.Intercept)
	req.Equal(cal.Features, loaded.Features)
	req.True(cal.TrainedAt.Equal(loaded.TrainedAt))

	probes := []FeatureVector{{0, 0}, {0.3, 0.7}, {0.5, 0.5}, {0.9, 0.1}, {1, 1}}
	for _, v := range probes {
		req.Equal(cal.PredictProbability(v), loaded.PredictProbability(v))
	}
}

func TestNewtonStep(t *testing.T) {
	req := require.New(t)

	hess := mat.NewSymDense(3, []float64{
		4, 1, 0,
		1, 3, 1,
		0, 1, 2,
	})
	step, err := newtonStep(hess, mat.NewVecDense(3, []float64{6, 6, 0}))
	req.NoError(err)
	req.InDelta(1.0, step.AtVec(0), 1e-12)
	req.InDelta(2.0, step.AtVec(1), 1e-12)
	req.InDelta(-1.0, step.AtVec(2), 1e-12)
	req.InDelta(2.0, maxAbs(step), 1e-12)

	singular := mat.NewSymDense(3, []float64{
		1, 2, 3,
		2, 4, 6,
		3, 6, 9,
	})
	_, err = newtonStep(singular, mat.NewVecDense(3, []float64{1, 2, 3}))
	req.ErrorIs(err, ErrSingularMatrix)
}
