package detector

import "math"

var (
	// DefaultWeights trusts the model signal more than the heuristic.
	DefaultWeights = Weights{Feature: 0.3, Model: 0.7}
	// DefaultThresholds are the presentation bands used by the front ends.
	DefaultThresholds = Thresholds{High: 70, Low: 45}
)

// Predictor fuses a FeatureScore and a ModelScore into a FinalScore.
type Predictor struct {
	weights Weights
}

// NewPredictor returns a predictor using w for the uncalibrated blend.
func NewPredictor(w Weights) Predictor {
	return Predictor{weights: w}
}

// Predict returns the FinalScore in [0, 100]. With a calibrator the result is
// its probability for (featureScore/100, modelScore); without one it is the
// weighted blend. Out of range inputs are clamped and NaN inputs are treated
// as neutral.
func (p Predictor) Predict(featureScore, modelScore float64, cal Calibrator) float64 {
	featureScore, modelScore = sanitizeScores(featureScore, modelScore)
	if cal == nil {
		return p.blend(featureScore, modelScore)
	}
	prob := cal.PredictProbability(FeatureVector{Feature: featureScore / 100, Model: modelScore})
	if math.IsNaN(prob) {
		return p.blend(featureScore, modelScore)
	}
	return clamp01(prob) * 100
}

func (p Predictor) blend(featureScore, modelScore float64) float64 {
	final := p.weights.Feature*(featureScore/100) + p.weights.Model*modelScore
	return 100 * clamp01(final)
}

func sanitizeScores(featureScore, modelScore float64) (float64, float64) {
	if math.IsNaN(featureScore) {
		featureScore = NeutralFeatureScore
	}
	if math.IsNaN(modelScore) {
		modelScore = NeutralModelScore
	}
	return clamp100(featureScore), clamp01(modelScore)
}

// Verdict maps a FinalScore to its presentation band.
func (t Thresholds) Verdict(score float64) Verdict {
	switch {
	case score > t.High:
		return VerdictAI
	case score < t.Low:
		return VerdictHuman
	default:
		return VerdictMixed
	}
}
