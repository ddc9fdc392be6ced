package detector

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const calibratorVersion = 1

// Calibrator maps a FeatureVector to the probability of the AI class.
type Calibrator interface {
	PredictProbability(v FeatureVector) float64
}

// LogisticCalibrator is a binary logistic regression over the two normalized
// scores.
type LogisticCalibrator struct {
	ID           string     `json:"id"`
	Version      int        `json:"version"`
	Features     []string   `json:"features"`
	Coefficients [2]float64 `json:"coefficients"`
	Intercept    float64    `json:"intercept"`
	TrainedAt    time.Time  `json:"trainedAt"`
	Samples      int        `json:"samples"`
}

// PredictProbability returns P(ai | v). A nil calibrator returns NaN.
func (c *LogisticCalibrator) PredictProbability(v FeatureVector) float64 {
	if c == nil {
		return math.NaN()
	}
	z := c.Intercept + c.Coefficients[0]*v.Feature + c.Coefficients[1]*v.Model
	return sigmoid(z)
}

// Predict returns the class with probability at least 0.5.
func (c *LogisticCalibrator) Predict(v FeatureVector) Label {
	if c.PredictProbability(v) >= 0.5 {
		return LabelAI
	}
	return LabelHuman
}

// LogisticOptions controls FitLogistic.
type LogisticOptions struct {
	// C is the inverse L2 regularization strength; the intercept is not
	// penalized.
	C       float64
	MaxIter int
	Tol     float64
}

// FitLogistic fits an L2 regularized logistic regression with Newton-Raphson
// iterations. Labels must contain both classes.
func FitLogistic(x []FeatureVector, y []Label, opts LogisticOptions) (*LogisticCalibrator, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("features/labels length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, ErrDatasetTooSmall
	}
	if !hasBothClasses(y) {
		return nil, ErrSingleClass
	}
	if opts.C <= 0 {
		opts.C = 1.0
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 200
	}
	if opts.Tol <= 0 {
		opts.Tol = 1e-10
	}
	lambda := 1 / opts.C

	n := len(x)
	design := mat.NewDense(n, 3, nil)
	target := mat.NewVecDense(n, nil)
	for i, v := range x {
		design.SetRow(i, []float64{1, v.Feature, v.Model})
		target.SetVec(i, float64(y[i]))
	}
	penalty := mat.NewDiagDense(3, []float64{0, lambda, lambda})

	// theta = (intercept, w_feature, w_model)
	theta := mat.NewVecDense(3, nil)
	for iter := 0; iter < opts.MaxIter; iter++ {
		var z mat.VecDense
		z.MulVec(design, theta)

		resid := mat.NewVecDense(n, nil)
		weighted := mat.DenseCopyOf(design)
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i))
			resid.SetVec(i, p-target.AtVec(i))
			w := p * (1 - p)
			row := weighted.RawRowView(i)
			for j := range row {
				row[j] *= w
			}
		}

		var grad, reg mat.VecDense
		grad.MulVec(design.T(), resid)
		reg.MulVec(penalty, theta)
		grad.AddVec(&grad, &reg)

		var h mat.Dense
		h.Mul(design.T(), weighted)
		h.Add(&h, penalty)
		hess := mat.NewSymDense(3, nil)
		for a := 0; a < 3; a++ {
			for b := a; b < 3; b++ {
				hess.SetSym(a, b, h.At(a, b))
			}
		}

		step, err := newtonStep(hess, &grad)
		if err != nil {
			return nil, err
		}
		theta.SubVec(theta, step)
		if maxAbs(step) < opts.Tol {
			break
		}
	}
	return &LogisticCalibrator{
		ID:           uuid.NewString(),
		Version:      calibratorVersion,
		Features:     []string{"feature_score_norm", "model_score"},
		Coefficients: [2]float64{theta.AtVec(1), theta.AtVec(2)},
		Intercept:    theta.AtVec(0),
		TrainedAt:    time.Now().UTC(),
		Samples:      len(x),
	}, nil
}

func hasBothClasses(y []Label) bool {
	var pos, neg bool
	for _, l := range y {
		if l == LabelAI {
			pos = true
		} else {
			neg = true
		}
	}
	return pos && neg
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// newtonStep solves hess·step = grad through a Cholesky factorization.
func newtonStep(hess *mat.SymDense, grad *mat.VecDense) (*mat.VecDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return nil, ErrSingularMatrix
	}
	var step mat.VecDense
	if err := chol.SolveVecTo(&step, grad); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrSingularMatrix, err)
		}
	}
	for i := 0; i < step.Len(); i++ {
		if v := step.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("newton step is not finite")
		}
	}
	return &step, nil
}

func maxAbs(v *mat.VecDense) float64 {
	var m float64
	for i := 0; i < v.Len(); i++ {
		m = max(m, math.Abs(v.AtVec(i)))
	}
	return m
}
