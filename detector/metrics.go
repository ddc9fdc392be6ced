package detector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// detectionsTotal counts scored texts by verdict and calibration mode
	detectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ailian_detections_total",
		Help: "Total scored texts by verdict and calibration mode",
	}, []string{"verdict", "mode"})

	// finalScore tracks the distribution of FinalScore values
	finalScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ailian_final_score",
		Help:    "Distribution of final AI-likelihood scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	// detectDuration tracks end-to-end scoring latency
	detectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ailian_detect_duration_seconds",
		Help:    "Detection duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	// modelFailures counts inference errors answered with the neutral score
	modelFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ailian_model_failures_total",
		Help: "Total classifier failures replaced by the neutral model score",
	})

	// calibratorLoaded is 1 while a calibrator artifact is in use
	calibratorLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ailian_calibrator_loaded",
		Help: "Whether a trained calibrator is currently loaded",
	})

	// trainingRuns counts calibrator fits by result
	trainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ailian_training_runs_total",
		Help: "Total calibrator training runs by result",
	}, []string{"result"})
)

func calibrationMode(calibrated bool) string {
	if calibrated {
		return "calibrated"
	}
	return "fallback"
}
