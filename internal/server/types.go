package server

import (
	"time"

	"yashubustudio/ailian/detector"
)

// DetectRequest is the body of POST /api/v1/detect.
type DetectRequest struct {
	Text string `json:"text"`
}

// BatchDetectRequest is the body of POST /api/v1/detect/batch.
type BatchDetectRequest struct {
	Texts []string `json:"texts"`
}

// BatchDetectResponse holds one result per request text, in order.
type BatchDetectResponse struct {
	Results []detector.Result `json:"results"`
}

// CalibratorResponse describes the active calibrator.
type CalibratorResponse struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	Features     []string   `json:"features"`
	Coefficients [2]float64 `json:"coefficients"`
	Intercept    float64    `json:"intercept"`
	TrainedAt    time.Time  `json:"trainedAt"`
	Samples      int        `json:"samples"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Degraded   bool   `json:"degraded"`
	Calibrated bool   `json:"calibrated"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
