package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"yashubustudio/ailian/detector"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBatch bounds the number of texts accepted by the batch endpoint.
const maxBatch = 256

// Detector is the part of detector.Service the HTTP front end needs.
type Detector interface {
	Detect(ctx context.Context, text string) detector.Result
	DetectAll(ctx context.Context, texts []string) []detector.Result
	Store() *detector.CalibratorStore
	Degraded() bool
}

// Handlers serves the JSON API.
type Handlers struct {
	svc    Detector
	logger *slog.Logger
}

// NewHandlers creates handlers backed by svc.
func NewHandlers(svc Detector, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// RegisterRoutes mounts the API under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/detect", h.HandleDetect)
	rg.POST("/detect/batch", h.HandleDetectBatch)
	rg.GET("/calibrator", h.HandleCalibrator)
}

// NewRouter builds the engine with the API, health and metrics endpoints.
func NewRouter(svc Detector, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	h := NewHandlers(svc, logger)
	RegisterRoutes(router.Group("/api/v1"), h)
	router.GET("/healthz", h.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// HandleDetect handles POST /api/v1/detect.
//
//	200 OK: detector.Result
//	400 Bad Request: malformed body or empty text
func (h *Handlers) HandleDetect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is required", Code: "EMPTY_TEXT"})
		return
	}
	res := h.svc.Detect(c.Request.Context(), req.Text)
	h.logger.Debug("Detected",
		"final", res.FinalScore,
		"feature", res.FeatureScore,
		"model", res.ModelScore,
		"calibrated", res.Calibrated)
	c.JSON(http.StatusOK, res)
}

// HandleDetectBatch handles POST /api/v1/detect/batch.
func (h *Handlers) HandleDetectBatch(c *gin.Context) {
	var req BatchDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if len(req.Texts) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "texts are required", Code: "EMPTY_TEXT"})
		return
	}
	if len(req.Texts) > maxBatch {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "too many texts", Code: "BATCH_TOO_LARGE"})
		return
	}
	c.JSON(http.StatusOK, BatchDetectResponse{Results: h.svc.DetectAll(c.Request.Context(), req.Texts)})
}

// HandleCalibrator handles GET /api/v1/calibrator.
//
//	200 OK: CalibratorResponse
//	404 Not Found: no calibrator has been trained
func (h *Handlers) HandleCalibrator(c *gin.Context) {
	store := h.svc.Store()
	cal := store.Current()
	if cal == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no calibrator trained", Code: "NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, CalibratorResponse{
		ID:           cal.ID,
		Path:         store.Path(),
		Features:     cal.Features,
		Coefficients: cal.Coefficients,
		Intercept:    cal.Intercept,
		TrainedAt:    cal.TrainedAt,
		Samples:      cal.Samples,
	})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Degraded:   h.svc.Degraded(),
		Calibrated: h.svc.Store().Current() != nil,
	})
}

// Run serves router on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, router http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
