package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grievassist/ml-service/internal/config"
	"github.com/grievassist/ml-service/internal/database"
	"github.com/grievassist/ml-service/internal/logging"
	"github.com/grievassist/ml-service/internal/predictor"
	"github.com/grievassist/ml-service/internal/processor"
	"github.com/grievassist/ml-service/internal/telemetry"
)

const historyWriteTimeout = 3 * time.Second

// Handler serves the prediction API.
type Handler struct {
	predictor *predictor.Predictor
	batch     *processor.BatchProcessor
	limiter   *processor.RateLimiter
	history   *database.HistoryRepository // nil when history is disabled
	cfg       *config.Config
	logger    logging.Logger
	metrics   *telemetry.Metrics
}

// NewHandler wires the handler. history and tel may be nil.
func NewHandler(
	p *predictor.Predictor,
	batch *processor.BatchProcessor,
	limiter *processor.RateLimiter,
	history *database.HistoryRepository,
	cfg *config.Config,
	logger logging.Logger,
	tel *telemetry.Provider,
) *Handler {
	h := &Handler{
		predictor: p,
		batch:     batch,
		limiter:   limiter,
		history:   history,
		cfg:       cfg,
		logger:    logger,
	}
	if tel != nil {
		h.metrics = tel.Metrics
	}
	return h
}

// Predict handles POST /api/v1/predict.
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.cfg.Prediction.DefaultTopK
	}

	result, err := h.predictor.Predict(c.Request.Context(), req.Text, topK)
	if err != nil {
		h.logger.Error("prediction failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "prediction failed", Code: "PREDICTION_ERROR"})
		return
	}

	resp := toPredictResponse(result, h.cfg.Prediction.PriorityFallback)
	h.recordHistory(req.Text, resp)

	c.JSON(http.StatusOK, resp)
}

// PredictBatch handles POST /api/v1/predict/batch.
func (h *Handler) PredictBatch(c *gin.Context) {
	var req BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
		return
	}
	if len(req.Texts) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "texts must not be empty", Code: "BAD_REQUEST"})
		return
	}
	if limit := h.cfg.Service.BatchLimit; len(req.Texts) > limit {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("batch exceeds limit of %d items", limit),
			Code:  "BATCH_TOO_LARGE",
		})
		return
	}
	if h.limiter != nil && !h.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "batch rate limit exceeded", Code: "RATE_LIMITED"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.cfg.Prediction.DefaultTopK
	}

	results := h.batch.Process(c.Request.Context(), req.Texts, topK)

	resp := BatchPredictResponse{
		Results: make([]BatchItemResponse, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		if r.Err != nil {
			resp.Results[i] = BatchItemResponse{Error: "prediction failed"}
			continue
		}
		item := toPredictResponse(r.Result, h.cfg.Prediction.PriorityFallback)
		resp.Results[i] = BatchItemResponse{Prediction: &item}
		h.recordHistory(req.Texts[i], item)
	}

	c.JSON(http.StatusOK, resp)
}

// ModelInfo handles GET /api/v1/model.
func (h *Handler) ModelInfo(c *gin.Context) {
	meta := h.predictor.Metadata()
	c.JSON(http.StatusOK, ModelInfoResponse{
		CreatedAt:   meta.CreatedAt.UTC().Format(time.RFC3339),
		NSamples:    meta.NSamples,
		Categories:  meta.Categories,
		HasPriority: h.predictor.HasPriority(),
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "prediction history is disabled", Code: "HISTORY_DISABLED"})
		return
	}

	stats, err := h.history.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to aggregate history stats", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read stats", Code: "STATS_ERROR"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// recordHistory stores the prediction asynchronously. Failures are logged
// and counted, never surfaced to the caller.
func (h *Handler) recordHistory(text any, resp PredictResponse) {
	if h.history == nil {
		return
	}

	rec := &database.PredictionRecord{
		TextHash:         database.HashText(fmt.Sprint(text)),
		Category:         resp.Category,
		Priority:         resp.Priority,
		Confidence:       resp.Confidence,
		FakeScore:        resp.IsFakeScore,
		ProcessingTimeMs: resp.ProcessingTimeMs,
		CreatedAt:        time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		defer cancel()

		if err := h.history.Insert(ctx, rec); err != nil {
			h.logger.Warn("history write failed", "error", err)
			if h.metrics != nil {
				h.metrics.HistoryWriteErrors.Inc()
			}
		}
	}()
}
