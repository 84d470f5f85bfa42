// Package processor runs predictions over batches of complaints with a
// bounded worker pool. One bad item never sinks the batch; each slot
// carries its own result or error.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/grievassist/ml-service/internal/domain"
	"github.com/grievassist/ml-service/internal/logging"
	"github.com/grievassist/ml-service/internal/predictor"
	"github.com/grievassist/ml-service/internal/telemetry"
)

const defaultConcurrency = 10

// BatchResult holds the outcome for a single batch slot. Results keep the
// input order of the batch.
type BatchResult struct {
	Result domain.PredictionResult
	Err    error
}

// BatchProcessor fans batch items out over a worker pool.
type BatchProcessor struct {
	predictor   *predictor.Predictor
	concurrency int
	logger      logging.Logger
	metrics     *telemetry.Metrics
}

// NewBatchProcessor creates a batch processor. tel may be nil.
func NewBatchProcessor(p *predictor.Predictor, concurrency int, logger logging.Logger, tel *telemetry.Provider) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	bp := &BatchProcessor{
		predictor:   p,
		concurrency: concurrency,
		logger:      logger,
	}
	if tel != nil {
		bp.metrics = tel.Metrics
	}
	return bp
}

// Process predicts every text in the batch, preserving input order.
// topK applies to every item.
func (b *BatchProcessor) Process(ctx context.Context, texts []string, topK int) []BatchResult {
	if len(texts) == 0 {
		return []BatchResult{}
	}

	start := time.Now()
	results := make([]BatchResult, len(texts))

	jobs := make(chan int, len(texts))
	var wg sync.WaitGroup

	workers := b.concurrency
	if workers > len(texts) {
		workers = len(texts)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = BatchResult{Err: err}
					continue
				}
				result, err := b.predictor.Predict(ctx, texts[idx], topK)
				results[idx] = BatchResult{Result: result, Err: err}
			}
		}()
	}

	for idx := range texts {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	errorCount := 0
	for i := range results {
		if results[i].Err != nil {
			errorCount++
		}
	}

	if b.metrics != nil {
		b.metrics.BatchSize.Observe(float64(len(texts)))
	}
	b.logger.Info("batch processing complete",
		"batch_size", len(texts),
		"errors", errorCount,
		"concurrency", workers,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return results
}
