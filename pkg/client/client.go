// Package client is a Go client for the ml-service prediction API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/grievassist/ml-service/internal/domain"
)

const defaultTimeout = 5 * time.Second

// ErrUnavailable indicates the prediction service is unreachable.
var ErrUnavailable = errors.New("ml-service unavailable")

// Prediction mirrors the wire shape of one prediction.
type Prediction struct {
	Category            string              `json:"category"`
	Priority            string              `json:"priority"`
	Confidence          float64             `json:"confidence"`
	IsFakeScore         float64             `json:"isFakeScore"`
	TopK                []domain.LabelScore `json:"top_k"`
	SecondaryCategories []string            `json:"secondary_categories"`
	CategoryProbs       map[string]float64  `json:"category_probs"`
	ProcessingTimeMs    int64               `json:"processing_time_ms"`
}

// BatchItem is one slot of a batch reply.
type BatchItem struct {
	Prediction *Prediction `json:"prediction,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// ModelInfo describes the loaded model bundle.
type ModelInfo struct {
	CreatedAt   string   `json:"created_at"`
	NSamples    int      `json:"n_samples"`
	Categories  []string `json:"categories"`
	HasPriority bool     `json:"has_priority"`
}

// Client calls the ml-service HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithToken sets a bearer token for authenticated deployments.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict classifies one complaint. topK <= 0 uses the server default.
func (c *Client) Predict(ctx context.Context, text string, topK int) (*Prediction, error) {
	body := map[string]any{"text": text}
	if topK > 0 {
		body["top_k"] = topK
	}

	var result Prediction
	if err := c.post(ctx, "/api/v1/predict", body, &result); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return &result, nil
}

// PredictBatch classifies several complaints in one call. Slots keep the
// input order; failed slots carry an error message.
func (c *Client) PredictBatch(ctx context.Context, texts []string, topK int) ([]BatchItem, error) {
	body := map[string]any{"texts": texts}
	if topK > 0 {
		body["top_k"] = topK
	}

	var result struct {
		Results []BatchItem `json:"results"`
	}
	if err := c.post(ctx, "/api/v1/predict/batch", body, &result); err != nil {
		return nil, fmt.Errorf("predict batch: %w", err)
	}
	return result.Results, nil
}

// Model fetches the loaded bundle's metadata.
func (c *Client) Model(ctx context.Context) (*ModelInfo, error) {
	var info ModelInfo
	if err := c.get(ctx, "/api/v1/model", &info); err != nil {
		return nil, fmt.Errorf("model info: %w", err)
	}
	return &info, nil
}

// Health reports whether the service answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("service returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("service returned %d", resp.StatusCode)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}
