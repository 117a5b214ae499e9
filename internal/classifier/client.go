// Package classifier provides a Go client for an external model-serving
// service that trains and applies binary classifiers over feature matrices.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/atikulmunna/logsift/internal/model"
)

// DefaultThreshold maps a score to the positive class.
const DefaultThreshold = 0.5

// Client is the model service client. It satisfies policy.Classifier.
type Client struct {
	baseURL    string
	modelName  string
	threshold  float64
	httpClient *http.Client

	mu         sync.Mutex
	lastScores []float64
}

// Option configures a Client.
type Option func(*Client)

// WithThreshold sets the score at or above which a row is labelled 1.
func WithThreshold(t float64) Option {
	return func(c *Client) { c.threshold = t }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the named model on the service at baseURL.
func NewClient(baseURL, modelName string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		modelName: modelName,
		threshold: DefaultThreshold,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FitRequest is the request for training a model.
type FitRequest struct {
	Features     [][]float64 `json:"features"`
	Labels       []int       `json:"labels"`
	FeatureNames []string    `json:"feature_names"`
}

// FitResponse is the response from training.
type FitResponse struct {
	Status    string `json:"status"`
	ModelName string `json:"model_name"`
	Samples   int    `json:"samples"`
}

// PredictRequest is the request for scoring rows.
type PredictRequest struct {
	Features [][]float64 `json:"features"`
}

// PredictResponse carries one score per row. Scores are probabilities of the
// positive class, or hard 0/1 labels from services that do not expose them.
type PredictResponse struct {
	Predictions []float64 `json:"predictions"`
}

// HealthResponse is the response from health check.
type HealthResponse struct {
	Status       string   `json:"status"`
	LoadedModels []string `json:"loaded_models"`
}

// Health checks if the service is healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	var result HealthResponse
	if err := c.do(req, "health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Fit trains the model on X and y.
func (c *Client) Fit(ctx context.Context, X [][]float64, y []int) error {
	var result FitResponse
	return c.post(ctx, "fit", FitRequest{
		Features:     X,
		Labels:       y,
		FeatureNames: model.FeatureNames,
	}, &result)
}

// Predict scores X and maps each score to 0 or 1.
func (c *Client) Predict(ctx context.Context, X [][]float64) ([]int, error) {
	scores, err := c.Scores(ctx, X)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(scores))
	for i, s := range scores {
		if s >= c.threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// Scores returns the raw per-row scores.
func (c *Client) Scores(ctx context.Context, X [][]float64) ([]float64, error) {
	var result PredictResponse
	if err := c.post(ctx, "predict", PredictRequest{Features: X}, &result); err != nil {
		return nil, err
	}
	if len(result.Predictions) != len(X) {
		return nil, fmt.Errorf("predict returned %d scores for %d rows", len(result.Predictions), len(X))
	}

	c.mu.Lock()
	c.lastScores = append(c.lastScores[:0], result.Predictions...)
	c.mu.Unlock()

	return result.Predictions, nil
}

// LastScores returns a copy of the scores from the most recent predict call.
func (c *Client) LastScores() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.lastScores...)
}

func (c *Client) post(ctx context.Context, op string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	url := fmt.Sprintf("%s/models/%s/%s", c.baseURL, c.modelName, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
