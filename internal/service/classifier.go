package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/medlit/paperclass/internal/domain"
)

// Classifier is the external classification capability: an ordered list of
// texts in, an equally long ordered list of per-category predictions out.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([][]domain.Prediction, error)
}

// ModelClient calls the remote model service over HTTP. One request carries
// one chunk of texts; model inference is expensive, hence the long per-request
// timeout budget.
type ModelClient struct {
	client    *resty.Client
	endpoint  string
	maxLength int
}

// ModelClientConfig holds configuration for the model service client.
type ModelClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	MaxLength int
}

// NewModelClient creates a model service client.
// Parameters:
//   - cfg: client configuration including base URL and timeout.
// Returns:
//   - *ModelClient: initialized client wrapper.
func NewModelClient(cfg *ModelClientConfig) *ModelClient {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)

	return &ModelClient{
		client:    client,
		endpoint:  strings.TrimSuffix(cfg.BaseURL, "/") + "/classify",
		maxLength: cfg.MaxLength,
	}
}

// Model service request/response structures
type classifyRequest struct {
	Texts     []string `json:"texts"`
	MaxLength int      `json:"max_length,omitempty"`
}

type classifyResponse struct {
	Predictions [][]domain.Prediction `json:"predictions"`
	Detail      string                `json:"detail,omitempty"`
}

// Classify sends one batch of texts to the model service.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - texts: ordered texts to classify.
// Returns:
//   - [][]domain.Prediction: one ordered prediction list per input text.
//   - error: ErrModelUnavailable on transport failure or timeout,
//     ErrModelError on a non-success or malformed response.
func (c *ModelClient) Classify(ctx context.Context, texts []string) ([][]domain.Prediction, error) {
	req := classifyRequest{
		Texts:     texts,
		MaxLength: c.maxLength,
	}

	var resp classifyResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.endpoint)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		detail := resp.Detail
		if detail == "" {
			detail = string(httpResp.Body())
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrModelError, httpResp.StatusCode(), detail)
	}

	if len(resp.Predictions) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d prediction lists, got %d",
			ErrModelError, len(texts), len(resp.Predictions))
	}

	return resp.Predictions, nil
}

var _ Classifier = (*ModelClient)(nil)
