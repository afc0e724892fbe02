package planapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/metrics"
)

// maxErrorBody limits how much of a failed response is kept for logging.
const maxErrorBody = 512

// BackendError is a non-2xx answer from the planner backend.
type BackendError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("Backend error: %d %s", e.Status, e.StatusText)
}

func (e *BackendError) Unwrap() error {
	return entity.ErrBackend
}

// Client talks to the live planner backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

var _ repository.DataSource = (*Client)(nil)

func (c *Client) Name() string {
	return "live"
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch sends the form to the variant's endpoint and normalizes the answer.
func (c *Client) Fetch(ctx context.Context, v entity.Variant, form entity.PlanForm) (*entity.CityPlanResponse, error) {
	ep := v.Endpoint()
	if ep.Path == "" {
		return nil, fmt.Errorf("%w: unknown variant %q", entity.ErrValidation, v)
	}

	body, err := c.makeRequest(ctx, ep.Path, buildPayload(v, form))
	if err != nil {
		return nil, err
	}

	resp, err := normalize(v, form, body)
	if err != nil {
		metrics.IncError("planapi", "decode_response")
		return nil, fmt.Errorf("%w: failed to decode %s response: %v", entity.ErrBackend, v, err)
	}
	return resp, nil
}

func (c *Client) makeRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		metrics.IncError("planapi", "marshal_request")
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		metrics.IncError("planapi", "create_request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncError("planapi", "http_do")
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrBackend, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("close body", "err", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.IncError("planapi", fmt.Sprintf("api_error_%d", resp.StatusCode))
		berr := &BackendError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
		c.logger.Error("planner backend error", "path", path, "status", resp.StatusCode, "body", berr.Body)
		return nil, berr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncError("planapi", "read_body")
		return nil, fmt.Errorf("%w: failed to read response: %v", entity.ErrBackend, err)
	}
	return body, nil
}
