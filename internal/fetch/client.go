// Package fetch calls the n8n tracking webhook and caches its responses.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/models"
	"github.com/mcncl/editrack/internal/parser"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-call request ID to the webhook.
const RequestIDHeader = "X-Request-ID"

const bodyPreviewLength = 500

// Fetcher returns the raw tracking response for a document.
type Fetcher interface {
	Track(ctx context.Context, documentID string) (models.Value, error)
}

// Client posts tracking requests to the n8n webhook
type Client struct {
	endpoint   string
	timeout    time.Duration
	retry      RetryPolicy
	maxDepth   int
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request and retry events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEndpoint overrides the URL derived from the config.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// NewClient creates a Client from the n8n and normalize sections of cfg.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		endpoint: cfg.TrackingEndpoint(),
		timeout:  cfg.N8N.Timeout,
		retry: RetryPolicy{
			MaxRetries: cfg.N8N.Retries,
			Delay:      cfg.N8N.RetryDelay,
		},
		maxDepth:   cfg.Normalize.MaxDepth,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL tracking requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// trackingRequest names the document under every key the workflow has accepted.
type trackingRequest struct {
	DocumentID      string `json:"document_id"`
	DocID           string `json:"doc_id"`
	DocumentIDCamel string `json:"documentId"`
}

// Track fetches the tracking data for documentID. Non-2xx responses are
// errors; a body that is not a JSON object is wrapped so the result is
// always an object.
func (c *Client) Track(ctx context.Context, documentID string) (models.Value, error) {
	id := strings.TrimSpace(documentID)
	if id == "" {
		return nil, errors.NewInputError("document ID is required", errors.ErrNoDocumentID)
	}

	body, err := json.Marshal(trackingRequest{DocumentID: id, DocID: id, DocumentIDCamel: id})
	if err != nil {
		return nil, errors.NewFetchError("failed to encode request", err)
	}

	requestID := uuid.NewString()
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("document_id", id),
	)

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retry.Backoff(attempt)
			logger.Warn("retrying tracking request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, errors.NewFetchError("request cancelled", ctx.Err())
			case <-time.After(backoff):
			}
		}

		value, retryable, err := c.post(ctx, body, requestID, logger)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, errors.NewFetchError(fmt.Sprintf("document %s", id), lastErr)
}

func (c *Client) post(ctx context.Context, body []byte, requestID string, logger *zap.Logger) (models.Value, bool, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("error sending request: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if closeErr := rc.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}(res.Body)

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, true, fmt.Errorf("error reading response body: %w", err)
	}

	logger.Debug("tracking response received",
		zap.String("url", c.endpoint),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Duration("duration", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		err := fmt.Errorf("%w %d: %s", errors.ErrHTTPStatus, res.StatusCode, preview(respBody))
		return nil, RetryableStatus(res.StatusCode), err
	}
	return c.decodeBody(respBody), false, nil
}

// decodeBody turns a response body into an object: empty bodies give {},
// non-object JSON is wrapped as {"data": value} and anything that is not
// JSON at all as {"text": body}.
func (c *Client) decodeBody(body []byte) models.Value {
	if len(body) == 0 {
		return models.NewObject()
	}
	v, err := parser.DecodeBytes(body, parser.Options{MaxDepth: c.maxDepth})
	if err != nil {
		return models.ObjectOf("text", models.String(body))
	}
	if obj, ok := v.(*models.Object); ok {
		return obj
	}
	return models.ObjectOf("data", v)
}

// preview shortens body to bodyPreviewLength runes for error messages.
func preview(body []byte) string {
	text := strings.TrimSpace(string(body))
	count := 0
	for i := range text {
		if count == bodyPreviewLength {
			return text[:i] + "..."
		}
		count++
	}
	return text
}
