// Package analysis provides the typed client for the remote analysis
// service: request shapes, validation, transport, and error taxonomy.
// The returned payload is opaque to this layer and rendered as-is.
package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/Horizontal-Labs/ArminApp/internal/shared/id"
)

const (
	textEndpoint = "/api/analyze/text"
	fileEndpoint = "/api/analyze/file"

	headerRequestID  = "X-Request-ID"
	headerInstanceID = "X-Client-Instance"
)

// Config defines client construction parameters.
type Config struct {
	BaseURL string
	Timeout time.Duration // zero means 30s
	Retries int           // transport-level retries for failed sends
}

// Client talks to the analysis service.
type Client struct {
	resty      *resty.Client
	instanceID string

	mu      sync.Mutex
	limiter *rate.Limiter
}

// New creates a client with retrying transport and rate limiting.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	// Once retries are exhausted the final response must come back as a
	// response, not a synthesized "giving up" error, so settle can map a
	// non-2xx status onto the error taxonomy.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "ArminApp/1.0")

	return &Client{
		resty:      restyClient,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		instanceID: uuid.NewString(),
	}
}

// SetRateLimit configures outbound requests per second. Non-positive rps
// removes the limit. Safe to call while requests are in flight.
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *Client) rateLimiter() *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limiter
}

// AnalyzeText validates and sends a text request, returning the opaque
// analysis payload.
func (c *Client) AnalyzeText(ctx context.Context, req TextRequest) (json.RawMessage, error) {
	req.normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := r.SetBody(req).Post(textEndpoint)
	return c.settle(resp, err)
}

// AnalyzeFile validates and sends a file request as a multipart form,
// returning the opaque analysis payload. The file's Content-Type is
// detected from its contents.
func (c *Client) AnalyzeFile(ctx context.Context, req FileRequest) (json.RawMessage, error) {
	req.normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mtype, err := mimetype.DetectFile(req.Path)
	if err != nil {
		return nil, &TransportError{Message: "failed to read file: " + err.Error(), Err: err}
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return nil, &TransportError{Message: "failed to read file: " + err.Error(), Err: err}
	}
	defer f.Close()

	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	r.SetMultipartField("file", filepath.Base(req.Path), mtype.String(), f).
		SetFormData(map[string]string{
			"chatId":       req.ChatID,
			"analysisMode": req.Mode,
		})
	if req.AdditionalText != "" {
		r.SetFormData(map[string]string{"additionalText": req.AdditionalText})
	}

	resp, err := r.Post(fileEndpoint)
	return c.settle(resp, err)
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.rateLimiter().Wait(ctx); err != nil {
		return nil, &TransportError{Message: "request cancelled", Err: err}
	}
	return c.resty.R().
		SetContext(ctx).
		SetHeader(headerRequestID, id.NewRequestID().String()).
		SetHeader(headerInstanceID, c.instanceID), nil
}

// settle maps transport results onto the error taxonomy and extracts the
// opaque payload on success.
func (c *Client) settle(resp *resty.Response, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, &TransportError{Err: err, Message: err.Error()}
	}
	if !resp.IsSuccess() {
		return nil, &TransportError{
			StatusCode: resp.StatusCode(),
			Message:    "Analysis failed: " + http.StatusText(resp.StatusCode()),
		}
	}

	body := resp.Body()
	if !sonic.Valid(body) {
		return nil, &TransportError{
			StatusCode: resp.StatusCode(),
			Message:    "failed to parse analysis payload",
		}
	}

	payload := make(json.RawMessage, len(body))
	copy(payload, body)
	return payload, nil
}
