// Package apiclient performs bearer-authenticated JSON calls to the ordering API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/observability/metrics"
	"github.com/target/foodorder-ui/internal/observability/statsd"
	"github.com/target/foodorder-ui/internal/ports"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxErrorBody = 4096

	// RequestIDHeader carries a per-call id the API can log.
	RequestIDHeader = "X-Request-Id"
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	MaxErrorBodyBytes int64
	Logger            *slog.Logger
	Metrics           statsd.Sink
}

// Client implements ports.APIClient.
type Client struct {
	base       *url.URL
	http       *http.Client
	timeout    time.Duration
	maxErrBody int64
	logger     *slog.Logger
	metrics    statsd.Sink
}

var _ ports.APIClient = (*Client)(nil)

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http(s): %q", raw)
	}

	c := &Client{
		base:       base,
		http:       opts.HTTPClient,
		timeout:    opts.Timeout,
		maxErrBody: opts.MaxErrorBodyBytes,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxErrBody <= 0 {
		c.maxErrBody = defaultMaxErrorBody
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "apiclient")
	if c.metrics == nil {
		c.metrics = statsd.Nop{}
	}
	return c, nil
}

// Do runs req with a bearer token from tokens and decodes a 2xx body into out.
func (c *Client) Do(ctx context.Context, tokens ports.TokenSource, req ports.APIRequest, out any) error {
	if tokens == nil {
		return apperrors.AuthUnavailable(errors.New("no token source"))
	}
	token, err := tokens.Token(ctx)
	if err != nil {
		return apperrors.AuthUnavailable(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	status, err := c.do(ctx, token, req, out)
	metrics.EmitAPICall(c.metrics, metrics.APICall{
		Operation: req.Operation,
		Method:    req.Method,
		Status:    status,
		Duration:  time.Since(start),
		Err:       err,
	})
	return err
}

func (c *Client) do(ctx context.Context, token string, req ports.APIRequest, out any) (int, error) {
	httpReq, requestID, err := c.newRequest(ctx, token, req)
	if err != nil {
		return 0, apperrors.RequestFailedCause(req.Operation, err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "api request failed",
			"operation", req.Operation,
			"method", httpReq.Method,
			"path", httpReq.URL.Path,
			"request_id", requestID,
			"error", err,
		)
		return 0, apperrors.RequestFailedCause(req.Operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, truncated := c.readErrorBody(resp.Body)
		c.logger.WarnContext(ctx, "api returned error status",
			"operation", req.Operation,
			"method", httpReq.Method,
			"path", httpReq.URL.Path,
			"status", resp.StatusCode,
			"request_id", requestID,
			"body", body,
			"body_truncated", truncated,
		)
		return resp.StatusCode, apperrors.RequestFailed(req.Operation, resp.StatusCode)
	}

	if err := decodeBody(resp.Body, out); err != nil {
		return resp.StatusCode, apperrors.RequestFailedCause(req.Operation, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, token string, req ports.APIRequest) (*http.Request, string, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ref, err := url.Parse(req.Path)
	if err != nil {
		return nil, "", fmt.Errorf("parse path: %w", err)
	}
	target := c.base.ResolveReference(ref)

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	return httpReq, requestID, nil
}

// readErrorBody returns at most maxErrBody bytes for logging and drains the rest.
func (c *Client) readErrorBody(body io.Reader) (string, bool) {
	data, _ := io.ReadAll(io.LimitReader(body, c.maxErrBody+1))
	truncated := int64(len(data)) > c.maxErrBody
	if truncated {
		data = data[:c.maxErrBody]
		_, _ = io.Copy(io.Discard, body)
	}
	return string(data), truncated
}

func decodeBody(body io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
