// Package n8n is the read-only client for the n8n public REST API.
// Responses are cached briefly and every failure is classified into a Kind.
package n8n

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/n8n-dashboard/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTimeout bounds every upstream request.
	DefaultTimeout = 10 * time.Second
	// DefaultExecutionLimit is sent when no execution limit is requested.
	DefaultExecutionLimit = 5
	// APIKeyHeader carries the static n8n API key.
	APIKeyHeader = "X-N8N-API-KEY"

	tracerName = "github.com/dukex/n8n-dashboard/pkg/n8n"
)

// ExecutionFilters narrows an execution listing.
type ExecutionFilters struct {
	WorkflowID string
	Limit      int
}

func (f ExecutionFilters) values() url.Values {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultExecutionLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	if f.WorkflowID != "" {
		params.Set("workflowId", f.WorkflowID)
	}

	return params
}

// Client talks to one n8n instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	cache      *Cache
	inflight   singleflight.Group
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Its timeout is left as is.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
// It has no effect on a client supplied through WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithCache injects the response cache, e.g. one with a fake clock.
func WithCache(cache *Cache) Option {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// New creates a client for the n8n API rooted at baseURL (e.g. http://localhost:5678/api/v1).
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("n8n base url required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    DefaultTimeout,
		cache:      NewCache(DefaultCacheTTL),
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c, nil
}

// FetchWorkflows returns the raw workflow list.
func (c *Client) FetchWorkflows(ctx context.Context) ([]byte, error) {
	return c.getWithCache(ctx, "/workflows", url.Values{})
}

// FetchWorkflow returns one raw workflow, or an error matching ErrNotFound.
func (c *Client) FetchWorkflow(ctx context.Context, id string) ([]byte, error) {
	return c.getWithCache(ctx, "/workflows/"+url.PathEscape(id), url.Values{})
}

// FetchExecutions returns the raw execution list. The limit is passed through
// as given; only an unset limit is replaced by DefaultExecutionLimit.
func (c *Client) FetchExecutions(ctx context.Context, filters ExecutionFilters) ([]byte, error) {
	return c.getWithCache(ctx, "/executions", filters.values())
}

// FetchExecution returns one raw execution including its run data, or an
// error matching ErrNotFound.
func (c *Client) FetchExecution(ctx context.Context, id string) ([]byte, error) {
	params := url.Values{}
	params.Set("includeData", "true")

	return c.getWithCache(ctx, "/executions/"+url.PathEscape(id), params)
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// getWithCache serves path from the cache while the entry is fresh and
// otherwise asks upstream, caching successful payloads only. Concurrent
// misses for the same key share one upstream call.
func (c *Client) getWithCache(ctx context.Context, path string, params url.Values) ([]byte, error) {
	op := http.MethodGet + " " + path
	key := cacheKey(path, params)

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "n8n.fetch",
		attribute.String(otelhelper.EndpointKey, path),
		attribute.String(otelhelper.CacheKeyKey, key),
	)
	defer span.End()

	if payload, ok := c.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool(otelhelper.CacheHitKey, true))
		c.logger.DebugContext(ctx, "n8n cache hit", "key", key)

		return payload, nil
	}

	span.SetAttributes(attribute.Bool(otelhelper.CacheHitKey, false))

	// No single caller can cancel the shared call.
	sharedCtx := context.WithoutCancel(ctx)

	ch := c.inflight.DoChan(key, func() (any, error) {
		payload, err := c.get(sharedCtx, op, path, params)
		if err != nil {
			return nil, err
		}

		c.cache.Set(key, payload)

		return payload, nil
	})

	var (
		result any
		err    error
		shared bool
	)

	select {
	case res := <-ch:
		result, err, shared = res.Val, res.Err, res.Shared
	case <-ctx.Done():
		err = transportError(op, ctx.Err())
	}

	if err != nil {
		kind := KindOf(err)
		otelhelper.SetError(span, err, attribute.String(otelhelper.ErrorKindKey, kind.String()))
		c.logger.WarnContext(ctx, "n8n request failed", "op", op, "kind", kind.String(), "error", err)

		return nil, err
	}

	c.logger.DebugContext(ctx, "n8n cache miss", "key", key, "shared", shared)

	payload, _ := result.([]byte)

	return payload, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, requestError(op, err)
	}

	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, requestError(op, err)
	}

	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)

	if err != nil {
		return nil, transportError(op, fmt.Errorf("execute request (latency=%v): %w", latency, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(op, resp.StatusCode, body)
	}

	if !json.Valid(body) {
		return nil, payloadError(op, errors.New("response body is not valid JSON"))
	}

	return body, nil
}

// Decode unmarshals a payload returned by the client. A payload that does not
// have the expected shape is reported as an upstream failure.
func Decode(op string, payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return payloadError(op, fmt.Errorf("decode response: %w", err))
	}

	return nil
}
