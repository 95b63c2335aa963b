package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gitgaze/gitgaze/internal/metrics"
	"github.com/gitgaze/gitgaze/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultAPIBaseURL = "https://api.github.com/"
	defaultUserAgent  = "gitgaze-analytics"

	acceptHeader = "application/vnd.github.v3+json"
)

// HTTPDoer is implemented by http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for outbound GitHub calls. An empty
// token means anonymous access and no Authorization header is attached.
type TokenSource interface {
	Token(ctx context.Context) string
}

// ClientConfig configures the GitHub fetch client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Logger    *zap.Logger
}

// Client performs single authenticated calls against GitHub REST endpoints
// and normalizes HTTP failures into typed errors. It is the only component
// that attaches credentials to outbound requests.
type Client struct {
	doer      HTTPDoer
	baseURL   *url.URL
	userAgent string
	tokens    TokenSource
	observer  *metrics.GitHubMetrics
	logger    *zap.Logger
}

// NewClient creates a GitHub fetch client. tokens and observer may be nil.
func NewClient(doer HTTPDoer, tokens TokenSource, observer *metrics.GitHubMetrics, cfg ClientConfig) (*Client, error) {
	if doer == nil {
		return nil, fmt.Errorf("http doer is required")
	}

	parsed, err := parseAPIBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		doer:      doer,
		baseURL:   parsed,
		userAgent: userAgent,
		tokens:    tokens,
		observer:  observer,
		logger:    logger,
	}, nil
}

// Get fetches one endpoint and decodes the JSON response into target.
// endpoint is a path with optional query, e.g. "/users/octocat/repos?sort=updated".
func (c *Client) Get(ctx context.Context, endpoint string, target any) error {
	var span trace.Span
	if telemetry.ShouldTraceDependencies() {
		ctx, span = otel.Tracer("gitgaze/internal/githubapi").Start(
			ctx,
			"githubapi.client.get",
			trace.WithAttributes(attribute.String("github.endpoint", endpointResource(endpoint))),
		)
		defer span.End()
	}

	resp, err := c.do(ctx, endpoint)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return fmt.Errorf("decode %s response: %w", endpointResource(endpoint), err)
	}

	if span != nil {
		span.SetStatus(codes.Ok, "request completed")
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string) (*http.Response, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	reqURL := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpointResource(endpoint), err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.userAgent)
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		c.observe(endpoint, 0)
		return nil, fmt.Errorf("github request for %s failed: %w", endpointResource(endpoint), err)
	}

	c.observe(endpoint, resp.StatusCode)
	c.observeRateHeaders(resp.Header)

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}

	drainAndClose(resp.Body)
	resource := endpointResource(endpoint)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, &NotFoundError{Endpoint: resource}
	case http.StatusForbidden:
		return nil, &RateLimitedError{Endpoint: resource}
	default:
		return nil, &UpstreamError{
			Endpoint:   resource,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}
}

func (c *Client) observe(endpoint string, statusCode int) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(endpointResource(endpoint), statusCode)
}

func (c *Client) observeRateHeaders(header http.Header) {
	if c.observer == nil {
		return
	}
	remaining := header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return
	}
	c.observer.ObserveRemaining(remaining)
}

func parseAPIBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultAPIBaseURL
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse github api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse github api base url: missing scheme or host")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}

// endpointResource strips the query string and path parameters down to a
// low-cardinality label safe for metrics and traces. The token never appears
// here because credentials travel only in headers.
func endpointResource(endpoint string) string {
	path := endpoint
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	segments := strings.Split(path, "/")
	switch segments[0] {
	case "users":
		if len(segments) >= 3 {
			return "users/" + segments[2]
		}
		return "users"
	case "repos":
		if len(segments) >= 4 {
			return "repos/" + segments[3]
		}
		return "repos"
	case "search":
		return "search"
	default:
		return segments[0]
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
