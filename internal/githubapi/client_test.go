package githubapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type fakeDoer struct {
	requests []*http.Request
	handler  func(req *http.Request) (*http.Response, error)
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	return f.handler(req)
}

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClientAttachesHeaders(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{handler: func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"login":"octocat"}`), nil
	}}
	client, err := NewClient(doer, staticToken("abc123"), nil, ClientConfig{UserAgent: "test-agent"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var target map[string]any
	if err := client.Get(context.Background(), "/users/octocat", &target); err != nil {
		t.Fatalf("Get: %v", err)
	}

	req := doer.requests[0]
	if got := req.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", got)
	}
	if got := req.Header.Get("User-Agent"); got != "test-agent" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer abc123" {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.URL.String(); got != "https://api.github.com/users/octocat" {
		t.Errorf("request URL = %q", got)
	}
}

func TestClientAnonymousOmitsAuthorization(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{handler: func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	}}
	client, err := NewClient(doer, staticToken(""), nil, ClientConfig{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var target map[string]any
	if err := client.Get(context.Background(), "/rate_limit", &target); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, present := doer.requests[0].Header["Authorization"]; present {
		t.Fatal("Authorization header attached for anonymous request")
	}
}

func TestClientErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "404 maps to not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				if !IsNotFound(err) {
					t.Fatalf("expected NotFoundError, got %v", err)
				}
			},
		},
		{
			name:   "403 maps to rate limited",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				if !IsRateLimited(err) {
					t.Fatalf("expected RateLimitedError, got %v", err)
				}
				if !strings.Contains(err.Error(), "sign in with GitHub or configure a token") {
					t.Errorf("rate limit error lacks guidance: %v", err)
				}
			},
		},
		{
			name:   "500 maps to upstream",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var upstream *UpstreamError
				if !errors.As(err, &upstream) {
					t.Fatalf("expected UpstreamError, got %v", err)
				}
				if upstream.StatusCode != http.StatusInternalServerError {
					t.Errorf("StatusCode = %d", upstream.StatusCode)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			doer := &fakeDoer{handler: func(*http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, `{"message":"nope"}`), nil
			}}
			client, err := NewClient(doer, nil, nil, ClientConfig{})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}

			var target map[string]any
			getErr := client.Get(context.Background(), "/users/ghost", &target)
			if getErr == nil {
				t.Fatal("expected error")
			}
			tc.check(t, getErr)
		})
	}
}

func TestClientCustomBaseURL(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{handler: func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	}}
	client, err := NewClient(doer, nil, nil, ClientConfig{BaseURL: "https://github.internal/api/v3"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var target map[string]any
	if err := client.Get(context.Background(), "users/octocat", &target); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := doer.requests[0].URL.String(); got != "https://github.internal/api/v3/users/octocat" {
		t.Errorf("request URL = %q", got)
	}
}

func TestClientRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{handler: func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	}}
	if _, err := NewClient(doer, nil, nil, ClientConfig{BaseURL: "not-a-url"}); err == nil {
		t.Fatal("expected error for base URL without scheme")
	}
	if _, err := NewClient(nil, nil, nil, ClientConfig{}); err == nil {
		t.Fatal("expected error for nil doer")
	}
}

func TestEndpointResource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		endpoint string
		want     string
	}{
		{"/users/octocat", "users"},
		{"/users/octocat/repos?sort=updated&page=2", "users/repos"},
		{"/users/octocat/followers", "users/followers"},
		{"/repos/octocat/hello/commits?since=2025-01-01T00:00:00Z", "repos/commits"},
		{"/search/repositories?q=cli", "search"},
		{"/rate_limit", "rate_limit"},
		{"", "root"},
	}
	for _, tc := range tests {
		if got := endpointResource(tc.endpoint); got != tc.want {
			t.Errorf("endpointResource(%q) = %q, want %q", tc.endpoint, got, tc.want)
		}
	}
}
