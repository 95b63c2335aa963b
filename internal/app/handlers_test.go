package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gitgaze/gitgaze/internal/config"
	"go.uber.org/zap"
)

// newGitHubStub serves a small fixed profile the way api.github.com would.
func newGitHubStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	serve := func(pattern, body string) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}

	serve("/users/octocat", `{
		"id": 583231, "login": "octocat", "name": "The Octocat",
		"public_repos": 2, "followers": 3, "following": 2,
		"created_at": "2011-01-25T18:44:36Z"
	}`)
	serve("/users/octocat/repos", `[
		{"id": 1, "name": "hello", "full_name": "octocat/hello", "language": "Go",
		 "size": 120, "fork": false, "stargazers_count": 80,
		 "created_at": "2020-01-01T00:00:00Z", "updated_at": "2026-08-01T00:00:00Z"},
		{"id": 2, "name": "legacy", "full_name": "octocat/legacy", "language": "Ruby",
		 "size": 4000, "fork": false, "stargazers_count": 5,
		 "created_at": "2015-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}
	]`)
	serve("/users/octocat/followers", `[
		{"id": 10, "login": "alice"},
		{"id": 11, "login": "bob"},
		{"id": 12, "login": "carol"}
	]`)
	serve("/users/octocat/following", `[
		{"id": 11, "login": "bob"},
		{"id": 13, "login": "dave"}
	]`)
	serve("/users/octocat/gists", `[]`)
	serve("/users/octocat/starred", `[]`)
	serve("/repos/octocat/hello/commits", `[
		{"sha": "aaa", "commit": {"author": {"name": "octocat", "date": "2026-08-27T10:00:00Z"}}},
		{"sha": "bbb", "commit": {"author": {"name": "octocat", "date": "2026-08-20T10:00:00Z"}}}
	]`)
	serve("/repos/octocat/legacy/commits", `[]`)
	serve("/rate_limit", `{
		"resources": {
			"core": {"limit": 5000, "remaining": 4980, "reset": 1756450000, "used": 20},
			"search": {"limit": 30, "remaining": 30, "reset": 1756450000, "used": 0}
		}
	}`)
	mux.HandleFunc("/users/ghost", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/users/limited", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestRuntime(t *testing.T, githubURL string) *Runtime {
	t.Helper()

	raw := fmt.Sprintf("github:\n  api_base_url: %s\n", githubURL)
	cfg, err := config.Load(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Load config: %v", err)
	}

	runtime, err := NewRuntime(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	t.Cleanup(func() { _ = runtime.Close() })
	return runtime
}

func doRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRuntimeUserEndpoint(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/users/octocat")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var user struct {
		Login     string `json:"login"`
		Followers int    `json:"followers"`
	}
	decodeBody(t, rec, &user)
	if user.Login != "octocat" || user.Followers != 3 {
		t.Errorf("user = %+v", user)
	}
}

func TestRuntimeUnknownUserMapsTo404(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/users/ghost")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]string
	decodeBody(t, rec, &payload)
	if payload["error"] == "" {
		t.Error("missing error message")
	}
}

func TestRuntimeRateLimitedMapsTo429(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/users/limited")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sign in with GitHub") {
		t.Errorf("body lacks auth guidance: %s", rec.Body.String())
	}
}

func TestRuntimeOverview(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/users/octocat/overview")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	type namedEntry struct {
		Login string `json:"login"`
	}
	var overview struct {
		User         namedEntry       `json:"user"`
		Repositories []map[string]any `json:"repositories"`
		Followers    []map[string]any `json:"followers"`
		RateLimit    struct {
			Core struct {
				Remaining int `json:"remaining"`
			} `json:"core"`
		} `json:"rate_limit"`
		Insights struct {
			Mutual           []namedEntry `json:"mutual"`
			NotFollowingBack []namedEntry `json:"not_following_back"`
			NotFollowedBack  []namedEntry `json:"not_followed_back"`
		} `json:"follower_insights"`
		Languages struct {
			MostUsed      string `json:"most_used"`
			LargestBySize string `json:"largest_by_size"`
		} `json:"language_stats"`
		Approximate bool `json:"approximate"`
	}
	decodeBody(t, rec, &overview)

	if overview.User.Login != "octocat" {
		t.Errorf("user = %+v", overview.User)
	}
	if len(overview.Repositories) != 2 || len(overview.Followers) != 3 {
		t.Errorf("repositories = %d, followers = %d", len(overview.Repositories), len(overview.Followers))
	}
	if overview.RateLimit.Core.Remaining != 4980 {
		t.Errorf("rate limit remaining = %d", overview.RateLimit.Core.Remaining)
	}
	if len(overview.Insights.Mutual) != 1 || overview.Insights.Mutual[0].Login != "bob" {
		t.Errorf("mutual = %+v", overview.Insights.Mutual)
	}
	if len(overview.Insights.NotFollowingBack) != 2 || len(overview.Insights.NotFollowedBack) != 1 {
		t.Errorf("insights = %+v", overview.Insights)
	}
	// One repository each: the tie keeps first-encounter order, and Go's
	// repository appears first in the page.
	if overview.Languages.MostUsed != "Go" {
		t.Errorf("most used = %q", overview.Languages.MostUsed)
	}
	if overview.Languages.LargestBySize != "Ruby" {
		t.Errorf("largest by size = %q", overview.Languages.LargestBySize)
	}
	if overview.Approximate {
		t.Error("small profile flagged approximate")
	}
}

func TestRuntimeCommitStats(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/users/octocat/commit-stats")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var stats struct {
		TotalCommits      int    `json:"total_commits"`
		MostProductiveDay string `json:"most_productive_day"`
		ReposSkipped      int    `json:"repos_skipped"`
	}
	decodeBody(t, rec, &stats)
	if stats.TotalCommits != 2 {
		t.Errorf("TotalCommits = %d", stats.TotalCommits)
	}
	if stats.MostProductiveDay != "Thursday" {
		t.Errorf("MostProductiveDay = %q", stats.MostProductiveDay)
	}
	if stats.ReposSkipped != 0 {
		t.Errorf("ReposSkipped = %d", stats.ReposSkipped)
	}
}

func TestRuntimeRateLimitEndpoint(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/rate_limit")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var limit struct {
		Core   struct{ Limit int } `json:"core"`
		Search struct{ Limit int } `json:"search"`
	}
	decodeBody(t, rec, &limit)
	if limit.Core.Limit != 5000 || limit.Search.Limit != 30 {
		t.Errorf("limit = %+v", limit)
	}
}

func TestRuntimeSearchRequiresQuery(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/search/repositories")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRuntimeAnonymousSession(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	rec := doRequest(t, runtime.Handler(), http.MethodGet, "/api/auth/session")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]any
	decodeBody(t, rec, &payload)
	if payload["session"] != nil {
		t.Errorf("session = %v", payload["session"])
	}
}

func TestRuntimeProbesAndMetrics(t *testing.T) {
	t.Parallel()

	runtime := newTestRuntime(t, newGitHubStub(t).URL)
	handler := runtime.Handler()

	if rec := doRequest(t, handler, http.MethodGet, "/livez"); rec.Code != http.StatusOK {
		t.Errorf("livez status = %d", rec.Code)
	}
	// Memory sessions are always healthy; without a credential the service is
	// degraded but still ready.
	if rec := doRequest(t, handler, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}

	doRequest(t, handler, http.MethodGet, "/api/users/octocat")
	rec := doRequest(t, handler, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gitgaze_github_requests_total") {
		t.Error("metrics output missing outbound request counter")
	}
}
