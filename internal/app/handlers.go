package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gitgaze/gitgaze/internal/analytics"
	"github.com/gitgaze/gitgaze/internal/githubapi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// overviewResponse is the fan-in result of one dashboard load.
type overviewResponse struct {
	User             *githubapi.User             `json:"user"`
	Repositories     []githubapi.Repository      `json:"repositories"`
	Followers        []githubapi.Follower        `json:"followers"`
	Following        []githubapi.Follower        `json:"following"`
	RateLimit        *githubapi.RateLimit        `json:"rate_limit"`
	FollowerInsights analytics.MutualityInsights `json:"follower_insights"`
	LanguageStats    analytics.LanguageStats     `json:"language_stats"`
	// Approximate marks follower-derived numbers computed from a capped
	// sample of a large profile.
	Approximate bool `json:"approximate"`
}

func (rt *Runtime) handleUser(w http.ResponseWriter, r *http.Request) {
	user, err := rt.client.GetUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Runtime) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	user, err := rt.client.GetUser(ctx, username)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	maxFollowers := rt.cfg.Dashboard.MaxFollowers
	followerCap := 0
	if user.Followers > maxFollowers {
		followerCap = maxFollowers
	}
	followingCap := 0
	if user.Following > maxFollowers {
		followingCap = maxFollowers
	}

	// The four top-level fetches have no ordering dependency; fan out and
	// await all before rendering.
	var (
		wg        sync.WaitGroup
		repos     []githubapi.Repository
		followers []githubapi.Follower
		following []githubapi.Follower
		rateLimit *githubapi.RateLimit
		errs      [4]error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		repos, errs[0] = rt.client.ListRepositories(ctx, username)
	}()
	go func() {
		defer wg.Done()
		followers, errs[1] = rt.client.ListFollowers(ctx, username, followerCap, 1)
	}()
	go func() {
		defer wg.Done()
		following, errs[2] = rt.client.ListFollowing(ctx, username, followingCap, 1)
	}()
	go func() {
		defer wg.Done()
		rateLimit, errs[3] = rt.client.GetRateLimit(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			rt.writeError(w, err)
			return
		}
	}

	// A capped fetch and a rate-limit-truncated fetch both leave the
	// follower-derived numbers approximate.
	approximate := followerCap > 0 || followingCap > 0 ||
		len(followers) < user.Followers || len(following) < user.Following

	writeJSON(w, http.StatusOK, overviewResponse{
		User:             user,
		Repositories:     repos,
		Followers:        followers,
		Following:        following,
		RateLimit:        rateLimit,
		FollowerInsights: analytics.Mutuality(followers, following),
		LanguageStats:    analytics.Languages(repos),
		Approximate:      approximate,
	})
}

func (rt *Runtime) handleRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := rt.client.ListRepositories(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

func (rt *Runtime) handleFollowers(w http.ResponseWriter, r *http.Request) {
	maxItems, startPage := listBounds(r)
	followers, err := rt.client.ListFollowers(r.Context(), chi.URLParam(r, "username"), maxItems, startPage)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followers)
}

func (rt *Runtime) handleFollowing(w http.ResponseWriter, r *http.Request) {
	maxItems, startPage := listBounds(r)
	following, err := rt.client.ListFollowing(r.Context(), chi.URLParam(r, "username"), maxItems, startPage)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, following)
}

func (rt *Runtime) handleStarred(w http.ResponseWriter, r *http.Request) {
	starred, err := rt.client.ListStarred(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, starred)
}

func (rt *Runtime) handleGists(w http.ResponseWriter, r *http.Request) {
	gists, err := rt.client.ListGists(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gists)
}

func (rt *Runtime) handleLanguages(w http.ResponseWriter, r *http.Request) {
	repos, err := rt.client.ListRepositories(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Languages(repos))
}

func (rt *Runtime) handleFollowerInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	user, err := rt.client.GetUser(ctx, username)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	maxFollowers := rt.cfg.Dashboard.MaxFollowers
	followerCap := 0
	if user.Followers > maxFollowers {
		followerCap = maxFollowers
	}
	followingCap := 0
	if user.Following > maxFollowers {
		followingCap = maxFollowers
	}

	followers, err := rt.client.ListFollowers(ctx, username, followerCap, 1)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	following, err := rt.client.ListFollowing(ctx, username, followingCap, 1)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	approximate := followerCap > 0 || followingCap > 0 ||
		len(followers) < user.Followers || len(following) < user.Following
	writeJSON(w, http.StatusOK, map[string]any{
		"insights":    analytics.Mutuality(followers, following),
		"approximate": approximate,
	})
}

func (rt *Runtime) handleCommitStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	repos, err := rt.client.ListRepositories(ctx, username)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	stats, err := rt.commits.UserCommitStats(ctx, username, repos)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Runtime) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	limit, err := rt.client.GetRateLimit(r.Context())
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, limit)
}

func (rt *Runtime) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter q is required"})
		return
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := rt.client.Search(r.Context(), chi.URLParam(r, "type"), query, perPage)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError maps fetch-layer failures onto dashboard responses. NotFound is
// terminal; rate limiting carries guidance to authenticate; anything else
// surfaces as an upstream failure without retry.
func (rt *Runtime) writeError(w http.ResponseWriter, err error) {
	switch {
	case githubapi.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case githubapi.IsRateLimited(err):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "GitHub API rate limit exceeded. Sign in with GitHub or configure a token for higher limits.",
		})
	default:
		rt.logger.Error("github fetch failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "GitHub API request failed"})
	}
}

func listBounds(r *http.Request) (maxItems, startPage int) {
	maxItems, _ = strconv.Atoi(r.URL.Query().Get("max_items"))
	startPage, _ = strconv.Atoi(r.URL.Query().Get("start_page"))
	return maxItems, startPage
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
