package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// User is an immutable profile snapshot fetched once per search.
type User struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         string    `json:"bio"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Blog        string    `json:"blog"`
	Email       string    `json:"email"`
	Type        string    `json:"type"`
	PublicRepos int       `json:"public_repos"`
	PublicGists int       `json:"public_gists"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository is one repository record in API-page order.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	WatchersCount   int       `json:"watchers_count"`
	ForksCount      int       `json:"forks_count"`
	Size            int       `json:"size"`
	Fork            bool      `json:"fork"`
	Private         bool      `json:"private"`
	Archived        bool      `json:"archived"`
	DefaultBranch   string    `json:"default_branch"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
}

// Follower is one entry in a follower or following sequence, unique by ID
// within its sequence.
type Follower struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Type      string `json:"type"`
}

// Gist is one public gist summary.
type Gist struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Public      bool      `json:"public"`
	HTMLURL     string    `json:"html_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Commit is one commit list entry. Author may be null when GitHub cannot
// link the git author to an account.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
		Message string `json:"message"`
	} `json:"commit"`
	Author *Follower `json:"author"`
}

// QuotaSnapshot is one rate-limit bucket.
type QuotaSnapshot struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
	Used      int   `json:"used"`
}

// RateLimit is the informational quota snapshot from /rate_limit. It never
// gates requests; pagination reacts to actual 403 responses instead.
type RateLimit struct {
	Core   QuotaSnapshot `json:"core"`
	Search QuotaSnapshot `json:"search"`
}

type rateLimitPayload struct {
	Resources RateLimit `json:"resources"`
}

// GetUser fetches one user profile.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	login, err := validLogin(username)
	if err != nil {
		return nil, err
	}

	var user User
	if err := c.Get(ctx, "/users/"+login, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRepositories fetches every repository of a user, most recently updated
// first.
func (c *Client) ListRepositories(ctx context.Context, username string) ([]Repository, error) {
	login, err := validLogin(username)
	if err != nil {
		return nil, err
	}
	return CollectPages[Repository](ctx, c, "/users/"+login+"/repos?sort=updated", PageOptions{})
}

// ListFollowers fetches followers of a user. maxItems <= 0 fetches all;
// startPage <= 0 starts from the first page.
func (c *Client) ListFollowers(ctx context.Context, username string, maxItems, startPage int) ([]Follower, error) {
	login, err := validLogin(username)
	if err != nil {
		return nil, err
	}
	return CollectPages[Follower](ctx, c, "/users/"+login+"/followers", PageOptions{
		MaxItems:  maxItems,
		StartPage: startPage,
	})
}

// ListFollowing fetches users a user follows, with the same bounds as
// ListFollowers.
func (c *Client) ListFollowing(ctx context.Context, username string, maxItems, startPage int) ([]Follower, error) {
	login, err := validLogin(username)
	if err != nil {
		return nil, err
	}
	return CollectPages[Follower](ctx, c, "/users/"+login+"/following", PageOptions{
		MaxItems:  maxItems,
		StartPage: startPage,
	})
}

// ListStarred fetches every repository a user has starred.
func (c *Client) ListStarred(ctx context.Context, username string) ([]Repository, error) {
	login, err := validLogin(username)
	if err != nil {
		return nil, err
	}
	return CollectPages[Repository](ctx, c, "/users/"+login+"/starred", PageOptions{})
}

// ListGists fetches every public gist of a user.
func (c *Client) ListGists(ctx context.Context, username string) ([]Gist, error) {
	login, err := validLogin(username)
	if err != nil {
		return nil, err
	}
	return CollectPages[Gist](ctx, c, "/users/"+login+"/gists", PageOptions{})
}

// ListRepoCommits fetches commits of one repository authored after since,
// newest first, capped at maxCommits when > 0. fullName is "owner/repo".
func (c *Client) ListRepoCommits(ctx context.Context, fullName string, since time.Time, maxCommits int) ([]Commit, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository full name %q must be owner/repo", fullName)
	}

	endpoint := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/commits"
	if !since.IsZero() {
		endpoint += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}
	return CollectPages[Commit](ctx, c, endpoint, PageOptions{MaxItems: maxCommits})
}

// GetRateLimit fetches the current quota snapshot.
func (c *Client) GetRateLimit(ctx context.Context) (*RateLimit, error) {
	var payload rateLimitPayload
	if err := c.Get(ctx, "/rate_limit", &payload); err != nil {
		return nil, err
	}
	limit := payload.Resources
	return &limit, nil
}

// Search runs one GitHub search and returns the raw result document.
// searchType is one of the search endpoint families (repositories, users,
// code, ...).
func (c *Client) Search(ctx context.Context, searchType, query string, perPage int) (json.RawMessage, error) {
	trimmedType := strings.TrimSpace(searchType)
	if trimmedType == "" {
		return nil, fmt.Errorf("search type is required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if perPage <= 0 {
		perPage = 20
	}

	endpoint := "/search/" + url.PathEscape(trimmedType) +
		"?q=" + url.QueryEscape(query) +
		"&per_page=" + strconv.Itoa(perPage)

	var raw json.RawMessage
	if err := c.Get(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func validLogin(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return "", fmt.Errorf("username is required")
	}
	return url.PathEscape(trimmed), nil
}
