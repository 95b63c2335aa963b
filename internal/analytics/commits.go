package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/gitgaze/gitgaze/internal/githubapi"
	"go.uber.org/zap"
)

const (
	defaultCommitRepoLimit   = 20
	defaultMaxCommitsPerRepo = 500
	weekWindow               = 7 * 24 * time.Hour
)

// CommitLister fetches recent commits of one repository.
type CommitLister interface {
	ListRepoCommits(ctx context.Context, fullName string, since time.Time, maxCommits int) ([]githubapi.Commit, error)
}

// CommitStats is the derived commit cadence of one user. Recomputed fresh on
// every fetch, never mutated in place.
type CommitStats struct {
	TotalCommits         int       `json:"total_commits"`
	CommitsThisWeek      int       `json:"commits_this_week"`
	CommitsThisMonth     int       `json:"commits_this_month"`
	CommitsThisYear      int       `json:"commits_this_year"`
	AverageCommitsPerDay float64   `json:"average_commits_per_day"`
	MostProductiveDay    string    `json:"most_productive_day"`
	MostProductiveMonth  string    `json:"most_productive_month"`
	LastCommitDate       time.Time `json:"last_commit_date"`
	// ReposSkipped counts repositories whose commit fetch failed and was
	// skipped.
	ReposSkipped int `json:"repos_skipped"`
}

// CalculatorConfig bounds the commit statistics computation.
type CalculatorConfig struct {
	// RepoLimit caps how many recently-updated repositories are inspected.
	RepoLimit int
	// MaxCommitsPerRepo caps the commits fetched per repository.
	MaxCommitsPerRepo int
	// Now anchors the trailing windows. Nil uses wall clock.
	Now func() time.Time
}

// Calculator derives commit statistics from per-repository commit history.
type Calculator struct {
	lister CommitLister
	logger *zap.Logger
	cfg    CalculatorConfig
}

// NewCalculator creates a commit statistics calculator.
func NewCalculator(lister CommitLister, logger *zap.Logger, cfg CalculatorConfig) *Calculator {
	if cfg.RepoLimit <= 0 {
		cfg.RepoLimit = defaultCommitRepoLimit
	}
	if cfg.MaxCommitsPerRepo <= 0 {
		cfg.MaxCommitsPerRepo = defaultMaxCommitsPerRepo
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{lister: lister, logger: logger, cfg: cfg}
}

// UserCommitStats computes commit cadence for username from its repository
// list. Forks are excluded, and only the most recently updated repositories
// are inspected to bound API usage. Commit history is fetched sequentially,
// one repository at a time, so outstanding requests against the shared quota
// stay bounded. A repository whose fetch fails is skipped, never failing the
// whole computation.
func (c *Calculator) UserCommitStats(ctx context.Context, username string, repos []githubapi.Repository) (CommitStats, error) {
	now := c.cfg.Now()
	since := now.AddDate(-1, 0, 0)

	selected := selectCommitRepos(repos, c.cfg.RepoLimit)

	var stats CommitStats
	weekStart := now.Add(-weekWindow)
	monthStart := now.AddDate(0, -1, 0)
	yearStart := now.AddDate(-1, 0, 0)

	weekdayCounts := make(map[time.Weekday]int)
	monthCounts := make(map[time.Month]int)

	for _, repo := range selected {
		if err := ctx.Err(); err != nil {
			return CommitStats{}, err
		}

		commits, err := c.lister.ListRepoCommits(ctx, repo.FullName, since, c.cfg.MaxCommitsPerRepo)
		if err != nil {
			stats.ReposSkipped++
			c.logger.Warn("commit fetch skipped",
				zap.String("user", username),
				zap.String("repo", repo.FullName),
				zap.Error(err),
			)
			continue
		}

		for _, commit := range commits {
			date := commit.Commit.Author.Date
			if date.IsZero() {
				continue
			}

			stats.TotalCommits++
			// Trailing windows are inclusive: a commit aged exactly seven
			// days still counts as this week.
			if !date.Before(weekStart) {
				stats.CommitsThisWeek++
			}
			if !date.Before(monthStart) {
				stats.CommitsThisMonth++
			}
			if !date.Before(yearStart) {
				stats.CommitsThisYear++
			}

			weekdayCounts[date.Weekday()]++
			monthCounts[date.Month()]++

			if date.After(stats.LastCommitDate) {
				stats.LastCommitDate = date
			}
		}
	}

	stats.MostProductiveDay = peakWeekday(weekdayCounts)
	stats.MostProductiveMonth = peakMonth(monthCounts)
	stats.AverageCommitsPerDay = averagePerDay(stats.TotalCommits, repos, now)
	return stats, nil
}

func selectCommitRepos(repos []githubapi.Repository, limit int) []githubapi.Repository {
	selected := make([]githubapi.Repository, 0, len(repos))
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		selected = append(selected, repo)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].UpdatedAt.After(selected[j].UpdatedAt)
	})
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// peakWeekday resolves ties toward the earliest weekday in calendar order,
// starting at Sunday.
func peakWeekday(counts map[time.Weekday]int) string {
	best := -1
	var bestDay time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if counts[day] > best {
			best = counts[day]
			bestDay = day
		}
	}
	if best <= 0 {
		return ""
	}
	return bestDay.String()
}

// peakMonth resolves ties toward the earliest calendar month.
func peakMonth(counts map[time.Month]int) string {
	best := -1
	var bestMonth time.Month
	for month := time.January; month <= time.December; month++ {
		if counts[month] > best {
			best = counts[month]
			bestMonth = month
		}
	}
	if best <= 0 {
		return ""
	}
	return bestMonth.String()
}

// averagePerDay divides by the age of the first supplied repository. That
// repository's creation date stands in for the account age; the profile's
// own created_at is not consulted here.
func averagePerDay(total int, repos []githubapi.Repository, now time.Time) float64 {
	if total == 0 || len(repos) == 0 {
		return 0
	}
	days := int(now.Sub(repos[0].CreatedAt).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return float64(total) / float64(days)
}
