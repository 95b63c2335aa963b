package analytics

import (
	"sort"

	"github.com/gitgaze/gitgaze/internal/githubapi"
)

const languageRankingLimit = 10

// LanguageEntry is one ranked language.
type LanguageEntry struct {
	Language string `json:"language"`
	// Repos is how many repositories name this as their primary language.
	Repos int `json:"repos"`
	// SizeKB is the summed size of those repositories in kilobytes.
	SizeKB int `json:"size_kb"`
}

// LanguageStats is the derived language distribution of a repository list.
type LanguageStats struct {
	// Ranking is the top languages by repository count, descending, at most
	// ten entries. Ties keep first-encounter order.
	Ranking []LanguageEntry `json:"ranking"`
	// TotalLanguages counts every distinct language, ranked or not.
	TotalLanguages int `json:"total_languages"`
	// MostUsed is the rank-1 language by repository count.
	MostUsed string `json:"most_used"`
	// LargestBySize is the language with the greatest summed size. Computed
	// independently of the repo-count ranking; the two may disagree.
	LargestBySize string `json:"largest_by_size"`
}

// Languages aggregates the primary language of each repository. Repositories
// without a language are ignored.
func Languages(repos []githubapi.Repository) LanguageStats {
	repoCounts := make(map[string]int)
	sizeSums := make(map[string]int)
	var order []string

	for _, repo := range repos {
		if repo.Language == "" {
			continue
		}
		if _, seen := repoCounts[repo.Language]; !seen {
			order = append(order, repo.Language)
		}
		repoCounts[repo.Language]++
		sizeSums[repo.Language] += repo.Size
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return repoCounts[ranked[i]] > repoCounts[ranked[j]]
	})
	if len(ranked) > languageRankingLimit {
		ranked = ranked[:languageRankingLimit]
	}

	stats := LanguageStats{
		Ranking:        make([]LanguageEntry, 0, len(ranked)),
		TotalLanguages: len(order),
	}
	for _, language := range ranked {
		stats.Ranking = append(stats.Ranking, LanguageEntry{
			Language: language,
			Repos:    repoCounts[language],
			SizeKB:   sizeSums[language],
		})
	}
	if len(stats.Ranking) > 0 {
		stats.MostUsed = stats.Ranking[0].Language
	}

	for _, language := range order {
		if stats.LargestBySize == "" || sizeSums[language] > sizeSums[stats.LargestBySize] {
			stats.LargestBySize = language
		}
	}
	return stats
}
