package analytics

import (
	"fmt"
	"testing"

	"github.com/gitgaze/gitgaze/internal/githubapi"
)

func repoWithLanguage(language string, sizeKB int) githubapi.Repository {
	return githubapi.Repository{Language: language, Size: sizeKB}
}

func TestLanguagesRanking(t *testing.T) {
	t.Parallel()

	repos := []githubapi.Repository{
		repoWithLanguage("Go", 100),
		repoWithLanguage("Go", 200),
		repoWithLanguage("Go", 50),
		repoWithLanguage("TypeScript", 900),
		repoWithLanguage("TypeScript", 100),
		repoWithLanguage("Rust", 10),
		repoWithLanguage("", 9999),
	}

	stats := Languages(repos)

	if stats.TotalLanguages != 3 {
		t.Errorf("TotalLanguages = %d", stats.TotalLanguages)
	}
	if stats.MostUsed != "Go" {
		t.Errorf("MostUsed = %q", stats.MostUsed)
	}
	if len(stats.Ranking) != 3 {
		t.Fatalf("Ranking has %d entries", len(stats.Ranking))
	}
	if stats.Ranking[0].Language != "Go" || stats.Ranking[0].Repos != 3 || stats.Ranking[0].SizeKB != 350 {
		t.Errorf("rank 1 = %+v", stats.Ranking[0])
	}
	if stats.Ranking[1].Language != "TypeScript" || stats.Ranking[1].Repos != 2 {
		t.Errorf("rank 2 = %+v", stats.Ranking[1])
	}
}

func TestLanguagesLargestBySizeDisagreesWithMostUsed(t *testing.T) {
	t.Parallel()

	// Go wins on repository count, TypeScript on accumulated size.
	repos := []githubapi.Repository{
		repoWithLanguage("Go", 10),
		repoWithLanguage("Go", 10),
		repoWithLanguage("TypeScript", 5000),
	}

	stats := Languages(repos)
	if stats.MostUsed != "Go" {
		t.Errorf("MostUsed = %q", stats.MostUsed)
	}
	if stats.LargestBySize != "TypeScript" {
		t.Errorf("LargestBySize = %q", stats.LargestBySize)
	}
}

func TestLanguagesTiesKeepFirstEncounterOrder(t *testing.T) {
	t.Parallel()

	repos := []githubapi.Repository{
		repoWithLanguage("Ruby", 1),
		repoWithLanguage("Python", 1),
		repoWithLanguage("Ruby", 1),
		repoWithLanguage("Python", 1),
	}

	stats := Languages(repos)
	if stats.Ranking[0].Language != "Ruby" || stats.Ranking[1].Language != "Python" {
		t.Errorf("tied ranking order = %q, %q", stats.Ranking[0].Language, stats.Ranking[1].Language)
	}
}

func TestLanguagesRankingCapped(t *testing.T) {
	t.Parallel()

	var repos []githubapi.Repository
	for i := range 15 {
		repos = append(repos, repoWithLanguage(fmt.Sprintf("lang%02d", i), 1))
	}

	stats := Languages(repos)
	if len(stats.Ranking) != 10 {
		t.Errorf("Ranking has %d entries, want 10", len(stats.Ranking))
	}
	if stats.TotalLanguages != 15 {
		t.Errorf("TotalLanguages = %d, want every distinct language", stats.TotalLanguages)
	}
}

func TestLanguagesEmpty(t *testing.T) {
	t.Parallel()

	stats := Languages(nil)
	if stats.Ranking == nil {
		t.Error("Ranking must encode as an empty JSON array")
	}
	if stats.MostUsed != "" || stats.LargestBySize != "" || stats.TotalLanguages != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
