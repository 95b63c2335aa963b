// Package analytics derives statistics from already-fetched GitHub
// collections. Every derivation is a pure function of its inputs; truncated
// inputs yield approximate results and callers are responsible for labeling
// them as such.
package analytics

import "github.com/gitgaze/gitgaze/internal/githubapi"

// MutualityInsights partitions a follower/following pair by account ID.
type MutualityInsights struct {
	// NotFollowingBack are followers the inspected user does not follow.
	NotFollowingBack []githubapi.Follower `json:"not_following_back"`
	// NotFollowedBack are accounts the inspected user follows that do not
	// follow back.
	NotFollowedBack []githubapi.Follower `json:"not_followed_back"`
	// Mutual are followers the inspected user also follows.
	Mutual []githubapi.Follower `json:"mutual"`
}

// Mutuality computes the three follow partitions. Each input sequence is
// deduplicated by ID before partitioning; order of first appearance is
// preserved.
func Mutuality(followers, following []githubapi.Follower) MutualityInsights {
	followers = dedupeByID(followers)
	following = dedupeByID(following)

	followingIDs := idSet(following)
	followerIDs := idSet(followers)

	insights := MutualityInsights{
		NotFollowingBack: []githubapi.Follower{},
		NotFollowedBack:  []githubapi.Follower{},
		Mutual:           []githubapi.Follower{},
	}
	for _, follower := range followers {
		if _, follows := followingIDs[follower.ID]; follows {
			insights.Mutual = append(insights.Mutual, follower)
		} else {
			insights.NotFollowingBack = append(insights.NotFollowingBack, follower)
		}
	}
	for _, followed := range following {
		if _, followsBack := followerIDs[followed.ID]; !followsBack {
			insights.NotFollowedBack = append(insights.NotFollowedBack, followed)
		}
	}
	return insights
}

func dedupeByID(entries []githubapi.Follower) []githubapi.Follower {
	seen := make(map[int64]struct{}, len(entries))
	result := make([]githubapi.Follower, 0, len(entries))
	for _, entry := range entries {
		if _, duplicate := seen[entry.ID]; duplicate {
			continue
		}
		seen[entry.ID] = struct{}{}
		result = append(result, entry)
	}
	return result
}

func idSet(entries []githubapi.Follower) map[int64]struct{} {
	set := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		set[entry.ID] = struct{}{}
	}
	return set
}
