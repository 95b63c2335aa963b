package githubapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const defaultPerPage = 100

// PageOptions controls paginated collection.
type PageOptions struct {
	// PerPage is the page size requested from GitHub, capped at 100.
	PerPage int
	// MaxItems, when > 0, truncates the collected sequence as soon as the
	// accumulated count reaches it, even mid-page.
	MaxItems int
	// StartPage is the 1-based page to begin from.
	StartPage int
}

func (o PageOptions) normalized() PageOptions {
	if o.PerPage <= 0 || o.PerPage > defaultPerPage {
		o.PerPage = defaultPerPage
	}
	if o.StartPage <= 0 {
		o.StartPage = 1
	}
	return o
}

// CollectPages drives the fetch client across consecutive pages of a list
// endpoint until a short page signals exhaustion, MaxItems is reached, or a
// recoverable rate-limit failure occurs.
//
// A full page implies more may follow; a short or empty page terminates. The
// heuristic issues one extra empty request when the true count is an exact
// multiple of the page size.
//
// If the quota is exhausted after at least one item has been accumulated the
// partial sequence is returned without error and callers must treat it as
// potentially incomplete. A rate-limit failure on the very first page, and
// every other failure kind, propagates.
func CollectPages[T any](ctx context.Context, client *Client, endpoint string, opts PageOptions) ([]T, error) {
	if client == nil {
		return nil, fmt.Errorf("github client is required")
	}
	opts = opts.normalized()

	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}

	var collected []T
	for page := opts.StartPage; ; page++ {
		pageEndpoint := endpoint + separator +
			"per_page=" + strconv.Itoa(opts.PerPage) +
			"&page=" + strconv.Itoa(page)

		var items []T
		if err := client.Get(ctx, pageEndpoint, &items); err != nil {
			if IsRateLimited(err) && len(collected) > 0 {
				client.logger.Warn("pagination truncated by rate limit",
					zap.String("endpoint", endpointResource(endpoint)),
					zap.Int("items", len(collected)),
				)
				return collected, nil
			}
			return nil, err
		}

		if opts.MaxItems > 0 {
			remaining := opts.MaxItems - len(collected)
			if remaining < len(items) {
				items = items[:remaining]
			}
			collected = append(collected, items...)
			if len(collected) >= opts.MaxItems {
				return collected, nil
			}
		} else {
			collected = append(collected, items...)
		}

		if len(items) < opts.PerPage {
			return collected, nil
		}
	}
}
