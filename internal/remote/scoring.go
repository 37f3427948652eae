// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"context"
	"fmt"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// Scoring endpoints, relative to ScoringConfig.URL.
const (
	MembershipPath = "/membership"
	SitesPath      = "/sites"
)

type membershipResponse struct {
	Probability *float64 `json:"probability"`
}

type sitesResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// ScoringClient calls a remote scoring service. It answers
// {"probability": p} on MembershipPath and {"scores": {"<site>": p, ...}}
// on SitesPath.
type ScoringClient struct {
	p poster
}

// NewScoringClient returns a client for cfg.URL.
func NewScoringClient(cfg types.ScoringConfig) *ScoringClient {
	return &ScoringClient{p: newPoster("scoring service", cfg.URL, cfg.APIKey, cfg.HTTPConfig)}
}

// ScoreMembership returns the membership probability of text.
func (c *ScoringClient) ScoreMembership(ctx context.Context, text string) (float64, error) {
	var resp membershipResponse
	if err := c.p.post(ctx, MembershipPath, text, &resp); err != nil {
		return 0, err
	}
	if resp.Probability == nil {
		return 0, fmt.Errorf("%w: scoring service returned no probability", types.ErrServiceUnavailable)
	}
	p := *resp.Probability
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: scoring service returned probability %v", types.ErrServiceUnavailable, p)
	}
	return p, nil
}

// ScoreSites returns the probability of each site for text. Unknown site
// names are an error.
func (c *ScoringClient) ScoreSites(ctx context.Context, text string) (types.SiteScores, error) {
	var resp sitesResponse
	if err := c.p.post(ctx, SitesPath, text, &resp); err != nil {
		return nil, err
	}
	scores := make(types.SiteScores, len(resp.Scores))
	for name, p := range resp.Scores {
		site, ok := types.ParseSite(name)
		if !ok {
			return nil, fmt.Errorf("%w: scoring service returned unknown site %q", types.ErrServiceUnavailable, name)
		}
		scores[site] = p
	}
	return scores, nil
}
