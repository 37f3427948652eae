// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// Membership scores the probability that a text denotes the organization.
type Membership struct {
	model    *Model
	positive int
}

// NewMembership wraps a binary model. The positive class is the one
// labelled "1" or "true"; otherwise the second class.
func NewMembership(m *Model) (*Membership, error) {
	if len(m.classes) != 2 {
		return nil, fmt.Errorf("%w: membership model must be binary, has %d classes", types.ErrConfiguration, len(m.classes))
	}
	positive := 1
	for i, c := range m.classes {
		if c == "1" || c == "true" || c == "True" {
			positive = i
		}
	}
	return &Membership{model: m, positive: positive}, nil
}

// ScoreMembership returns the positive-class probability of text.
func (s *Membership) ScoreMembership(_ context.Context, text string) (float64, error) {
	return s.model.PredictProba(text)[s.positive], nil
}

// SiteModel scores a text against every site.
type SiteModel struct {
	model *Model
	sites []types.Site
}

// NewSiteModel wraps a multi-class model whose classes are either site names
// or integer indexes into types.Sites.
func NewSiteModel(m *Model) (*SiteModel, error) {
	sites := make([]types.Site, len(m.classes))
	for i, c := range m.classes {
		if site, ok := types.ParseSite(c); ok {
			sites[i] = site
			continue
		}
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 || n >= len(types.Sites) {
			return nil, fmt.Errorf("%w: site model class %q is not a known site", types.ErrConfiguration, c)
		}
		sites[i] = types.Sites[n]
	}
	return &SiteModel{model: m, sites: sites}, nil
}

// ScoreSites returns the probability of each site for text.
func (s *SiteModel) ScoreSites(_ context.Context, text string) (types.SiteScores, error) {
	probs := s.model.PredictProba(text)
	scores := make(types.SiteScores, len(s.sites))
	for i, site := range s.sites {
		scores[site] += probs[i]
	}
	return scores, nil
}

// LoadScorers loads the membership and site artifacts named in cfg.
func LoadScorers(cfg types.ScoringConfig) (*Membership, *SiteModel, error) {
	mm, err := Load(cfg.MembershipModel)
	if err != nil {
		return nil, nil, err
	}
	membership, err := NewMembership(mm)
	if err != nil {
		return nil, nil, err
	}
	sm, err := Load(cfg.SiteModel)
	if err != nil {
		return nil, nil, err
	}
	sites, err := NewSiteModel(sm)
	if err != nil {
		return nil, nil, err
	}
	return membership, sites, nil
}
