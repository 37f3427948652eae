// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether an affiliation string belongs to the
// organization and, if so, to which site.
// Implements: docs/ARCHITECTURE § Affiliation Classifier.
//
// The cascade scores the whole normalized text first, then falls back to
// semicolon-delimited segments and to fixed-width word windows that start at
// a keyword. Scoring is delegated to a MembershipScorer and a SiteScorer so
// that local model artifacts and remote services are interchangeable.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/affiliation-engine/internal/normalize"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// MembershipScorer returns the probability that a normalized text denotes
// the organization.
type MembershipScorer interface {
	ScoreMembership(ctx context.Context, text string) (float64, error)
}

// SiteScorer returns a probability per site for a normalized text.
type SiteScorer interface {
	ScoreSites(ctx context.Context, text string) (types.SiteScores, error)
}

// Options selects the optional fields of a ClassificationResult.
type Options struct {
	Site  bool
	Score bool
}

// WindowKeywords are the tokens that start a keyword window, in priority order.
var WindowKeywords = []string{"European", "EMBL", "EBI"}

// GateKeywords open the sub-segment stage for texts scoring at or below the
// sub-segment threshold.
var GateKeywords = []string{";", "EMBL", "EBI", "European", "European Molecular Biology", types.PhraseEBI}

// Classifier runs the classification cascade. It is safe for concurrent use
// when its scorers are.
type Classifier struct {
	membership MembershipScorer
	sites      SiteScorer
	cfg        types.ClassifierConfig
}

// New returns a Classifier. Zero thresholds and width in cfg fall back to
// the defaults of types.DefaultPipelineConfig.
func New(membership MembershipScorer, sites SiteScorer, cfg types.ClassifierConfig) *Classifier {
	def := types.DefaultPipelineConfig().Classifier
	if cfg.FullMatchThreshold <= 0 {
		cfg.FullMatchThreshold = def.FullMatchThreshold
	}
	if cfg.SubsegmentThreshold <= 0 {
		cfg.SubsegmentThreshold = def.SubsegmentThreshold
	}
	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = def.WindowWidth
	}
	return &Classifier{membership: membership, sites: sites, cfg: cfg}
}

// Classify runs the cascade over one affiliation string. Scorer failures are
// returned wrapped in types.ErrServiceUnavailable; an empty or
// whitespace-only text is a non-match and is never scored.
func (c *Classifier) Classify(ctx context.Context, text string, opt Options) (types.ClassificationResult, error) {
	res, err := c.cascade(ctx, text, normalize.Normalize(text), opt, true)
	if err != nil {
		return types.ClassificationResult{Text: text}, err
	}
	return res, nil
}

// cascade classifies norm, the normalized form of text. Segments produced by
// the semicolon split are classified with split=false, which bounds the
// nesting to one level.
func (c *Classifier) cascade(ctx context.Context, text, norm string, opt Options, split bool) (types.ClassificationResult, error) {
	res := types.ClassificationResult{Text: text}
	if norm == "" {
		return res, nil
	}

	p, err := c.scoreMembership(ctx, norm)
	if err != nil {
		return res, err
	}
	if opt.Score {
		res.MembershipScore = &p
	}

	if opt.Site {
		// Non-matching results still report the most likely site.
		if err := c.assignSite(ctx, &res, norm, opt); err != nil {
			return res, err
		}
	}

	if p > c.cfg.FullMatchThreshold {
		res.Matched = true
		res.Method = types.MethodFullMatch
		return res, nil
	}

	if !c.gateOpen(norm, p) {
		return res, nil
	}

	if split && strings.Contains(norm, ";") {
		seg, ok, err := c.matchSegments(ctx, text, norm, opt)
		if err != nil {
			return res, err
		}
		if ok {
			return seg, nil
		}
	}

	return c.matchWindows(ctx, res, norm, opt)
}

// gateOpen reports whether the sub-segment stage should run. Both stages
// only act on ";" or a window keyword, so the gate never changes a result;
// it spares scoring calls on texts with nothing to split.
func (c *Classifier) gateOpen(norm string, p float64) bool {
	if p > c.cfg.SubsegmentThreshold {
		return true
	}
	for _, kw := range GateKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

// matchSegments classifies each ";"-delimited segment with site and score
// requested and returns the first match.
func (c *Classifier) matchSegments(ctx context.Context, text, norm string, opt Options) (types.ClassificationResult, bool, error) {
	for _, seg := range strings.Split(norm, ";") {
		seg = strings.TrimSpace(seg)
		sub, err := c.cascade(ctx, seg, normalize.Normalize(seg), Options{Site: true, Score: true}, false)
		if err != nil {
			return types.ClassificationResult{}, false, err
		}
		if !sub.Matched {
			continue
		}

		res := types.ClassificationResult{
			Matched:          true,
			Method:           types.MethodSubstringSemicolon,
			Text:             text,
			MatchedSubstring: seg,
		}
		if opt.Score {
			res.MembershipScore = sub.MembershipScore
		}
		if opt.Site {
			res.Site = sub.Site
			if opt.Score {
				res.SiteScore = sub.SiteScore
			}
		}
		return res, true, nil
	}
	return types.ClassificationResult{}, false, nil
}

// matchWindows scans keyword windows of norm. res carries the fields
// computed so far and is returned unchanged when no window matches.
func (c *Classifier) matchWindows(ctx context.Context, res types.ClassificationResult, norm string, opt Options) (types.ClassificationResult, error) {
	words := normalize.Words(norm)

	for _, kw := range WindowKeywords {
		if !strings.Contains(norm, kw) {
			continue
		}
		for i, w := range words {
			if w != kw {
				continue
			}
			end := min(i+c.cfg.WindowWidth, len(words))
			window := strings.Join(words[i:end], " ")

			if strings.Contains(window, types.PhraseEBI) {
				res.Matched = true
				res.Method = types.MethodPhraseEBI
				res.MatchedSubstring = types.PhraseEBI
				if opt.Site {
					res.Site = types.SiteEBI
					res.SiteScore = nil
				}
				return res, nil
			}

			wp, err := c.scoreMembership(ctx, window)
			if err != nil {
				return res, err
			}
			if wp > c.cfg.FullMatchThreshold {
				res.Matched = true
				res.Method = types.MethodSubstringKeyword
				res.Keyword = kw
				res.MatchedSubstring = window
				if opt.Score {
					res.MembershipScore = &wp
				}
				return res, nil
			}

			if strings.Contains(window, types.PhraseEMBL) {
				res.Matched = true
				res.Method = types.MethodPhraseEMBL
				res.MatchedSubstring = types.PhraseEMBL
				if opt.Site {
					if err := c.assignSite(ctx, &res, norm, opt); err != nil {
						return res, err
					}
				}
				return res, nil
			}
		}
	}
	return res, nil
}

// assignSite scores norm against every site and records the best one.
func (c *Classifier) assignSite(ctx context.Context, res *types.ClassificationResult, norm string, opt Options) error {
	if c.sites == nil {
		return fmt.Errorf("%w: no site scorer configured", types.ErrConfiguration)
	}
	scores, err := c.sites.ScoreSites(ctx, norm)
	if err != nil {
		return wrapService("scoring sites", err)
	}
	site, p := scores.Best()
	if site == "" {
		return fmt.Errorf("%w: site scorer returned no known site", types.ErrServiceUnavailable)
	}
	res.Site = site
	if opt.Score {
		res.SiteScore = &p
	} else {
		res.SiteScore = nil
	}
	return nil
}

func (c *Classifier) scoreMembership(ctx context.Context, text string) (float64, error) {
	p, err := c.membership.ScoreMembership(ctx, text)
	if err != nil {
		return 0, wrapService("scoring membership", err)
	}
	return p, nil
}

func wrapService(op string, err error) error {
	if errors.Is(err, types.ErrServiceUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, types.ErrServiceUnavailable, err)
}
