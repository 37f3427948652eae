// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package categorize assigns an organization publication to member-state,
// worldwide or partnership reporting categories.
// Implements: docs/ARCHITECTURE § Categorizer.
package categorize

import (
	"context"
	"fmt"

	"github.com/pdiddy/affiliation-engine/internal/classify"
	"github.com/pdiddy/affiliation-engine/internal/geo"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// Classifier classifies one affiliation string.
type Classifier interface {
	Classify(ctx context.Context, text string, opt classify.Options) (types.ClassificationResult, error)
}

// PlaceResolver resolves the places mentioned in a text.
type PlaceResolver interface {
	Resolve(ctx context.Context, text string, mode geo.Mode, countAll bool) (types.PlaceMatch, error)
}

// MemberStates reports whether a country is a member or associate member state.
type MemberStates interface {
	IsMemberState(country string) bool
}

// Categorizer derives a CategoryRecord from a publication's affiliations.
type Categorizer struct {
	cls     Classifier
	places  PlaceResolver
	members MemberStates
}

// New returns a Categorizer.
func New(cls Classifier, places PlaceResolver, members MemberStates) *Categorizer {
	return &Categorizer{cls: cls, places: places, members: members}
}

// Categorize sets Partnership when an affiliation matches a partnership
// site, and MemberState or Worldwide for each affiliation outside the
// organization depending on whether it resolves to a member state. Flags
// accumulate over all affiliations; CategoryRecord.Category applies the
// precedence. The publication is assumed to be an organization publication.
func (c *Categorizer) Categorize(ctx context.Context, pub types.PublicationRecord) (types.CategoryRecord, error) {
	rec := types.CategoryRecord{PMID: pub.ID, IsOrg: true}

	for _, aff := range pub.Affiliations {
		res, err := c.cls.Classify(ctx, aff, classify.Options{Site: true, Score: true})
		if err != nil {
			return rec, fmt.Errorf("categorizing %s: %w", pub.ID, err)
		}
		if res.Matched {
			if res.Site.IsPartnership() {
				rec.Partnership = true
			}
			continue
		}

		places, err := c.places.Resolve(ctx, aff, geo.ModeCountries, false)
		if err != nil {
			return rec, fmt.Errorf("categorizing %s: %w", pub.ID, err)
		}
		if c.anyMember(places) {
			rec.MemberState = true
		} else {
			rec.Worldwide = true
		}
	}
	return rec, nil
}

func (c *Categorizer) anyMember(places types.PlaceMatch) bool {
	for country := range places {
		if c.members.IsMemberState(country) {
			return true
		}
	}
	return false
}
