// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the affiliation-engine pipeline.
// Implements: the data model of docs/ARCHITECTURE § Data Structures
// (PublicationRecord, ClassificationResult, SiteMembership, PlaceMatch,
// CategoryRecord) and the stage configurations.
package types

import "strings"

// Site is one physical location of the organization. The order of Sites
// matches the class order of the site scoring model.
type Site string

const (
	SiteAustralia  Site = "EMBL Australia"
	SiteBarcelona  Site = "EMBL Barcelona"
	SiteEBI        Site = "EMBL-EBI"
	SiteGrenoble   Site = "EMBL Grenoble"
	SiteHamburg    Site = "EMBL Hamburg"
	SiteHeidelberg Site = "EMBL Heidelberg"
	SiteNordic     Site = "EMBL Nordic"
	SiteRome       Site = "EMBL Rome"
)

// Sites lists every site in model class order.
var Sites = []Site{
	SiteAustralia,
	SiteBarcelona,
	SiteEBI,
	SiteGrenoble,
	SiteHamburg,
	SiteHeidelberg,
	SiteNordic,
	SiteRome,
}

// ParseSite returns the Site whose name equals s.
func ParseSite(s string) (Site, bool) {
	for _, site := range Sites {
		if string(site) == s {
			return site, true
		}
	}
	return "", false
}

// IsPartnership reports whether the site is a partnership rather than a
// site operated by the organization itself.
func (s Site) IsPartnership() bool {
	return s == SiteNordic || s == SiteAustralia
}

// FileStem returns the site name with spaces and hyphens replaced by
// underscores, e.g. "EMBL_EBI".
func (s Site) FileStem() string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(string(s))
}

// PublicationRecord is a publication as returned by the bibliographic
// service: its identifier and every affiliation string of every author in
// source order.
type PublicationRecord struct {
	// ID is the PubMed identifier.
	ID string `json:"pmid" yaml:"pmid"`

	// Affiliations lists affiliation strings author by author.
	Affiliations []string `json:"affiliations" yaml:"affiliations"`

	// MalformedAuthors counts author entries, affiliation details and author
	// lists that could not be decoded and were skipped.
	MalformedAuthors int `json:"malformed_authors,omitempty" yaml:"malformed_authors,omitempty"`
}

// SiteMembership maps each site to the publication identifiers detected for it.
type SiteMembership map[Site][]string

// NewSiteMembership returns a SiteMembership with an empty list per site.
func NewSiteMembership() SiteMembership {
	m := make(SiteMembership, len(Sites))
	for _, s := range Sites {
		m[s] = []string{}
	}
	return m
}

// PlaceMatch maps a canonical place name to its mention count (always >= 1).
type PlaceMatch map[string]int

// SiteScores is a probability per site as returned by a site scoring service.
type SiteScores map[Site]float64

// Best returns the most probable site and its probability. Ties go to the
// site listed first in Sites. An empty SiteScores yields ("", 0).
func (s SiteScores) Best() (Site, float64) {
	var best Site
	bestP := -1.0
	for _, site := range Sites {
		p, ok := s[site]
		if !ok {
			continue
		}
		if p > bestP {
			best, bestP = site, p
		}
	}
	if best == "" {
		return "", 0
	}
	return best, bestP
}
