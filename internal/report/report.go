// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report categorizes the publications of each site and writes the
// run artifacts: one category table per site, the list of organization
// PMIDs and a YAML run summary.
// Implements: docs/ARCHITECTURE § Output artifacts.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// Fetcher retrieves one publication record.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (types.PublicationRecord, error)
}

// Categorizer categorizes one organization publication.
type Categorizer interface {
	Categorize(ctx context.Context, pub types.PublicationRecord) (types.CategoryRecord, error)
}

// SiteReport holds the category records of one site in membership order.
type SiteReport struct {
	Site    types.Site
	Records []types.CategoryRecord
	// Deleted lists PMIDs the service no longer returns. They keep a row
	// with every category flag false.
	Deleted []string
	// Failed lists PMIDs that could not be categorized.
	Failed []string
}

// Counts returns the number of records per visible category.
func (s SiteReport) Counts() map[types.Category]int {
	counts := make(map[types.Category]int, 4)
	for _, r := range s.Records {
		counts[r.Category()]++
	}
	return counts
}

type outcome struct {
	rec     types.CategoryRecord
	deleted bool
	err     error
}

// Builder categorizes site memberships. A publication listed under several
// sites is fetched and categorized once.
type Builder struct {
	fetch Fetcher
	cat   Categorizer
	cache map[string]outcome
}

// NewBuilder returns a Builder.
func NewBuilder(fetch Fetcher, cat Categorizer) *Builder {
	return &Builder{fetch: fetch, cat: cat, cache: make(map[string]outcome)}
}

// Build returns one SiteReport per site, in types.Sites order, with one
// record per distinct PMID. It continues past individual failures,
// reporting them on w, and returns them joined.
func (b *Builder) Build(ctx context.Context, sites types.SiteMembership, w io.Writer) ([]SiteReport, error) {
	var errs []error
	reports := make([]SiteReport, 0, len(types.Sites))

	for _, site := range types.Sites {
		sr := SiteReport{Site: site, Records: []types.CategoryRecord{}}
		seen := make(map[string]bool, len(sites[site]))
		for _, id := range sites[site] {
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := ctx.Err(); err != nil {
				return reports, err
			}
			o := b.categorize(ctx, id)
			switch {
			case o.err != nil:
				sr.Failed = append(sr.Failed, id)
				errs = append(errs, fmt.Errorf("%s %s: %w", site, id, o.err))
				fmt.Fprintf(w, "failed:  %s %s (%v)\n", site, id, o.err)
				continue
			case o.deleted:
				sr.Deleted = append(sr.Deleted, id)
			}
			sr.Records = append(sr.Records, o.rec)
		}
		c := sr.Counts()
		fmt.Fprintf(w, "%s: %d publications (%d member states, %d worldwide, %d partnership, %d deleted)\n",
			site, len(sr.Records), c[types.CategoryMemberState], c[types.CategoryWorldwide],
			c[types.CategoryPartnership], len(sr.Deleted))
		reports = append(reports, sr)
	}
	return reports, errors.Join(errs...)
}

func (b *Builder) categorize(ctx context.Context, id string) outcome {
	if o, ok := b.cache[id]; ok {
		return o
	}

	o := outcome{rec: types.CategoryRecord{PMID: id, IsOrg: true}}
	pub, err := b.fetch.Fetch(ctx, id)
	switch {
	case errors.Is(err, types.ErrRecordNotFound):
		o.deleted = true
	case err != nil:
		o.err = err
	default:
		o.rec, o.err = b.cat.Categorize(ctx, pub)
	}

	// Cancellation is not cached so a later call can retry.
	if ctx.Err() == nil {
		b.cache[id] = o
	}
	return o
}
