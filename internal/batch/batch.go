// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch detects organization publications in a list of PMIDs by
// fanning contiguous chunks out to a bounded worker pool.
// Implements: docs/ARCHITECTURE § Batch Orchestrator.
//
// Workers share no mutable state. Each returns an immutable ChunkResult on
// a channel and a single aggregator merges them in completion order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/affiliation-engine/internal/classify"
	"github.com/pdiddy/affiliation-engine/internal/logging"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// DefaultChunkSize is the target number of identifiers per chunk.
const DefaultChunkSize = 1000

// Fetcher retrieves the records of a chunk in one batched request.
type Fetcher interface {
	FetchBatch(ctx context.Context, ids []string) ([]types.PublicationRecord, error)
}

// Classifier classifies one affiliation string.
type Classifier interface {
	Classify(ctx context.Context, text string, opt classify.Options) (types.ClassificationResult, error)
}

// ProgressFunc is called by the aggregator after each chunk completes, with
// the number of completed chunks so far and the total.
type ProgressFunc func(done, total int)

// ChunkResult is the outcome of one chunk. It is built by one worker and
// never modified after it is sent to the aggregator.
type ChunkResult struct {
	Index        int
	Size         int
	OrgIDs       []string
	Sites        types.SiteMembership
	Fetched      int
	Missing      []string
	Affiliations int
	Malformed    int
	Err          error
}

// Result aggregates every chunk of a run.
type Result struct {
	// OrgIDs lists organization publications in chunk completion order.
	OrgIDs []string
	// Sites lists, per site, the publications matching that site.
	Sites types.SiteMembership

	Identifiers      int
	Chunks           int
	Publications     int
	Affiliations     int
	MalformedAuthors int

	// Missing lists identifiers the service did not return.
	Missing []string
	// FailedChunks lists the indexes of chunks that failed, ascending.
	FailedChunks []int

	Elapsed time.Duration
}

// HasFailures reports whether any chunk failed.
func (r Result) HasFailures() bool {
	return len(r.FailedChunks) > 0
}

// WriteSummary prints the run totals.
func (r Result) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "Number of PMIDs to process: %d\n", r.Identifiers)
	fmt.Fprintf(w, "Computing time: %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Number of EMBL publications found: %d\n", len(r.OrgIDs))
	fmt.Fprintf(w, "\nBatch summary: %d chunks, %d publications, %d missing, %d affiliations, %d malformed authors, %d failed chunks\n",
		r.Chunks, r.Publications, len(r.Missing), r.Affiliations, r.MalformedAuthors, len(r.FailedChunks))
}

// Partition splits ids into ceil(len/target) contiguous chunks whose sizes
// differ by at most one. The boundaries depend only on len(ids) and target.
func Partition(ids []string, target int) [][]string {
	if target <= 0 {
		target = DefaultChunkSize
	}
	if len(ids) == 0 {
		return nil
	}
	n := (len(ids) + target - 1) / target
	chunks := make([][]string, n)
	for i := range n {
		chunks[i] = ids[i*len(ids)/n : (i+1)*len(ids)/n]
	}
	return chunks
}

// Orchestrator runs detection over identifier batches.
type Orchestrator struct {
	fetch Fetcher
	cls   Classifier
	cfg   types.BatchConfig

	// Progress, when set, observes completed chunks.
	Progress ProgressFunc
}

// New returns an Orchestrator.
func New(fetch Fetcher, cls Classifier, cfg types.BatchConfig) *Orchestrator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Orchestrator{fetch: fetch, cls: cls, cfg: cfg}
}

// workers returns the pool size for n chunks.
func (o *Orchestrator) workers(n int) int {
	w := o.cfg.Workers
	if w <= 0 {
		w = runtime.NumCPU() + 2
	}
	return max(min(w, n), 1)
}

// Run classifies every affiliation of every publication in ids. A failing
// chunk does not stop the others: its error is joined into the returned
// error, its index is listed in Result.FailedChunks, and the aggregates of
// the completed chunks are still returned. Per-chunk status lines and the
// summary are written to w.
func (o *Orchestrator) Run(ctx context.Context, ids []string, w io.Writer) (Result, error) {
	start := time.Now()
	log := logging.Named("batch")

	chunks := Partition(ids, o.cfg.ChunkSize)
	res := Result{
		Sites:       types.NewSiteMembership(),
		Identifiers: len(ids),
		Chunks:      len(chunks),
	}
	workers := o.workers(len(chunks))
	log.Debug().Int("identifiers", len(ids)).Int("chunks", len(chunks)).Int("workers", workers).Msg("starting batch")

	results := make(chan ChunkResult, len(chunks))
	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, chunk := range chunks {
			g.Go(func() error {
				results <- o.runChunk(ctx, i, chunk)
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	var errs []error
	done := 0
	for cr := range results {
		done++
		if cr.Err != nil {
			res.FailedChunks = append(res.FailedChunks, cr.Index)
			errs = append(errs, fmt.Errorf("chunk %d: %w", cr.Index, cr.Err))
			fmt.Fprintf(w, "failed:  chunk %d/%d (%d ids): %v\n", cr.Index+1, len(chunks), cr.Size, cr.Err)
			log.Warn().Int("chunk", cr.Index).Err(cr.Err).Msg("chunk failed")
		} else {
			merge(&res, cr)
			fmt.Fprintf(w, "chunk %d/%d: %d publications, %d matched\n", cr.Index+1, len(chunks), cr.Fetched, len(cr.OrgIDs))
		}
		if o.Progress != nil {
			o.Progress(done, len(chunks))
		}
	}

	slices.Sort(res.FailedChunks)
	res.Elapsed = time.Since(start)
	res.WriteSummary(w)
	return res, errors.Join(errs...)
}

func merge(res *Result, cr ChunkResult) {
	res.OrgIDs = append(res.OrgIDs, cr.OrgIDs...)
	for _, site := range types.Sites {
		res.Sites[site] = append(res.Sites[site], cr.Sites[site]...)
	}
	res.Publications += cr.Fetched
	res.Affiliations += cr.Affiliations
	res.MalformedAuthors += cr.Malformed
	res.Missing = append(res.Missing, cr.Missing...)
}

// runChunk fetches and classifies one chunk. Publications are visited in
// chunk order; records for identifiers outside the chunk are ignored.
func (o *Orchestrator) runChunk(ctx context.Context, index int, ids []string) ChunkResult {
	cr := ChunkResult{Index: index, Size: len(ids), Sites: types.NewSiteMembership()}
	if err := ctx.Err(); err != nil {
		cr.Err = err
		return cr
	}

	records, err := o.fetch.FetchBatch(ctx, ids)
	if err != nil {
		cr.Err = err
		return cr
	}
	byID := make(map[string]types.PublicationRecord, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = r
		}
	}

	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			cr.Missing = append(cr.Missing, id)
			continue
		}
		cr.Fetched++
		cr.Malformed += rec.MalformedAuthors

		matched, sites, err := o.classifyPublication(ctx, rec)
		if err != nil {
			return ChunkResult{Index: index, Size: len(ids), Err: fmt.Errorf("publication %s: %w", id, err)}
		}
		cr.Affiliations += len(rec.Affiliations)
		if matched {
			cr.OrgIDs = append(cr.OrgIDs, id)
		}
		for _, site := range types.Sites {
			if sites[site] {
				cr.Sites[site] = append(cr.Sites[site], id)
			}
		}
	}

	logging.Named("batch").Debug().
		Int("chunk", index).
		Int("fetched", cr.Fetched).
		Int("missing", len(cr.Missing)).
		Int("matched", len(cr.OrgIDs)).
		Msg("chunk done")
	return cr
}

// classifyPublication ORs the match and the matched sites over every
// affiliation of the publication.
func (o *Orchestrator) classifyPublication(ctx context.Context, rec types.PublicationRecord) (bool, map[types.Site]bool, error) {
	matched := false
	sites := make(map[types.Site]bool)
	for _, aff := range rec.Affiliations {
		r, err := o.cls.Classify(ctx, aff, classify.Options{Site: true})
		if err != nil {
			return false, nil, err
		}
		if r.Matched {
			matched = true
			sites[r.Site] = true
		}
	}
	return matched, sites, nil
}
