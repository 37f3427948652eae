// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/affiliation-engine/internal/batch"
	"github.com/pdiddy/affiliation-engine/internal/report"
	"github.com/pdiddy/affiliation-engine/internal/store"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

var detectCmd = &cobra.Command{
	Use:   "detect [pmids...]",
	Short: "Detect and categorize EMBL publications in a list of PMIDs",
	Long: `Detect reads PubMed identifiers from --input (any text; every run of
digits is an identifier) and from the arguments, classifies the affiliations
of each publication, and writes to the output directory:

  EMBL_PMIDs.txt                 organization publications, one per line
  <Site>_categories.csv          tab-separated categories per site
  summary.yaml                   run totals

Chunks that fail are reported and skipped; the outputs cover the chunks
that completed. When store.path is set the run is also saved to the
result database.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringP("input", "i", "", "file of PMIDs (\"-\" for stdin)")
	detectCmd.Flags().StringP("output-dir", "o", "", "output directory (default results)")
	detectCmd.Flags().Int("workers", 0, "worker pool size (default CPUs + 2)")
	detectCmd.Flags().Int("chunk-size", 0, "target PMIDs per chunk (default 1000)")
	detectCmd.Flags().String("store", "", "result database file (empty disables)")
	detectCmd.Flags().Bool("skip-categories", false, "only detect; do not categorize")

	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	started := time.Now()
	out := cmd.OutOrStdout()

	input, _ := cmd.Flags().GetString("input")
	ids, err := batch.LoadIdentifiers(input, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no PMIDs found: provide --input or arguments")
	}

	bindFlags(cmd, map[string]string{
		"report.output_dir": "output-dir",
		"batch.workers":     "workers",
		"batch.chunk_size":  "chunk-size",
		"store.path":        "store",
	})
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	orch := batch.New(p.records, p.classifier, cfg.Batch)
	res, runErr := orch.Run(ctx, ids, out)
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := cfg.Report.OutputDir
	path, err := report.WriteOrgIDs(dir, res.OrgIDs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", path)

	summary := report.Summary{
		StartedAt:        started.UTC(),
		Elapsed:          res.Elapsed.String(),
		Identifiers:      res.Identifiers,
		Publications:     res.Publications,
		Matched:          len(res.OrgIDs),
		Missing:          res.Missing,
		Affiliations:     res.Affiliations,
		MalformedAuthors: res.MalformedAuthors,
		FailedChunks:     res.FailedChunks,
	}

	var reports []report.SiteReport
	var reportErr error
	skip, _ := cmd.Flags().GetBool("skip-categories")
	if !skip {
		fmt.Fprintln(out)
		reports, reportErr = report.NewBuilder(p.records, p.categorizer).Build(ctx, res.Sites, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		for _, sr := range reports {
			path, err := report.WriteTable(dir, sr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", path)
		}
		summary.SummarizeSites(reports)
	}

	if cfg.Store.Path != "" {
		id, err := saveRun(cmd, cfg.Store, started, res, reports)
		if err != nil {
			return err
		}
		summary.RunID = id
		fmt.Fprintf(out, "saved run %s to %s\n", id, cfg.Store.Path)
	}

	path, err = report.WriteSummary(dir, summary)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", path)

	if res.HasFailures() {
		return fmt.Errorf("%d chunk(s) failed: %w", len(res.FailedChunks), runErr)
	}
	if reportErr != nil {
		return fmt.Errorf("categorization incomplete: %w", reportErr)
	}
	return nil
}

func saveRun(cmd *cobra.Command, cfg types.StoreConfig, started time.Time, res batch.Result, reports []report.SiteReport) (string, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run := store.Run{
		ID:           store.NewRunID(),
		StartedAt:    started,
		Elapsed:      res.Elapsed,
		Identifiers:  res.Identifiers,
		Publications: res.Publications,
		OrgIDs:       res.OrgIDs,
		Missing:      res.Missing,
		Sites:        res.Sites,
		Categories:   make(map[types.Site][]types.CategoryRecord, len(reports)),
	}
	for _, sr := range reports {
		if len(sr.Records) > 0 {
			run.Categories[sr.Site] = sr.Records
		}
	}
	return st.SaveRun(cmd.Context(), run)
}
