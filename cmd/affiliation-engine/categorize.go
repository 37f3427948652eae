// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/affiliation-engine/internal/batch"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize [pmids...]",
	Short: "Categorize organization publications by co-author country",
	Long: `Categorize fetches each publication and prints its category flags:
member states when an external affiliation resolves to a member or associate
member state, worldwide for other external affiliations, and partnership
when an affiliation matches a partnership site. The publications are taken
to be organization publications; use detect to find them.`,
	RunE: runCategorize,
}

func init() {
	categorizeCmd.Flags().StringP("input", "i", "", "file of PMIDs (\"-\" for stdin)")

	rootCmd.AddCommand(categorizeCmd)
}

func runCategorize(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	ids, err := batch.LoadIdentifiers(input, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no PMIDs found: provide --input or arguments")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s  %-14s  %-6s  %-6s  %s\n", "PMID", "Category", "Member", "World", "Partner")
	var failed int
	for _, id := range ids {
		pub, err := p.records.Fetch(ctx, id)
		if errors.Is(err, types.ErrRecordNotFound) {
			fmt.Fprintf(out, "%-10s  deleted\n", id)
			continue
		}
		if err == nil {
			var rec types.CategoryRecord
			rec, err = p.categorizer.Categorize(ctx, pub)
			if err == nil {
				fmt.Fprintf(out, "%-10s  %-14s  %-6t  %-6t  %t\n",
					id, rec.Category(), rec.MemberState, rec.Worldwide, rec.Partnership)
				continue
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(out, "failed:  %s (%v)\n", id, err)
		failed++
	}
	if failed > 0 {
		return fmt.Errorf("%d publication(s) failed categorization", failed)
	}
	return nil
}
