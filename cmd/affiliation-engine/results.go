// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/affiliation-engine/internal/store"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query the result database (list, show, find, export)",
	Long: `Results reads the runs that detect saved to the result database
(store.path, or --store).`,
}

// --- list subcommand ---

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs found.")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-20s  %-10s  %-8s  %s\n", "Run", "Started", "Elapsed", "PMIDs", "Matched")
		fmt.Fprintln(out, strings.Repeat("-", 90))
		for _, r := range runs {
			fmt.Fprintf(out, "%-36s  %-20s  %-10s  %-8d  %d\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Elapsed.Round(time.Millisecond), r.Identifiers, r.Matched)
		}
		return nil
	},
}

// --- show subcommand ---

var resultsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the per-site categories of a run (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := runID(cmd, st, args)
		if err != nil {
			return err
		}
		run, err := st.LoadRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Number of PMIDs to process: %d\n", run.Identifiers)
		fmt.Fprintf(out, "Number of EMBL publications found: %d\n\n", len(run.OrgIDs))
		for _, site := range types.Sites {
			counts := map[types.Category]int{}
			for _, r := range run.Categories[site] {
				counts[r.Category()]++
			}
			fmt.Fprintf(out, "%-16s  %4d publications  %4d member states  %4d worldwide  %4d partnership\n",
				site, len(run.Sites[site]), counts[types.CategoryMemberState], counts[types.CategoryWorldwide],
				counts[types.CategoryPartnership])
		}
		return nil
	},
}

// --- find subcommand ---

var resultsFindCmd = &cobra.Command{
	Use:   "find <pmid>",
	Short: "Show the categories recorded for a PMID in every run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		found, err := st.FindPublication(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(found) == 0 {
			fmt.Fprintf(out, "PMID %s is not in any run.\n", args[0])
			return nil
		}
		runs := make([]string, 0, len(found))
		for id := range found {
			runs = append(runs, id)
		}
		sort.Strings(runs)
		for _, id := range runs {
			for _, sc := range found[id] {
				fmt.Fprintf(out, "%s  %-16s  %s\n", id, sc.Site, sc.Record.Category())
			}
		}
		return nil
	},
}

// --- export subcommand ---

var resultsExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a run to YAML or JSON (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		dir, _ := cmd.Flags().GetString("dir")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := runID(cmd, st, args)
		if err != nil {
			return err
		}

		var path string
		switch format {
		case "yaml", "":
			path, err = st.ExportYAML(cmd.Context(), id, dir)
		case "json":
			path, err = st.ExportJSON(cmd.Context(), id, dir)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	},
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	bindFlags(cmd, map[string]string{"store.path": "store"})
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("%w: no result database: set store.path or --store", types.ErrConfiguration)
	}
	return store.Open(cfg.Store)
}

func runID(cmd *cobra.Command, st *store.Store, args []string) (string, error) {
	if len(args) > 0 && args[0] != "latest" {
		return args[0], nil
	}
	return st.Latest(cmd.Context())
}

func init() {
	resultsCmd.PersistentFlags().String("store", "", "result database file")

	resultsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	resultsExportCmd.Flags().String("dir", "results", "export directory")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsFindCmd)
	resultsCmd.AddCommand(resultsExportCmd)

	rootCmd.AddCommand(resultsCmd)
}
