// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/affiliation-engine/internal/geo"
)

var geolocCmd = &cobra.Command{
	Use:   "geoloc <text>",
	Short: "Resolve the places mentioned in a text",
	Long: `Geoloc extracts countries (default), cities, or other geopolitical
entities from a text and prints each canonical name with its mention count.
Without --count-all every place is counted once.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGeoloc,
}

func init() {
	geolocCmd.Flags().String("mode", "countries", "what to extract: countries, cities or other")
	geolocCmd.Flags().Bool("count-all", false, "count every mention instead of reporting presence")

	rootCmd.AddCommand(geolocCmd)
}

func runGeoloc(cmd *cobra.Command, args []string) error {
	modeName, _ := cmd.Flags().GetString("mode")
	mode, err := geo.ParseMode(modeName)
	if err != nil {
		return err
	}
	countAll, _ := cmd.Flags().GetBool("count-all")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	places, err := p.resolver.Resolve(cmd.Context(), strings.Join(args, " "), mode, countAll)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(places) == 0 {
		fmt.Fprintf(out, "No %s found.\n", mode)
		return nil
	}
	names := make([]string, 0, len(places))
	for name := range places {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		member := ""
		if mode == geo.ModeCountries && p.gazetteer.IsMemberState(name) {
			member = "  (member state)"
		}
		fmt.Fprintf(out, "%-30s  %d%s\n", name, places[name], member)
	}
	return nil
}
