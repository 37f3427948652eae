// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/affiliation-engine/internal/classify"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <affiliation>",
	Short: "Classify one affiliation string",
	Long: `Classify runs the classification cascade on one affiliation and prints
whether it denotes the organization, the stage that decided, and with --site
and --score the most likely site and the membership probability.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().Bool("site", true, "report the most likely site")
	classifyCmd.Flags().Bool("score", true, "report the membership probability")
	classifyCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(classifyCmd)
}

// classifyOutput adds the method label to the JSON form of a result.
type classifyOutput struct {
	types.ClassificationResult
	Method string `json:"method,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	site, _ := cmd.Flags().GetBool("site")
	score, _ := cmd.Flags().GetBool("score")
	res, err := p.classifier.Classify(cmd.Context(), strings.Join(args, " "), classify.Options{Site: site, Score: score})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(classifyOutput{ClassificationResult: res, Method: res.MethodLabel()})
	}

	fmt.Fprintf(out, "Text:      %s\n", res.Text)
	fmt.Fprintf(out, "Matched:   %t\n", res.Matched)
	if res.Matched {
		fmt.Fprintf(out, "Method:    %s\n", res.MethodLabel())
		fmt.Fprintf(out, "Substring: %s\n", res.MatchedSubstring)
	}
	if res.MembershipScore != nil {
		fmt.Fprintf(out, "Score:     %.4f\n", *res.MembershipScore)
	}
	if res.Site != "" {
		fmt.Fprintf(out, "Site:      %s", res.Site)
		if res.SiteScore != nil {
			fmt.Fprintf(out, " (%.4f)", *res.SiteScore)
		}
		fmt.Fprintln(out)
	}
	return nil
}
