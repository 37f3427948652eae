// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize prepares affiliation strings for scoring.
// Implements: docs/ARCHITECTURE § Text Normalizer.
//
// The substitutions run in a fixed order; later patterns assume earlier
// ones already turned separators into spaces.
package normalize

import (
	"regexp"
	"strings"
)

type substitution struct {
	pattern *regexp.Regexp
	repl    string
}

var substitutions = []substitution{
	{regexp.MustCompile(`[^\s]+@[^\s]+`), " "}, // e-mail addresses
	{regexp.MustCompile(`\\`), " "},
	{regexp.MustCompile(`/`), " "},
	{regexp.MustCompile(`-`), " "},
	{regexp.MustCompile(`\n`), " "},
	{regexp.MustCompile(`\t`), " "},
	{regexp.MustCompile(`^\s*`), " "},
	{regexp.MustCompile(`"`), "'"},
	{regexp.MustCompile(`,\s*$`), " "},
	{regexp.MustCompile(`\s.\s`), " "}, // isolated single characters
	{regexp.MustCompile(`^[0-9]+\s|^\s[0-9]+\s`), ""},
	{regexp.MustCompile(`^\s+`), ""},
	{regexp.MustCompile(`Electronic address\s*:`), ""},
	{regexp.MustCompile(`Current address\s*:`), ""},
}

var spaceRun = regexp.MustCompile(`\s+`)

// wordPattern matches a run of letters, digits or underscores.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Normalize applies the substitution pipeline until the text stops
// changing, then collapses whitespace. Every pass that changes an already
// collapsed text makes it strictly shorter, so the loop terminates and
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	out := pass(text)
	for {
		next := pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func pass(text string) string {
	for _, s := range substitutions {
		text = s.pattern.ReplaceAllString(text, s.repl)
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// Words splits text into its word tokens (letters, digits and underscores),
// in order of appearance.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}
