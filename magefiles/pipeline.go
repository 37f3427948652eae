package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run the CLI on a saved search.
type Pipeline mg.Namespace

// Detect runs detection on searches/<name>.txt and writes results/<name>/.
func (Pipeline) Detect(name string) error {
	mg.Deps(Build)
	input := filepath.Join("searches", name+".txt")
	out := filepath.Join("results", name)
	if err := sh.RunV(filepath.Join(binDir, binName), "detect", "--input", input, "--output-dir", out); err != nil {
		return fmt.Errorf("detect %s: %w", name, err)
	}
	return nil
}

// Classify prints the classification of one affiliation string.
func (Pipeline) Classify(text string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "classify", text)
}
