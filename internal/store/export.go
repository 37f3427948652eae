// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes run id to dir/run-<id>.yaml and returns the path.
func (s *Store) ExportYAML(ctx context.Context, id, dir string) (string, error) {
	run, err := s.LoadRun(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(&run)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(dir, "run-"+id+".yaml", data)
}

// ExportJSON writes run id to dir/run-<id>.json and returns the path.
func (s *Store) ExportJSON(ctx context.Context, id, dir string) (string, error) {
	run, err := s.LoadRun(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(dir, "run-"+id+".json", data)
}

func writeExport(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}
