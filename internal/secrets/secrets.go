// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key name and the trimmed
// contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/affiliation-engine/internal/logging"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// Key files understood by Apply.
const (
	EuropePMCEmail = "europepmc-email"
	ScoringAPIKey  = "scoring-api-key"
	NERAPIKey      = "ner-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.Named("secrets").Warn().Str("secret", name).Err(err).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills credentials that the configuration leaves empty. Values set
// in the config file, environment or flags take precedence.
func Apply(cfg *types.PipelineConfig, secrets map[string]string) {
	if cfg.EuropePMC.Email == "" {
		cfg.EuropePMC.Email = secrets[EuropePMCEmail]
	}
	if cfg.Scoring.APIKey == "" {
		cfg.Scoring.APIKey = secrets[ScoringAPIKey]
	}
	if cfg.Geo.APIKey == "" {
		cfg.Geo.APIKey = secrets[NERAPIKey]
	}
}
