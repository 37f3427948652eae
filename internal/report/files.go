// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// File names written to the output directory.
const (
	OrgIDsFile  = "EMBL_PMIDs.txt"
	SummaryFile = "summary.yaml"
)

// TableHeader is the header row of every category table.
var TableHeader = []string{"PMID", "EMBL", "Member states", "Worldwide", "Partnership"}

// TableName returns the category table file name of a site, e.g.
// "EMBL_EBI_categories.csv".
func TableName(site types.Site) string {
	return site.FileStem() + "_categories.csv"
}

// pyBool renders booleans the way the published tables always have.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// WriteTable writes a tab-delimited category table for one site.
func WriteTable(dir string, sr SiteReport) (string, error) {
	path := filepath.Join(dir, TableName(sr.Site))
	return path, writeAtomic(path, func(f *os.File) error {
		cw := csv.NewWriter(f)
		cw.Comma = '\t'
		if err := cw.Write(TableHeader); err != nil {
			return err
		}
		for _, r := range sr.Records {
			row := []string{r.PMID, pyBool(r.IsOrg), pyBool(r.MemberState), pyBool(r.Worldwide), pyBool(r.Partnership)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteOrgIDs writes the organization PMIDs, one per line.
func WriteOrgIDs(dir string, ids []string) (string, error) {
	path := filepath.Join(dir, OrgIDsFile)
	return path, writeAtomic(path, func(f *os.File) error {
		if len(ids) == 0 {
			return nil
		}
		_, err := f.WriteString(strings.Join(ids, "\n") + "\n")
		return err
	})
}

// SiteSummary summarizes one site in the run summary.
type SiteSummary struct {
	Publications int `yaml:"publications"`
	MemberStates int `yaml:"member_states"`
	Worldwide    int `yaml:"worldwide"`
	Partnership  int `yaml:"partnership"`
	Unresolved   int `yaml:"unresolved"`
	Deleted      int `yaml:"deleted"`
	Failed       int `yaml:"failed,omitempty"`
}

// Summary is the YAML run summary.
type Summary struct {
	RunID            string                 `yaml:"run_id,omitempty"`
	StartedAt        time.Time              `yaml:"started_at"`
	Elapsed          string                 `yaml:"elapsed"`
	Identifiers      int                    `yaml:"identifiers"`
	Publications     int                    `yaml:"publications"`
	Matched          int                    `yaml:"matched"`
	Missing          []string               `yaml:"missing,omitempty"`
	Affiliations     int                    `yaml:"affiliations"`
	MalformedAuthors int                    `yaml:"malformed_authors"`
	FailedChunks     []int                  `yaml:"failed_chunks,omitempty"`
	Sites            map[string]SiteSummary `yaml:"sites"`
}

// SummarizeSites fills s.Sites from the site reports.
func (s *Summary) SummarizeSites(reports []SiteReport) {
	s.Sites = make(map[string]SiteSummary, len(reports))
	for _, sr := range reports {
		c := sr.Counts()
		s.Sites[string(sr.Site)] = SiteSummary{
			Publications: len(sr.Records),
			MemberStates: c[types.CategoryMemberState],
			Worldwide:    c[types.CategoryWorldwide],
			Partnership:  c[types.CategoryPartnership],
			Unresolved:   c[types.CategoryUnresolved],
			Deleted:      len(sr.Deleted),
			Failed:       len(sr.Failed),
		}
	}
}

// WriteSummary writes s as YAML.
func WriteSummary(dir string, s Summary) (string, error) {
	path := filepath.Join(dir, SummaryFile)
	data, err := yaml.Marshal(&s)
	if err != nil {
		return "", fmt.Errorf("marshaling summary: %w", err)
	}
	return path, writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(dir string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		return s, fmt.Errorf("reading summary: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing summary: %w", err)
	}
	return s, nil
}

// writeAtomic writes through a temporary file renamed into place.
func writeAtomic(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
