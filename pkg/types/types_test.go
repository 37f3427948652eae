// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryPrecedence(t *testing.T) {
	tests := []struct {
		rec  CategoryRecord
		want Category
	}{
		{CategoryRecord{}, CategoryUnresolved},
		{CategoryRecord{IsOrg: true}, CategoryUnresolved},
		{CategoryRecord{Partnership: true}, CategoryPartnership},
		{CategoryRecord{Worldwide: true, Partnership: true}, CategoryWorldwide},
		{CategoryRecord{MemberState: true, Worldwide: true}, CategoryMemberState},
		{CategoryRecord{MemberState: true, Worldwide: true, Partnership: true}, CategoryMemberState},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rec.Category(), "%+v", tt.rec)
	}
}

func TestSites(t *testing.T) {
	assert.Len(t, Sites, 8)
	assert.Equal(t, "EMBL_EBI", SiteEBI.FileStem())
	assert.Equal(t, "EMBL_Heidelberg", SiteHeidelberg.FileStem())

	for _, s := range Sites {
		got, ok := ParseSite(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseSite("EMBL Paris")
	assert.False(t, ok)

	var partners []Site
	for _, s := range Sites {
		if s.IsPartnership() {
			partners = append(partners, s)
		}
	}
	assert.Equal(t, []Site{SiteAustralia, SiteNordic}, partners)
}

func TestNewSiteMembership(t *testing.T) {
	m := NewSiteMembership()
	assert.Len(t, m, len(Sites))
	for _, s := range Sites {
		assert.NotNil(t, m[s])
		assert.Empty(t, m[s])
	}
}

func TestSiteScoresBest(t *testing.T) {
	site, p := SiteScores{SiteRome: 0.2, SiteEBI: 0.7, SiteHamburg: 0.1}.Best()
	assert.Equal(t, SiteEBI, site)
	assert.Equal(t, 0.7, p)

	// Ties go to the earlier site in model class order.
	site, _ = SiteScores{SiteRome: 0.5, SiteBarcelona: 0.5}.Best()
	assert.Equal(t, SiteBarcelona, site)

	site, p = SiteScores{}.Best()
	assert.Equal(t, Site(""), site)
	assert.Zero(t, p)
}

func TestMethodLabel(t *testing.T) {
	tests := []struct {
		res  ClassificationResult
		want string
	}{
		{ClassificationResult{}, ""},
		{ClassificationResult{Method: MethodFullMatch}, "Complete sentence"},
		{ClassificationResult{Method: MethodSubstringSemicolon}, "Substring ';'"},
		{ClassificationResult{Method: MethodSubstringKeyword, Keyword: "EMBL"}, "Substring 'EMBL'"},
		{ClassificationResult{Method: MethodPhraseEBI}, "Substring 'European Bioinformatics Institute'"},
		{ClassificationResult{Method: MethodPhraseEMBL}, "Substring 'European Molecular Biology Laboratory'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.res.MethodLabel())
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultPipelineConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, NERModel, cfg.Geo.NER)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
		want   string
	}{
		{"remote scoring without url", func(c *PipelineConfig) { c.Scoring.Backend = ScoringRemote }, "Scoring.URL"},
		{"remote ner without url", func(c *PipelineConfig) { c.Geo.NER = NERRemote }, "Geo.NERURL"},
		{"unknown ner", func(c *PipelineConfig) { c.Geo.NER = "spacy" }, "Geo.NER"},
		{"thresholds out of order", func(c *PipelineConfig) { c.Classifier.SubsegmentThreshold = 0.95 }, "exceeds FullMatchThreshold"},
		{"threshold out of range", func(c *PipelineConfig) { c.Classifier.FullMatchThreshold = 1 }, "FullMatchThreshold"},
		{"unknown backend", func(c *PipelineConfig) { c.Scoring.Backend = "gpu" }, "Backend"},
		{"local without model", func(c *PipelineConfig) { c.Scoring.MembershipModel = "" }, "MembershipModel"},
		{"chunk too large", func(c *PipelineConfig) { c.Batch.ChunkSize = 5000 }, "ChunkSize"},
		{"bad email", func(c *PipelineConfig) { c.EuropePMC.Email = "nobody" }, "Email"},
		{"bad log level", func(c *PipelineConfig) { c.Log.Level = "loud" }, "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := DefaultPipelineConfig()
	cfg.Scoring.Backend = ScoringRemote
	cfg.Scoring.URL = "https://scoring.example.org"
	cfg.Scoring.MembershipModel = ""
	assert.NoError(t, cfg.Validate())
}
