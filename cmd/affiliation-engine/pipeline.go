// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/pdiddy/affiliation-engine/internal/categorize"
	"github.com/pdiddy/affiliation-engine/internal/classify"
	"github.com/pdiddy/affiliation-engine/internal/europepmc"
	"github.com/pdiddy/affiliation-engine/internal/gazetteer"
	"github.com/pdiddy/affiliation-engine/internal/geo"
	"github.com/pdiddy/affiliation-engine/internal/logging"
	"github.com/pdiddy/affiliation-engine/internal/model"
	"github.com/pdiddy/affiliation-engine/internal/remote"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// pipeline holds the collaborators built from one configuration. Every
// configuration error surfaces here, before any work is dispatched.
type pipeline struct {
	cfg         types.PipelineConfig
	records     *europepmc.Client
	classifier  *classify.Classifier
	gazetteer   *gazetteer.Gazetteer
	resolver    *geo.Resolver
	categorizer *categorize.Categorizer
}

// newPipeline builds the stages selected by cfg. Stages a command does not
// need are still built so that a bad model path or reference file fails
// fast.
func newPipeline(cfg types.PipelineConfig) (*pipeline, error) {
	membership, sites, err := newScorers(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	cls := classify.New(membership, sites, cfg.Classifier)

	gaz, err := gazetteer.Load(cfg.Geo.ReferenceFile)
	if err != nil {
		return nil, err
	}
	if cfg.Geo.CitiesFile != "" {
		names, err := gazetteer.LoadGeoNames(cfg.Geo.CitiesFile)
		if err != nil {
			return nil, err
		}
		gaz.AddCities(names)
	}
	stats := gaz.Stats()
	logging.Named("pipeline").Debug().
		Str("scoring", string(cfg.Scoring.Backend)).
		Str("ner", string(cfg.Geo.NER)).
		Int("countries", stats["countries"]).
		Int("cities", stats["cities"]).
		Msg("pipeline ready")

	resolver := geo.NewResolver(gaz, newRecognizer(cfg.Geo, gaz))
	return &pipeline{
		cfg:         cfg,
		records:     europepmc.New(cfg.EuropePMC),
		classifier:  cls,
		gazetteer:   gaz,
		resolver:    resolver,
		categorizer: categorize.New(cls, resolver, gaz),
	}, nil
}

func newScorers(cfg types.ScoringConfig) (classify.MembershipScorer, classify.SiteScorer, error) {
	if cfg.Backend == types.ScoringRemote {
		c := remote.NewScoringClient(cfg)
		return c, c, nil
	}
	membership, sites, err := model.LoadScorers(cfg)
	if err != nil {
		return nil, nil, err
	}
	return membership, sites, nil
}

// newRecognizer returns nil for the model backend, which makes the resolver
// use its default recognizer.
func newRecognizer(cfg types.GeoConfig, gaz *gazetteer.Gazetteer) geo.Recognizer {
	switch cfg.NER {
	case types.NERRemote:
		return remote.NewNERClient(cfg)
	case types.NERRules:
		return geo.NewGazetteerRecognizer(gaz)
	}
	return nil
}
