// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"context"

	"github.com/pdiddy/affiliation-engine/internal/geo"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// EntitiesPath is the NER endpoint, relative to GeoConfig.NERURL.
const EntitiesPath = "/entities"

type entitiesResponse struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
}

// NERClient calls a remote named-entity recognizer answering
// {"entities": [{"text": "France", "label": "GPE"}, ...]}.
type NERClient struct {
	p poster
}

// NewNERClient returns a client for cfg.NERURL.
func NewNERClient(cfg types.GeoConfig) *NERClient {
	return &NERClient{p: newPoster("NER service", cfg.NERURL, cfg.APIKey, cfg.HTTPConfig)}
}

// Recognize returns the entities of text in the order the service lists them.
func (c *NERClient) Recognize(ctx context.Context, text string) ([]geo.Entity, error) {
	var resp entitiesResponse
	if err := c.p.post(ctx, EntitiesPath, text, &resp); err != nil {
		return nil, err
	}
	out := make([]geo.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		out = append(out, geo.Entity{Text: e.Text, Label: e.Label})
	}
	return out, nil
}
