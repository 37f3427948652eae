// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package remote implements the scoring services and the named-entity
// recognizer over HTTP, for deployments that serve the models elsewhere.
// Implements: docs/ARCHITECTURE § Scoring Services (remote backend).
//
// Every endpoint takes a JSON body {"text": "..."} by POST and answers with
// a JSON object; see ScoringClient and NERClient for the response shapes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/affiliation-engine/internal/httputil"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

type textRequest struct {
	Text string `json:"text"`
}

// poster sends JSON requests to one service root.
type poster struct {
	http    *http.Client
	baseURL string
	apiKey  string
	cfg     types.HTTPConfig
	name    string
}

func newPoster(name, baseURL, apiKey string, cfg types.HTTPConfig) poster {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return poster{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cfg:     cfg,
		name:    name,
	}
}

// post sends {"text": text} to path and decodes the response into out.
// Transport failures, non-200 answers and undecodable bodies all wrap
// types.ErrServiceUnavailable.
func (p poster) post(ctx context.Context, path, text string, out any) error {
	body, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", p.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: building %s request: %v", types.ErrConfiguration, p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, p.http, req, p.cfg.MaxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %s request: %v", types.ErrServiceUnavailable, p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned HTTP %d", types.ErrServiceUnavailable, p.name, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: parsing %s response: %v", types.ErrServiceUnavailable, p.name, err)
	}
	return nil
}
