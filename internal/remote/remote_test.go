// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/affiliation-engine/internal/geo"
	"github.com/pdiddy/affiliation-engine/internal/httputil"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

func readText(t *testing.T, r *http.Request) string {
	t.Helper()
	var body textRequest
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body.Text
}

func scoringServer(t *testing.T, h http.HandlerFunc) *ScoringClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	cfg := types.ScoringConfig{Backend: types.ScoringRemote, URL: ts.URL + "/v1/", APIKey: "sk_test"}
	cfg.MaxRetries = 1
	cfg.UserAgent = "affiliation-engine/test"
	return NewScoringClient(cfg)
}

func TestScoreMembership(t *testing.T) {
	c := scoringServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/membership", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "affiliation-engine/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "EMBL Heidelberg", readText(t, r))
		w.Write([]byte(`{"probability": 0.97}`))
	})

	p, err := c.ScoreMembership(context.Background(), "EMBL Heidelberg")
	require.NoError(t, err)
	assert.InDelta(t, 0.97, p, 1e-12)
}

func TestScoreMembershipBadResponses(t *testing.T) {
	old := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = old }()

	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"missing probability", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) }},
		{"out of range", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"probability": 1.5}`)) }},
		{"not json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`ok`)) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scoringServer(t, tt.h).ScoreMembership(context.Background(), "x")
			assert.ErrorIs(t, err, types.ErrServiceUnavailable)
		})
	}
}

func TestScoreSites(t *testing.T) {
	c := scoringServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sites", r.URL.Path)
		w.Write([]byte(`{"scores": {"EMBL-EBI": 0.7, "EMBL Heidelberg": 0.2, "EMBL Rome": 0.1}}`))
	})

	scores, err := c.ScoreSites(context.Background(), "Hinxton")
	require.NoError(t, err)
	assert.Equal(t, types.SiteScores{types.SiteEBI: 0.7, types.SiteHeidelberg: 0.2, types.SiteRome: 0.1}, scores)
	site, p := scores.Best()
	assert.Equal(t, types.SiteEBI, site)
	assert.InDelta(t, 0.7, p, 1e-12)
}

func TestScoreSitesUnknownSite(t *testing.T) {
	c := scoringServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"scores": {"EMBL Moon": 1}}`))
	})
	_, err := c.ScoreSites(context.Background(), "x")
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "EMBL Moon")
}

func TestScoringRetries(t *testing.T) {
	old := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = old }()

	var calls atomic.Int32
	c := scoringServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		// The body is replayed on retry.
		assert.Equal(t, "EMBL", readText(t, r))
		w.Write([]byte(`{"probability": 0.5}`))
	})

	p, err := c.ScoreMembership(context.Background(), "EMBL")
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScoringCancelled(t *testing.T) {
	c := scoringServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"probability": 0.5}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ScoreMembership(ctx, "EMBL")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrServiceUnavailable)
}

func TestRecognize(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entities", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "Institut Pasteur, Paris, France", readText(t, r))
		w.Write([]byte(`{"entities": [
			{"text": "Institut Pasteur", "label": "ORG"},
			{"text": "Paris", "label": "GPE"},
			{"text": "France", "label": "GPE"}
		]}`))
	}))
	defer ts.Close()

	c := NewNERClient(types.GeoConfig{NER: types.NERRemote, NERURL: ts.URL})
	entities, err := c.Recognize(context.Background(), "Institut Pasteur, Paris, France")
	require.NoError(t, err)
	assert.Equal(t, []geo.Entity{
		{Text: "Institut Pasteur", Label: "ORG"},
		{Text: "Paris", Label: geo.LabelGPE},
		{Text: "France", Label: geo.LabelGPE},
	}, entities)
}

func TestRecognizeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewNERClient(types.GeoConfig{NERURL: ts.URL}).Recognize(context.Background(), "Paris")
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
}
