// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package europepmc fetches publication records and their author
// affiliations from the Europe PMC REST service.
// Implements: docs/ARCHITECTURE § Bibliographic Record Service.
package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/affiliation-engine/internal/httputil"
	"github.com/pdiddy/affiliation-engine/internal/logging"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// DefaultBaseURL is the Europe PMC REST root used when the configuration
// leaves BaseURL empty.
var DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

// MaxPageSize is the largest page the search endpoints accept.
const MaxPageSize = 1000

// Client queries Europe PMC. It is safe for concurrent use; the optional
// rate limit is shared by every caller.
type Client struct {
	HTTP    *http.Client
	cfg     types.EuropePMCConfig
	limiter *rate.Limiter
}

// New returns a Client for cfg.
func New(cfg types.EuropePMCConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	c := &Client{HTTP: &http.Client{Timeout: timeout}, cfg: cfg}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// FetchBatch returns the records of ids, querying at most PageSize
// identifiers per request. Identifiers the service does not know are simply
// absent from the result.
func (c *Client) FetchBatch(ctx context.Context, ids []string) ([]types.PublicationRecord, error) {
	var records []types.PublicationRecord
	for start := 0; start < len(ids); start += c.cfg.PageSize {
		end := min(start+c.cfg.PageSize, len(ids))
		page, err := c.postSearch(ctx, ids[start:end])
		if err != nil {
			return records, err
		}
		records = append(records, page...)
	}
	return records, nil
}

// Fetch returns the record of one identifier. A record the service no
// longer returns yields types.ErrRecordNotFound.
func (c *Client) Fetch(ctx context.Context, id string) (types.PublicationRecord, error) {
	params := url.Values{
		"query":      {"ext_id:" + id},
		"resultType": {"core"},
		"format":     {"json"},
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return types.PublicationRecord{}, fmt.Errorf("creating request: %w", err)
	}

	records, err := c.do(req)
	if err != nil {
		return types.PublicationRecord{}, fmt.Errorf("fetching %s: %w", id, err)
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return types.PublicationRecord{}, fmt.Errorf("fetching %s: %w", id, types.ErrRecordNotFound)
}

func (c *Client) postSearch(ctx context.Context, ids []string) ([]types.PublicationRecord, error) {
	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = "EXT_ID:" + id
	}
	form := url.Values{
		"query":      {strings.Join(terms, " OR ")},
		"resultType": {"core"},
		"pageSize":   {strconv.Itoa(c.cfg.PageSize)},
		"format":     {"json"},
	}
	if c.cfg.Email != "" {
		form.Set("email", c.cfg.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/searchPOST", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	records, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %d records: %w", len(ids), err)
	}
	return records, nil
}

// do sends req with retries and decodes the search response.
func (c *Client) do(req *http.Request) ([]types.PublicationRecord, error) {
	ctx := req.Context()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.cfg.MaxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Europe PMC request: %v", types.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Europe PMC returned HTTP %d", types.ErrServiceUnavailable, resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: parsing Europe PMC response: %v", types.ErrServiceUnavailable, err)
	}

	records, skipped := decodeRecords(sr.ResultList.Result)
	log := logging.Named("europepmc")
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("skipped undecodable records")
	}
	for _, rec := range records {
		if rec.MalformedAuthors > 0 {
			log.Debug().
				Str("pmid", rec.ID).
				Int("malformed_authors", rec.MalformedAuthors).
				Msg("skipped undecodable authors")
		}
	}
	return records, nil
}
