// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"encoding/json"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// searchResponse keeps each result raw so one undecodable record does not
// fail the page.
type searchResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []json.RawMessage `json:"result"`
	} `json:"resultList"`
}

type result struct {
	ID         identifier      `json:"id"`
	PMID       identifier      `json:"pmid"`
	AuthorList json.RawMessage `json:"authorList"`
}

// identifier accepts an identifier sent as either a JSON string or number.
type identifier string

func (id *identifier) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = identifier(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*id = identifier(s)
	return nil
}

type authorList struct {
	Author []json.RawMessage `json:"author"`
}

// author covers both schemas: a single "affiliation" string, or a list of
// affiliation details.
type author struct {
	Affiliation *string `json:"affiliation"`
	Details     *struct {
		AuthorAffiliation []json.RawMessage `json:"authorAffiliation"`
	} `json:"authorAffiliationDetailsList"`
}

type affiliationDetail struct {
	Affiliation *string `json:"affiliation"`
}

// decodeRecords decodes every result on its own. Results that do not decode
// are dropped and counted in skipped.
func decodeRecords(raw []json.RawMessage) (records []types.PublicationRecord, skipped int) {
	records = make([]types.PublicationRecord, 0, len(raw))
	for _, msg := range raw {
		var r result
		if err := json.Unmarshal(msg, &r); err != nil {
			skipped++
			continue
		}
		records = append(records, r.record())
	}
	return records, skipped
}

// record flattens the affiliations of every author in order. An author list,
// author or affiliation detail that does not decode is skipped and counted.
func (r result) record() types.PublicationRecord {
	rec := types.PublicationRecord{ID: string(r.PMID), Affiliations: []string{}}
	if rec.ID == "" {
		rec.ID = string(r.ID)
	}
	if len(r.AuthorList) == 0 || string(r.AuthorList) == "null" {
		return rec
	}

	var list authorList
	if err := json.Unmarshal(r.AuthorList, &list); err != nil {
		rec.MalformedAuthors++
		return rec
	}
	for _, raw := range list.Author {
		affs, bad := authorAffiliations(raw)
		rec.MalformedAuthors += bad
		rec.Affiliations = append(rec.Affiliations, affs...)
	}
	return rec
}

// authorAffiliations returns the affiliations of one author and the number of
// entries that could not be read. An author that does not decode at all
// counts as one.
func authorAffiliations(raw json.RawMessage) ([]string, int) {
	var a author
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, 1
	}
	if a.Affiliation != nil {
		return []string{*a.Affiliation}, 0
	}
	if a.Details == nil {
		return nil, 0
	}

	var (
		affs []string
		bad  int
	)
	for _, msg := range a.Details.AuthorAffiliation {
		var d affiliationDetail
		if err := json.Unmarshal(msg, &d); err != nil || d.Affiliation == nil {
			bad++
			continue
		}
		affs = append(affs, *d.Affiliation)
	}
	return affs, bad
}
