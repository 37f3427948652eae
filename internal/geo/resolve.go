// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geo resolves free-text place mentions to canonical country or city
// names.
// Implements: docs/ARCHITECTURE § Place Resolver.
//
// Resolution combines entities from a Recognizer with exact lookups in the
// gazetteer. Each step receives the resolution state explicitly; nothing is
// shared between calls.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/affiliation-engine/internal/gazetteer"
	"github.com/pdiddy/affiliation-engine/internal/normalize"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// Mode selects what Resolve reports.
type Mode int

const (
	// ModeCountries reports canonical country names.
	ModeCountries Mode = iota
	// ModeCities reports city names.
	ModeCities
	// ModeOther reports place entities found in no reference table.
	ModeOther
)

func (m Mode) String() string {
	switch m {
	case ModeCities:
		return "cities"
	case ModeOther:
		return "other"
	default:
		return "countries"
	}
}

// ParseMode maps "countries", "cities" or "other" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "countries", "country":
		return ModeCountries, nil
	case "cities", "city":
		return ModeCities, nil
	case "other":
		return ModeOther, nil
	}
	return ModeCountries, fmt.Errorf("unknown place mode %q (want countries, cities or other)", s)
}

// Resolver extracts places from text. It is safe for concurrent use when its
// Recognizer is.
type Resolver struct {
	gaz *gazetteer.Gazetteer
	ner Recognizer
}

// NewResolver returns a Resolver. A nil recognizer selects the
// ModelRecognizer.
func NewResolver(g *gazetteer.Gazetteer, ner Recognizer) *Resolver {
	if ner == nil {
		ner = NewModelRecognizer(g)
	}
	return &Resolver{gaz: g, ner: ner}
}

// resolution is the state of one Resolve call.
type resolution struct {
	text     string
	countAll bool
	seen     map[string]bool
	out      types.PlaceMatch
}

func newResolution(text string, countAll bool) *resolution {
	return &resolution{text: text, countAll: countAll, seen: make(map[string]bool), out: make(types.PlaceMatch)}
}

// record stores canonical under the surface form mention. Without countAll
// every place counts exactly once.
func record(st *resolution, mention, canonical string) {
	st.seen[mention] = true
	if !st.countAll {
		st.out[canonical] = 1
		return
	}
	st.out[canonical] += max(countMentions(st.text, mention), 1)
}

// Resolve returns the places of text for the given mode. An empty result is
// a valid outcome. Recognizer failures wrap types.ErrServiceUnavailable.
func (r *Resolver) Resolve(ctx context.Context, text string, mode Mode, countAll bool) (types.PlaceMatch, error) {
	entities, err := r.ner.Recognize(ctx, text)
	if err != nil {
		if errors.Is(err, types.ErrServiceUnavailable) {
			return nil, fmt.Errorf("recognizing places: %w", err)
		}
		return nil, fmt.Errorf("recognizing places: %w: %w", types.ErrServiceUnavailable, err)
	}

	st := newResolution(text, countAll)
	mentions := r.matchEntities(st, entities, mode)

	switch mode {
	case ModeCountries:
		r.matchAbbreviations(st)
		if len(st.seen) == 0 {
			r.matchTitleCased(st, mentions)
		}
		if len(st.seen) == 0 {
			r.matchTokens(st, r.gaz.IsCountry)
		}
	case ModeCities:
		if len(st.seen) == 0 {
			r.matchTokens(st, r.gaz.IsCity)
		}
	}
	return st.out, nil
}

// matchEntities records the GPE mentions that name a place of the selected
// kind and returns every usable mention in order.
func (r *Resolver) matchEntities(st *resolution, entities []Entity, mode Mode) []string {
	known := r.gaz.IsCountry
	if mode == ModeCities {
		known = r.gaz.IsCity
	}

	var mentions []string
	for _, e := range entities {
		if e.Label != LabelGPE || st.seen[e.Text] || !plain(e.Text) {
			continue
		}
		mentions = append(mentions, e.Text)

		if mode == ModeOther {
			if !r.gaz.IsKnownPlace(e.Text) {
				record(st, e.Text, e.Text)
			}
			continue
		}

		if known(e.Text) {
			record(st, e.Text, e.Text)
			continue
		}
		if c := capitalize(e.Text); known(c) {
			record(st, e.Text, c)
			continue
		}
		for _, w := range strings.Fields(e.Text) {
			if known(w) {
				record(st, w, w)
			}
		}
	}
	return mentions
}

// matchAbbreviations scans for whole-word abbreviations such as "UK",
// stopping at the first hit unless every mention is counted.
func (r *Resolver) matchAbbreviations(st *resolution) {
	for _, a := range r.gaz.Abbreviations() {
		if st.seen[a.Abbreviation] || countMentions(st.text, a.Abbreviation) == 0 {
			continue
		}
		record(st, a.Abbreviation, a.Name)
		if !st.countAll {
			return
		}
	}
}

// matchTitleCased records the first mention whose title-cased form is a
// country, e.g. "UNITED KINGDOM".
func (r *Resolver) matchTitleCased(st *resolution, mentions []string) {
	title := cases.Title(language.Und)
	for _, m := range mentions {
		if c := title.String(strings.ToLower(m)); r.gaz.IsCountry(c) {
			record(st, m, c)
			return
		}
	}
}

// matchTokens records every word of the text accepted by known.
func (r *Resolver) matchTokens(st *resolution, known func(string) bool) {
	for _, w := range normalize.Words(st.text) {
		if !st.seen[w] && known(w) {
			record(st, w, w)
		}
	}
}

// plain reports whether s holds only letters, digits and spaces.
func plain(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return s != ""
}

// countMentions counts the standalone occurrences of mention in text: those
// not preceded or followed by a letter or digit.
func countMentions(text, mention string) int {
	if mention == "" {
		return 0
	}
	n := 0
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], mention)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(mention)
		if !alnumBefore(text, start) && !alnumAfter(text, end) {
			n++
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		i = start + size
	}
	return n
}

func alnumBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func alnumAfter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
