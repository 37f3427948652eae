// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"

	"github.com/pdiddy/affiliation-engine/internal/gazetteer"
)

// LabelGPE is the entity label of geopolitical entities (countries, cities,
// states). The resolver ignores every other label.
const LabelGPE = "GPE"

// Entity is one span reported by a named-entity recognizer.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Recognizer extracts named entities from raw text, in order of appearance.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// GazetteerRecognizer is a rule-based recognizer. It reports every run of
// capitalized words and labels it GPE when the run, its capitalized form or
// any of its words is a known place.
type GazetteerRecognizer struct {
	gaz *gazetteer.Gazetteer
}

// NewGazetteerRecognizer returns a recognizer backed by g.
func NewGazetteerRecognizer(g *gazetteer.Gazetteer) *GazetteerRecognizer {
	return &GazetteerRecognizer{gaz: g}
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Recognize implements Recognizer.
func (r *GazetteerRecognizer) Recognize(_ context.Context, text string) ([]Entity, error) {
	var entities []Entity
	locs := tokenPattern.FindAllStringIndex(text, -1)

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		span := text[start:end]
		e := Entity{Text: span}
		if r.isPlace(span) {
			e.Label = LabelGPE
		}
		entities = append(entities, e)
		start = -1
	}

	prevEnd := 0
	for _, loc := range locs {
		tok := text[loc[0]:loc[1]]
		if !capitalized(tok) {
			flush(prevEnd)
			prevEnd = loc[1]
			continue
		}
		// A run continues only across plain spaces.
		if start >= 0 && strings.Trim(text[prevEnd:loc[0]], " ") != "" {
			flush(prevEnd)
		}
		if start < 0 {
			start = loc[0]
		}
		prevEnd = loc[1]
	}
	flush(prevEnd)
	return entities, nil
}

// ModelRecognizer reports the same spans as GazetteerRecognizer. Spans the
// gazetteer does not know are labelled GPE when the prose entity model tags
// them, or a phrase inside them, as a geopolitical entity.
type ModelRecognizer struct {
	rules *GazetteerRecognizer
}

// NewModelRecognizer returns a recognizer backed by g and the prose model.
func NewModelRecognizer(g *gazetteer.Gazetteer) *ModelRecognizer {
	return &ModelRecognizer{rules: NewGazetteerRecognizer(g)}
}

// Recognize implements Recognizer. The model only runs when some span is
// left unlabelled by the gazetteer.
func (r *ModelRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	entities, err := r.rules.Recognize(ctx, text)
	if err != nil {
		return nil, err
	}
	unlabelled := false
	for _, e := range entities {
		if e.Label == "" {
			unlabelled = true
			break
		}
	}
	if !unlabelled {
		return entities, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tagging entities: %w", err)
	}
	var places []string
	for _, ent := range doc.Entities() {
		if ent.Label == LabelGPE {
			places = append(places, ent.Text)
		}
	}
	for i := range entities {
		if entities[i].Label == "" && containsPhrase(entities[i].Text, places) {
			entities[i].Label = LabelGPE
		}
	}
	return entities, nil
}

// containsPhrase reports whether any phrase occurs in span on word
// boundaries.
func containsPhrase(span string, phrases []string) bool {
	padded := " " + span + " "
	for _, p := range phrases {
		if p != "" && strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func (r *GazetteerRecognizer) isPlace(span string) bool {
	if r.gaz.IsKnownPlace(span) || r.gaz.IsKnownPlace(capitalize(span)) {
		return true
	}
	for _, w := range strings.Fields(span) {
		if r.gaz.IsCountry(w) || r.gaz.IsCity(w) {
			return true
		}
	}
	return false
}

func capitalized(tok string) bool {
	first, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsUpper(first)
}

// capitalize upper-cases the first letter of s and lower-cases the rest.
func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
