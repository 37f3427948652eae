// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/affiliation-engine/internal/gazetteer"
	"github.com/pdiddy/affiliation-engine/pkg/types"
)

type fakeRecognizer struct {
	entities []Entity
	err      error
}

func (f fakeRecognizer) Recognize(context.Context, string) ([]Entity, error) {
	return f.entities, f.err
}

func gpe(texts ...string) []Entity {
	var out []Entity
	for _, t := range texts {
		out = append(out, Entity{Text: t, Label: LabelGPE})
	}
	return out
}

func defaultGazetteer(t *testing.T) *gazetteer.Gazetteer {
	t.Helper()
	g, err := gazetteer.Default()
	require.NoError(t, err)
	return g
}

func TestResolveCountries(t *testing.T) {
	g := defaultGazetteer(t)
	r := NewResolver(g, NewGazetteerRecognizer(g))

	tests := []struct {
		name     string
		text     string
		countAll bool
		want     types.PlaceMatch
	}{
		{"single country", "Meeting held in Paris, France.", false, types.PlaceMatch{"France": 1}},
		{"abbreviation", "Lab, UK.", false, types.PlaceMatch{"United Kingdom": 1}},
		{"repeated once", "Institut Curie, Paris, France; CNRS, France", false, types.PlaceMatch{"France": 1}},
		{"repeated counted", "Institut Curie, Paris, France; CNRS, France", true, types.PlaceMatch{"France": 2}},
		{"first abbreviation only", "Lab A, UK and Lab B, USA", false, types.PlaceMatch{"United Kingdom": 1}},
		{"every abbreviation", "Lab A, UK and Lab B, USA", true, types.PlaceMatch{"United Kingdom": 1, "United States": 1}},
		{"entity and abbreviation", "Dept of Biology, Heidelberg, Germany and Cambridge, UK", false,
			types.PlaceMatch{"Germany": 1, "United Kingdom": 1}},
		{"nothing", "Department of Biology", false, types.PlaceMatch{}},
		{"empty", "", false, types.PlaceMatch{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.text, ModeCountries, tt.countAll)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCountriesFallbacks(t *testing.T) {
	g := defaultGazetteer(t)

	tests := []struct {
		name     string
		text     string
		entities []Entity
		want     types.PlaceMatch
	}{
		{"capitalized form", "INSTITUT PASTEUR, FRANCE", gpe("FRANCE"), types.PlaceMatch{"France": 1}},
		{"title cased", "DEPT OF BIOLOGY, UNITED KINGDOM", gpe("UNITED KINGDOM"), types.PlaceMatch{"United Kingdom": 1}},
		{"word of entity", "University of Tokyo Japan", gpe("Tokyo Japan"), types.PlaceMatch{"Japan": 1}},
		{"token scan", "Department of Genetics, Japan", nil, types.PlaceMatch{"Japan": 1}},
		{"punctuated entity skipped", "Lab in Sao-Paulo, Brazil", gpe("Sao-Paulo"), types.PlaceMatch{"Brazil": 1}},
		{"non GPE ignored", "Dr France Smith, Lab", []Entity{{Text: "France Smith", Label: "PERSON"}},
			types.PlaceMatch{"France": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(g, fakeRecognizer{entities: tt.entities})
			got, err := r.Resolve(context.Background(), tt.text, ModeCountries, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCities(t *testing.T) {
	g := defaultGazetteer(t)

	r := NewResolver(g, NewGazetteerRecognizer(g))
	got, err := r.Resolve(context.Background(), "EMBL, Meyerhofstrasse 1, Heidelberg, Germany", ModeCities, false)
	require.NoError(t, err)
	assert.Equal(t, types.PlaceMatch{"Heidelberg": 1}, got)

	r = NewResolver(g, fakeRecognizer{})
	got, err = r.Resolve(context.Background(), "lab in Heidelberg and later Heidelberg again", ModeCities, true)
	require.NoError(t, err)
	assert.Equal(t, types.PlaceMatch{"Heidelberg": 2}, got)
}

func TestResolveOther(t *testing.T) {
	r := NewResolver(defaultGazetteer(t), fakeRecognizer{entities: []Entity{
		{Text: "Bavaria", Label: LabelGPE},
		{Text: "Germany", Label: LabelGPE},
		{Text: "DEU", Label: LabelGPE},
		{Text: "Baden-Württemberg", Label: LabelGPE},
		{Text: "Smith", Label: "PERSON"},
	}})

	got, err := r.Resolve(context.Background(), "Bavaria, Germany (DEU), Baden-Württemberg, Smith", ModeOther, false)
	require.NoError(t, err)
	assert.Equal(t, types.PlaceMatch{"Bavaria": 1}, got)
}

func TestResolveRecognizerError(t *testing.T) {
	r := NewResolver(defaultGazetteer(t), fakeRecognizer{err: errors.New("timeout")})
	_, err := r.Resolve(context.Background(), "Paris, France", ModeCountries, false)
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
}

func TestCountMentions(t *testing.T) {
	tests := []struct {
		text, mention string
		want          int
	}{
		{"France, France", "France", 2},
		{"Frances France", "France", 1},
		{"UK-based lab, UK", "UK", 2},
		{"USA", "US", 0},
		{"Zürich", "rich", 0},
		{"Paris", "", 0},
		{"", "Paris", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, countMentions(tt.text, tt.mention), "%q in %q", tt.mention, tt.text)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeCountries, "Countries": ModeCountries, "cities": ModeCities, "other": ModeOther} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}
	_, err := ParseMode("planets")
	assert.Error(t, err)
}

func TestGazetteerRecognizer(t *testing.T) {
	r := NewGazetteerRecognizer(defaultGazetteer(t))

	tests := []struct {
		text string
		want []Entity
	}{
		{"Meeting held in Paris, France.", []Entity{{Text: "Meeting"}, gpe("Paris")[0], gpe("France")[0]}},
		{"Institut Pasteur Paris", gpe("Institut Pasteur Paris")},
		{"Lab, UK.", []Entity{{Text: "Lab"}, {Text: "UK"}}},
		{"dept of biology", nil},
		{"Dept of Biology, GERMANY", []Entity{{Text: "Dept"}, {Text: "Biology"}, gpe("GERMANY")[0]}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := r.Recognize(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModelRecognizerKeepsGazetteerSpans(t *testing.T) {
	g := defaultGazetteer(t)
	rules := NewGazetteerRecognizer(g)
	m := NewModelRecognizer(g)

	texts := []string{
		"Meeting held in Paris, France.",
		"Institut Pasteur Paris",
		"Dept of Biology, GERMANY",
		"Laboratory of Structural Biology, Lyon",
		"dept of biology",
	}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			want, err := rules.Recognize(context.Background(), text)
			require.NoError(t, err)
			got, err := m.Recognize(context.Background(), text)
			require.NoError(t, err)

			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Text, got[i].Text)
				if want[i].Label == LabelGPE {
					assert.Equal(t, LabelGPE, got[i].Label, "gazetteer place %q lost its label", want[i].Text)
				}
				assert.Contains(t, []string{"", LabelGPE}, got[i].Label)
			}
		})
	}
}

func TestModelRecognizerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewModelRecognizer(defaultGazetteer(t)).Recognize(ctx, "Department of Biology")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveDefaultRecognizer(t *testing.T) {
	r := NewResolver(defaultGazetteer(t), nil)
	assert.IsType(t, &ModelRecognizer{}, r.ner)

	got, err := r.Resolve(context.Background(), "EMBL, Meyerhofstrasse 1, Heidelberg, Germany", ModeCountries, false)
	require.NoError(t, err)
	assert.Equal(t, types.PlaceMatch{"Germany": 1}, got)
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, containsPhrase("Institut Pasteur Paris", []string{"Paris"}))
	assert.True(t, containsPhrase("New York", []string{"New York"}))
	assert.False(t, containsPhrase("Parisian Institute", []string{"Paris"}))
	assert.False(t, containsPhrase("Biology", nil))
}
