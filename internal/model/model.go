// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model scores affiliation text with an exported TF-IDF vectorizer
// and logistic-regression classifier.
// Implements: docs/ARCHITECTURE § Scoring Services (local backend).
//
// An artifact is a JSON document produced by the training notebooks:
//
//	{
//	  "classes": ["0", "1"],
//	  "vectorizer": {
//	    "vocabulary": {"embl": 0, "heidelberg": 1},
//	    "idf": [1.7, 2.3],
//	    "lowercase": true,
//	    "ngram_range": [1, 2],
//	    "sublinear_tf": false
//	  },
//	  "coef": [[3.1, 0.4]],
//	  "intercept": [-1.2],
//	  "multi_class": "ovr"
//	}
//
// Binary models carry a single coefficient row for the second class.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// tokenPattern mirrors the default vectorizer tokenizer: words of at least
// two letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Artifact is the serialized form of a trained model.
type Artifact struct {
	Classes    []string           `json:"classes"`
	Vectorizer VectorizerArtifact `json:"vectorizer"`
	Coef       [][]float64        `json:"coef"`
	Intercept  []float64          `json:"intercept"`
	MultiClass string             `json:"multi_class"`
}

// VectorizerArtifact is the serialized TF-IDF vectorizer.
type VectorizerArtifact struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Lowercase   *bool          `json:"lowercase,omitempty"`
	NgramRange  [2]int         `json:"ngram_range"`
	SublinearTF bool           `json:"sublinear_tf"`
}

// Model is a loaded, immutable classifier. It is safe for concurrent use.
type Model struct {
	classes     []string
	vocabulary  map[string]int
	idf         []float64
	lowercase   bool
	minN, maxN  int
	sublinearTF bool
	coef        [][]float64
	intercept   []float64
	multinomial bool
}

// Load reads and validates a model artifact from path. Any failure wraps
// types.ErrConfiguration since a missing model is fatal at startup.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading model %s: %v", types.ErrConfiguration, path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a JSON model artifact.
func Parse(data []byte) (*Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: parsing model artifact: %v", types.ErrConfiguration, err)
	}
	return New(a)
}

// New builds a Model from an in-memory artifact.
func New(a Artifact) (*Model, error) {
	if len(a.Classes) < 2 {
		return nil, fmt.Errorf("%w: model needs at least two classes, got %d", types.ErrConfiguration, len(a.Classes))
	}
	v := a.Vectorizer
	if len(v.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: model vocabulary is empty", types.ErrConfiguration)
	}
	width := len(v.IDF)
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= width {
			return nil, fmt.Errorf("%w: vocabulary index %d for %q outside idf length %d", types.ErrConfiguration, idx, term, width)
		}
	}

	rows := len(a.Classes)
	if rows == 2 {
		rows = 1
	}
	if len(a.Coef) != rows || len(a.Intercept) != rows {
		return nil, fmt.Errorf("%w: expected %d coefficient rows and intercepts, got %d and %d",
			types.ErrConfiguration, rows, len(a.Coef), len(a.Intercept))
	}
	for i, row := range a.Coef {
		if len(row) != width {
			return nil, fmt.Errorf("%w: coefficient row %d has %d columns, want %d", types.ErrConfiguration, i, len(row), width)
		}
	}

	minN, maxN := v.NgramRange[0], v.NgramRange[1]
	if minN == 0 && maxN == 0 {
		minN, maxN = 1, 1
	}
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("%w: invalid ngram range [%d, %d]", types.ErrConfiguration, minN, maxN)
	}

	lowercase := true
	if v.Lowercase != nil {
		lowercase = *v.Lowercase
	}

	var multinomial bool
	switch a.MultiClass {
	case "", "ovr", "auto":
	case "multinomial":
		multinomial = true
	default:
		return nil, fmt.Errorf("%w: unsupported multi_class %q", types.ErrConfiguration, a.MultiClass)
	}

	return &Model{
		classes:     a.Classes,
		vocabulary:  v.Vocabulary,
		idf:         v.IDF,
		lowercase:   lowercase,
		minN:        minN,
		maxN:        maxN,
		sublinearTF: v.SublinearTF,
		coef:        a.Coef,
		intercept:   a.Intercept,
		multinomial: multinomial,
	}, nil
}

// Classes returns the class labels in probability order.
func (m *Model) Classes() []string {
	return m.classes
}

// PredictProba returns one probability per class, summing to 1.
func (m *Model) PredictProba(text string) []float64 {
	x := m.transform(text)

	if len(m.classes) == 2 {
		p := sigmoid(dot(m.coef[0], x) + m.intercept[0])
		return []float64{1 - p, p}
	}

	scores := make([]float64, len(m.classes))
	for i, row := range m.coef {
		scores[i] = dot(row, x) + m.intercept[i]
	}
	if m.multinomial {
		return softmax(scores)
	}

	var sum float64
	for i, s := range scores {
		scores[i] = sigmoid(s)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
	return scores
}

// transform returns the L2-normalized TF-IDF vector of text as a sparse map
// from feature index to weight.
func (m *Model) transform(text string) map[int]float64 {
	if m.lowercase {
		text = strings.ToLower(text)
	}
	tokens := tokenPattern.FindAllString(text, -1)

	counts := make(map[int]float64)
	for n := m.minN; n <= m.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if idx, ok := m.vocabulary[term]; ok {
				counts[idx]++
			}
		}
	}

	var norm float64
	for idx, tf := range counts {
		if m.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * m.idf[idx]
		counts[idx] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

func dot(row []float64, x map[int]float64) float64 {
	var s float64
	for idx, w := range x {
		s += row[idx] * w
	}
	return s
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		maxZ = math.Max(maxZ, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
