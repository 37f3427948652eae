// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Method records which stage of the classification cascade produced a match.
type Method int

const (
	MethodNone Method = iota
	MethodFullMatch
	MethodSubstringSemicolon
	MethodSubstringKeyword
	MethodPhraseEBI
	MethodPhraseEMBL
)

// Literal phrases that short-circuit keyword-window matching.
const (
	PhraseEBI  = "European Bioinformatics Institute"
	PhraseEMBL = "European Molecular Biology Laboratory"
)

func (m Method) String() string {
	switch m {
	case MethodFullMatch:
		return "Complete sentence"
	case MethodSubstringSemicolon:
		return "Substring ';'"
	case MethodSubstringKeyword:
		return "Substring keyword"
	case MethodPhraseEBI:
		return fmt.Sprintf("Substring '%s'", PhraseEBI)
	case MethodPhraseEMBL:
		return fmt.Sprintf("Substring '%s'", PhraseEMBL)
	default:
		return ""
	}
}

// ClassificationResult is the outcome of classifying one affiliation string.
// Optional fields are nil or empty when the caller did not request them.
type ClassificationResult struct {
	Matched bool   `json:"matched" yaml:"matched"`
	Method  Method `json:"-" yaml:"-"`

	// Keyword is set for MethodSubstringKeyword.
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`

	// Text is the raw affiliation string.
	Text string `json:"text" yaml:"text"`

	MatchedSubstring string   `json:"matched_substring,omitempty" yaml:"matched_substring,omitempty"`
	MembershipScore  *float64 `json:"membership_score,omitempty" yaml:"membership_score,omitempty"`
	Site             Site     `json:"site,omitempty" yaml:"site,omitempty"`
	SiteScore        *float64 `json:"site_score,omitempty" yaml:"site_score,omitempty"`
}

// MethodLabel returns the human-readable method, including the keyword for
// keyword-window matches (e.g. "Substring 'EMBL'").
func (r ClassificationResult) MethodLabel() string {
	if r.Method == MethodSubstringKeyword {
		return fmt.Sprintf("Substring '%s'", r.Keyword)
	}
	return r.Method.String()
}
