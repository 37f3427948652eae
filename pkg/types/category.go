// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category is the single visible category of a publication.
type Category string

const (
	CategoryMemberState Category = "member_states"
	CategoryWorldwide   Category = "worldwide"
	CategoryPartnership Category = "partnership"
	CategoryUnresolved  Category = "unresolved"
)

// CategoryRecord holds the per-publication category flags written to the
// category tables.
type CategoryRecord struct {
	PMID        string `json:"pmid" yaml:"pmid"`
	IsOrg       bool   `json:"embl" yaml:"embl"`
	MemberState bool   `json:"member_states" yaml:"member_states"`
	Worldwide   bool   `json:"worldwide" yaml:"worldwide"`
	Partnership bool   `json:"partnership" yaml:"partnership"`
}

// Category applies the precedence member states > worldwide > partnership.
// A record with both MemberState and Worldwide set is a member-state
// publication even if it also involves a partnership site.
func (c CategoryRecord) Category() Category {
	switch {
	case c.MemberState:
		return CategoryMemberState
	case c.Worldwide:
		return CategoryWorldwide
	case c.Partnership:
		return CategoryPartnership
	default:
		return CategoryUnresolved
	}
}
