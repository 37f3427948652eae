// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gazetteer provides the read-only reference tables used for place
// resolution: country names, city names, ISO 3166-1 codes, common country
// abbreviations and the member and associate member states.
// Implements: docs/ARCHITECTURE § Reference Lookup.
//
// The default tables are embedded; Load reads a replacement YAML file with
// the same layout. The embedded city table is small; AddCities extends it
// with a GeoNames dump read by LoadGeoNames.
package gazetteer

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

//go:embed reference.yaml
var defaultReference []byte

// Country is one row of the country table.
type Country struct {
	Name string `yaml:"name" validate:"required"`
	ISO2 string `yaml:"iso2" validate:"len=2,uppercase"`
	ISO3 string `yaml:"iso3" validate:"len=3,uppercase"`
}

// Abbreviation maps a short form found in affiliations to a country name.
type Abbreviation struct {
	Abbreviation string `yaml:"abbreviation" validate:"required"`
	Name         string `yaml:"name" validate:"required"`
}

// Data is the on-disk layout of the reference tables.
type Data struct {
	Countries             []Country      `yaml:"countries" validate:"required,min=1,dive"`
	Cities                []string       `yaml:"cities" validate:"dive,required"`
	Abbreviations         []Abbreviation `yaml:"abbreviations" validate:"dive"`
	MemberStates          []string       `yaml:"member_states" validate:"required,min=1,dive,required"`
	AssociateMemberStates []string       `yaml:"associate_member_states" validate:"dive,required"`
}

// Gazetteer answers exact-match lookups against the reference tables.
type Gazetteer struct {
	data       Data
	countries  map[string]bool
	cities     map[string]bool
	iso2       map[string]string
	iso3       map[string]string
	members    map[string]bool
	associates map[string]bool
}

var validate = validator.New()

// Default returns the embedded reference tables.
func Default() (*Gazetteer, error) {
	return Parse(defaultReference)
}

// Load reads reference tables from a YAML file. An empty path yields the
// embedded defaults.
func Load(path string) (*Gazetteer, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading reference data: %v", types.ErrConfiguration, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse decodes reference tables from YAML.
func Parse(raw []byte) (*Gazetteer, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: parsing reference data: %v", types.ErrConfiguration, err)
	}
	return New(d)
}

// New indexes d after checking that it is complete and consistent: every
// member state, associate member state and abbreviation target must be a
// known country.
func New(d Data) (*Gazetteer, error) {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("%w: reference data %s failed %q", types.ErrConfiguration, fe.Namespace(), fe.Tag())
		}
		return nil, fmt.Errorf("%w: reference data: %v", types.ErrConfiguration, err)
	}

	g := &Gazetteer{
		data:       d,
		countries:  make(map[string]bool, len(d.Countries)),
		cities:     make(map[string]bool, len(d.Cities)),
		iso2:       make(map[string]string, len(d.Countries)),
		iso3:       make(map[string]string, len(d.Countries)),
		members:    make(map[string]bool, len(d.MemberStates)),
		associates: make(map[string]bool, len(d.AssociateMemberStates)),
	}
	for _, c := range d.Countries {
		if g.countries[c.Name] {
			return nil, fmt.Errorf("%w: duplicate country %q", types.ErrConfiguration, c.Name)
		}
		g.countries[c.Name] = true
		g.iso2[c.ISO2] = c.Name
		g.iso3[c.ISO3] = c.Name
	}
	for _, c := range d.Cities {
		g.cities[c] = true
	}

	var unknown []string
	for _, m := range d.MemberStates {
		if !g.countries[m] {
			unknown = append(unknown, m)
		}
		g.members[m] = true
	}
	for _, m := range d.AssociateMemberStates {
		if !g.countries[m] {
			unknown = append(unknown, m)
		}
		g.associates[m] = true
	}
	for _, a := range d.Abbreviations {
		if !g.countries[a.Name] {
			unknown = append(unknown, a.Name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: reference data names unknown countries: %s",
			types.ErrConfiguration, strings.Join(unknown, ", "))
	}
	return g, nil
}

// IsCountry reports whether name is a country name.
func (g *Gazetteer) IsCountry(name string) bool { return g.countries[name] }

// IsCity reports whether name is a city name.
func (g *Gazetteer) IsCity(name string) bool { return g.cities[name] }

// ISO2 returns the country named by a two-letter code.
func (g *Gazetteer) ISO2(code string) (string, bool) {
	name, ok := g.iso2[code]
	return name, ok
}

// ISO3 returns the country named by a three-letter code.
func (g *Gazetteer) ISO3(code string) (string, bool) {
	name, ok := g.iso3[code]
	return name, ok
}

// IsKnownPlace reports whether s appears in the country, city, ISO-2 or
// ISO-3 table.
func (g *Gazetteer) IsKnownPlace(s string) bool {
	if g.countries[s] || g.cities[s] {
		return true
	}
	_, ok2 := g.iso2[s]
	_, ok3 := g.iso3[s]
	return ok2 || ok3
}

// Abbreviations returns the abbreviation table in file order.
func (g *Gazetteer) Abbreviations() []Abbreviation {
	return g.data.Abbreviations
}

// IsMemberState reports whether the country is a member state or an
// associate member state.
func (g *Gazetteer) IsMemberState(country string) bool {
	return g.members[country] || g.associates[country]
}

// Stats returns the size of each table, for diagnostics.
func (g *Gazetteer) Stats() map[string]int {
	return map[string]int{
		"countries":               len(g.data.Countries),
		"cities":                  len(g.cities),
		"abbreviations":           len(g.data.Abbreviations),
		"member_states":           len(g.data.MemberStates),
		"associate_member_states": len(g.data.AssociateMemberStates),
	}
}
