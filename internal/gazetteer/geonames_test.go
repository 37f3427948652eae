// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gazetteer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

func geoNamesRow(id, name, ascii, country string) string {
	fields := make([]string, geoNamesColumns)
	fields[0] = id
	fields[geoNamesName] = name
	fields[geoNamesASCIIName] = ascii
	fields[8] = country
	return strings.Join(fields, "\t")
}

func TestReadGeoNames(t *testing.T) {
	dump := strings.Join([]string{
		"# cities15000",
		geoNamesRow("2996944", "Lyon", "Lyon", "FR"),
		"",
		geoNamesRow("2657896", "Zürich", "Zurich", "CH"),
		geoNamesRow("3117735", "Madrid", "Madrid", "ES"),
	}, "\n")

	names, err := ReadGeoNames(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, []string{"Lyon", "Zürich", "Zurich", "Madrid"}, names)
}

func TestReadGeoNamesRejectsShortRows(t *testing.T) {
	_, err := ReadGeoNames(strings.NewReader("1\tLyon\tLyon\n"))
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestAddCities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities15000.txt")
	dump := geoNamesRow("1", "Kuopio", "Kuopio", "FI") + "\n" +
		geoNamesRow("2", "Heidelberg", "Heidelberg", "DE") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	g, err := Default()
	require.NoError(t, err)
	require.False(t, g.IsCity("Kuopio"))
	before := g.Stats()["cities"]

	names, err := LoadGeoNames(path)
	require.NoError(t, err)
	assert.Equal(t, 1, g.AddCities(names))
	assert.True(t, g.IsCity("Kuopio"))
	assert.True(t, g.IsKnownPlace("Kuopio"))
	assert.Equal(t, before+1, g.Stats()["cities"])
}

func TestLoadGeoNamesMissingFile(t *testing.T) {
	_, err := LoadGeoNames(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
