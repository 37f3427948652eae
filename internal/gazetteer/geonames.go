// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gazetteer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// GeoNames dump columns (https://download.geonames.org/export/dump/).
const (
	geoNamesName      = 1
	geoNamesASCIIName = 2
	geoNamesColumns   = 19
)

// ReadGeoNames reads the city names of a GeoNames cities dump such as
// cities15000.txt. Both the name and, when it differs, the ASCII name of
// each row are returned. Comment and blank lines are ignored.
func ReadGeoNames(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < geoNamesColumns {
			return nil, fmt.Errorf("%w: geonames line %d has %d columns, want %d",
				types.ErrConfiguration, line, len(fields), geoNamesColumns)
		}
		name := strings.TrimSpace(fields[geoNamesName])
		ascii := strings.TrimSpace(fields[geoNamesASCIIName])
		if name != "" {
			names = append(names, name)
		}
		if ascii != "" && ascii != name {
			names = append(names, ascii)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading geonames: %v", types.ErrConfiguration, err)
	}
	return names, nil
}

// LoadGeoNames reads a GeoNames cities dump from path.
func LoadGeoNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening geonames: %v", types.ErrConfiguration, err)
	}
	defer f.Close()

	names, err := ReadGeoNames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}

// AddCities extends the city table and returns how many names were new.
// It must be called before the gazetteer is shared between goroutines.
func (g *Gazetteer) AddCities(names []string) int {
	added := 0
	for _, n := range names {
		if n == "" || g.cities[n] {
			continue
		}
		g.cities[n] = true
		added++
	}
	return added
}
