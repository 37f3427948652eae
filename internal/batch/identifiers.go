// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`[0-9]+`)

// ParseIdentifiers returns every run of digits in s, in order. Any other
// text (commas, headers, "PMID:" prefixes) is ignored.
func ParseIdentifiers(s string) []string {
	return identifierPattern.FindAllString(s, -1)
}

// ReadIdentifiers parses identifiers from r.
func ReadIdentifiers(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading identifiers: %w", err)
	}
	return ParseIdentifiers(string(data)), nil
}

// LoadIdentifiers reads identifiers from the file at path, or from stdin
// when path is "-", followed by those found in args.
func LoadIdentifiers(path string, args []string) ([]string, error) {
	var ids []string
	switch path {
	case "":
	case "-":
		read, err := ReadIdentifiers(os.Stdin)
		if err != nil {
			return nil, err
		}
		ids = read
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening identifier file: %w", err)
		}
		defer f.Close()
		read, err := ReadIdentifiers(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ids = read
	}
	return append(ids, ParseIdentifiers(strings.Join(args, " "))...), nil
}
