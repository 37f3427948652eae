// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every stage configuration and returns an error wrapping
// ErrConfiguration that lists each offending field.
func (c PipelineConfig) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	if c.Scoring.Backend == ScoringRemote && c.Scoring.URL == "" {
		problems = append(problems, "PipelineConfig.Scoring.URL is required for the remote backend")
	}
	if c.Geo.NER == NERRemote && c.Geo.NERURL == "" {
		problems = append(problems, "PipelineConfig.Geo.NERURL is required for the remote recognizer")
	}
	if c.Classifier.SubsegmentThreshold > c.Classifier.FullMatchThreshold {
		problems = append(problems, "PipelineConfig.Classifier.SubsegmentThreshold exceeds FullMatchThreshold")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
