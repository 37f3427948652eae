// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy shared by all stages. Callers wrap these with fmt.Errorf
// and %w and test with errors.Is.
var (
	// ErrMalformedRecord marks a fetched record that lacks expected nested fields.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrServiceUnavailable marks a failing collaborator (bibliographic
	// service, scoring service, NER).
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRecordNotFound marks a publication the bibliographic service no
	// longer returns.
	ErrRecordNotFound = errors.New("record not found")

	// ErrConfiguration marks missing or invalid reference data, model
	// artifacts, or settings. It is fatal at startup.
	ErrConfiguration = errors.New("configuration error")
)
