// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for externally sourced
// identifiers.
//
// Function signatures arrive from an external source-analysis front
// end; the names they carry end up in log output, metric labels, and
// generated test descriptions. Validating them here keeps malformed
// or hostile names out of those surfaces.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// maxIdentifierLength bounds identifier names. Generated test IDs and
// metric labels embed the name, so it stays short.
const maxIdentifierLength = 256

// identifierPattern matches identifiers as most source languages
// define them: a letter, underscore, or dollar sign followed by
// letters, digits, underscores, or dollar signs.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidateIdentifier validates a function or parameter name.
//
// Valid identifiers:
//   - 1 to 256 characters
//   - first character: letter, underscore, or dollar sign
//   - remaining characters: letters, digits, underscores, dollar signs
//
// Example:
//
//	if err := validation.ValidateIdentifier(sig.Name); err != nil {
//	    return nil, fmt.Errorf("invalid function name: %w", err)
//	}
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("identifier too long: %d characters (max %d)", len(name), maxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q (must start with a letter, underscore, or $, followed by alphanumerics)", name)
	}
	return nil
}

// ValidateIdentifiers validates multiple names, reporting every
// invalid one.
func ValidateIdentifiers(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateIdentifier(n); err != nil {
			invalid = append(invalid, n)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid identifiers: %v", invalid)
	}
	return nil
}

// SanitizeIdentifier trims surrounding whitespace and validates.
// Returns the trimmed name if valid.
func SanitizeIdentifier(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := ValidateIdentifier(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
