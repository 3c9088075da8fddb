// Copyright 2026 The Crewdesk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package settings

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
)

// datetimeLayouts are tried in order when validating datetime settings.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var booleanLiterals = map[string]bool{
	"true":  true,
	"1":     true,
	"false": false,
	"0":     false,
}

// ValidationError carries every constraint violation found in a request.
// No partial persistence happens when it is returned.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// Validate checks a raw value against the schema entry for key and
// returns the list of violated constraints, or nil when the value is
// acceptable. Keys without a schema entry are accepted unmodified.
func Validate(key, raw string) []string {
	entry, ok := Lookup(key)
	if !ok {
		return nil
	}
	return validateEntry(entry, raw)
}

func validateEntry(entry SchemaEntry, raw string) []string {
	if raw == "" {
		if entry.Required {
			return []string{fmt.Sprintf("%s is required", entry.Key)}
		}
		// Empty optional values are trivially valid; no further checks.
		return nil
	}

	var reasons []string
	switch entry.Type {
	case TypeString:
		if entry.MaxLength > 0 && utf8.RuneCountInString(raw) > entry.MaxLength {
			reasons = append(reasons, fmt.Sprintf("%s must be at most %d characters", entry.Key, entry.MaxLength))
		}

	case TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			reasons = append(reasons, fmt.Sprintf("%s must be a valid number", entry.Key))
			break
		}
		if entry.Min != nil && f < *entry.Min {
			reasons = append(reasons, fmt.Sprintf("%s must be at least %s", entry.Key, formatNumber(*entry.Min)))
		}
		if entry.Max != nil && f > *entry.Max {
			reasons = append(reasons, fmt.Sprintf("%s must be at most %s", entry.Key, formatNumber(*entry.Max)))
		}

	case TypeBoolean:
		if _, ok := booleanLiterals[raw]; !ok {
			reasons = append(reasons, fmt.Sprintf("%s must be a boolean value", entry.Key))
		}

	case TypeEmail:
		if !emailPattern.MatchString(raw) {
			reasons = append(reasons, fmt.Sprintf("%s must be a valid email address", entry.Key))
		}

	case TypeURL:
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			reasons = append(reasons, fmt.Sprintf("%s must be a valid URL", entry.Key))
		}

	case TypeColor:
		if !colorPattern.MatchString(raw) {
			reasons = append(reasons, fmt.Sprintf("%s must be a hex color code", entry.Key))
		}

	case TypeEnum:
		found := false
		for _, v := range entry.Values {
			if raw == v {
				found = true
				break
			}
		}
		if !found {
			reasons = append(reasons, fmt.Sprintf("%s must be one of: %s", entry.Key, strings.Join(entry.Values, ", ")))
		}

	case TypeDatetime:
		valid := false
		for _, layout := range datetimeLayouts {
			if _, err := time.Parse(layout, raw); err == nil {
				valid = true
				break
			}
		}
		if !valid {
			reasons = append(reasons, fmt.Sprintf("%s must be a valid date/time", entry.Key))
		}
	}

	return reasons
}

// ValidateAll validates each entry independently and reports every
// failure together; a malformed or failing entry never short-circuits
// the rest of the batch.
func ValidateAll(entries []Setting) []string {
	var reasons []string
	for _, e := range entries {
		if e.Key == "" {
			reasons = append(reasons, "setting key is required")
			continue
		}
		reasons = append(reasons, Validate(e.Key, e.Value)...)
	}
	return reasons
}

// Sanitize canonicalizes an already-validated value: boolean literals
// collapse to "true"/"false", numbers to their shortest decimal form,
// strings are trimmed. Values without a schema entry pass through
// unchanged. Sanitizing a sanitized value is a no-op.
func Sanitize(key, raw string) string {
	entry, ok := Lookup(key)
	if !ok {
		return raw
	}
	if raw == "" {
		return raw
	}

	switch entry.Type {
	case TypeBoolean:
		if b, ok := booleanLiterals[raw]; ok {
			return strconv.FormatBool(b)
		}
	case TypeNumber:
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return formatNumber(f)
		}
	case TypeString:
		return strings.TrimSpace(raw)
	}
	return raw
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
