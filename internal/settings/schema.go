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

// Package settings implements the typed per-tenant configuration engine:
// a static schema registry, the validation/sanitization rules, and the
// settings lifecycle (initialize, read, update, reset, export, import).
//
// Keys absent from the registry are accepted and stored verbatim without
// validation. That passthrough is intentional forward-compatibility
// behavior (tenant-specific custom keys), at the cost of typos being
// silently persisted as new keys.
package settings

// Type is the logical type of a setting value. Values are stored as
// their string encoding regardless of type.
type Type string

const (
	TypeString   Type = "string"
	TypeNumber   Type = "number"
	TypeBoolean  Type = "boolean"
	TypeEmail    Type = "email"
	TypeURL      Type = "url"
	TypeColor    Type = "color"
	TypeEnum     Type = "enum"
	TypeDatetime Type = "datetime"
)

// SchemaEntry describes one known setting key. The registry is immutable
// at runtime; changing an entry is a deployment, not a data write.
type SchemaEntry struct {
	Key      string
	Type     Type
	Category string
	Required bool
	Default  string

	// Constraints. Zero values mean "not constrained".
	MaxLength int
	Min       *float64
	Max       *float64
	Values    []string
}

func fptr(f float64) *float64 { return &f }

// schema is the process-wide registry, loaded once and never mutated.
var schema = map[string]SchemaEntry{
	"company_name": {
		Key: "company_name", Type: TypeString, Category: "company",
		Required: true, MaxLength: 100, Default: "My Company",
	},
	"company_email": {
		Key: "company_email", Type: TypeEmail, Category: "company",
		Required: true, Default: "admin@example.com",
	},
	"company_phone": {
		Key: "company_phone", Type: TypeString, Category: "company",
		MaxLength: 30,
	},
	"company_website": {
		Key: "company_website", Type: TypeURL, Category: "company",
	},
	"company_address": {
		Key: "company_address", Type: TypeString, Category: "company",
		MaxLength: 500,
	},
	"timezone": {
		Key: "timezone", Type: TypeString, Category: "localization",
		Required: true, MaxLength: 64, Default: "UTC",
	},
	"language": {
		Key: "language", Type: TypeEnum, Category: "localization",
		Required: true, Values: []string{"en", "es", "fr", "de", "pt", "ar"},
		Default: "en",
	},
	"currency": {
		Key: "currency", Type: TypeEnum, Category: "localization",
		Required: true, Values: []string{"USD", "EUR", "GBP", "INR", "AUD", "CAD"},
		Default: "USD",
	},
	"date_format": {
		Key: "date_format", Type: TypeEnum, Category: "localization",
		Values:  []string{"Y-m-d", "d-m-Y", "m/d/Y", "d/m/Y"},
		Default: "Y-m-d",
	},
	"time_format": {
		Key: "time_format", Type: TypeEnum, Category: "localization",
		Values:  []string{"12", "24"},
		Default: "24",
	},
	"fiscal_year_start": {
		Key: "fiscal_year_start", Type: TypeDatetime, Category: "finance",
		Default: "2026-01-01",
	},
	"invoice_prefix": {
		Key: "invoice_prefix", Type: TypeString, Category: "finance",
		MaxLength: 10, Default: "INV",
	},
	"invoice_due_days": {
		Key: "invoice_due_days", Type: TypeNumber, Category: "finance",
		Min: fptr(0), Max: fptr(365), Default: "14",
	},
	"tax_rate": {
		Key: "tax_rate", Type: TypeNumber, Category: "finance",
		Min: fptr(0), Max: fptr(100), Default: "0",
	},
	"primary_color": {
		Key: "primary_color", Type: TypeColor, Category: "theme",
		Default: "#1D82F5",
	},
	"sidebar_color": {
		Key: "sidebar_color", Type: TypeColor, Category: "theme",
		Default: "#1B2B36",
	},
	"theme_mode": {
		Key: "theme_mode", Type: TypeEnum, Category: "theme",
		Values:  []string{"light", "dark", "system"},
		Default: "light",
	},
	"logo_url": {
		Key: "logo_url", Type: TypeURL, Category: "theme",
	},
	"session_timeout": {
		Key: "session_timeout", Type: TypeNumber, Category: "security",
		Required: true, Min: fptr(5), Max: fptr(480), Default: "60",
	},
	"two_factor_required": {
		Key: "two_factor_required", Type: TypeBoolean, Category: "security",
		Default: "false",
	},
	"notification_email": {
		Key: "notification_email", Type: TypeEmail, Category: "notifications",
	},
	"email_notifications": {
		Key: "email_notifications", Type: TypeBoolean, Category: "notifications",
		Default: "true",
	},
	"smtp_host": {
		Key: "smtp_host", Type: TypeString, Category: "notifications",
		MaxLength: 255,
	},
	"smtp_port": {
		Key: "smtp_port", Type: TypeNumber, Category: "notifications",
		Min: fptr(1), Max: fptr(65535), Default: "587",
	},
}

// Lookup returns the schema entry for key, if one exists.
func Lookup(key string) (SchemaEntry, bool) {
	e, ok := schema[key]
	return e, ok
}

// Defaults returns the key→default map for every entry carrying a default.
func Defaults() map[string]string {
	out := make(map[string]string)
	for k, e := range schema {
		if e.Default != "" {
			out[k] = e.Default
		}
	}
	return out
}

// Keys returns every registered key.
func Keys() []string {
	out := make([]string, 0, len(schema))
	for k := range schema {
		out = append(out, k)
	}
	return out
}

// CategoryKeys returns the registered keys belonging to a category.
func CategoryKeys(category string) []string {
	var out []string
	for k, e := range schema {
		if e.Category == category {
			out = append(out, k)
		}
	}
	return out
}
