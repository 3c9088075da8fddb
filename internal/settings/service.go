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
	"context"
	"fmt"

	"github.com/crewdesk/crewdesk/internal/audit"
	"github.com/crewdesk/crewdesk/internal/tenantguard"
)

// Service provides the settings lifecycle over a durable store. All
// writes validate against the schema registry first; storage failures
// surface to the caller without retries.
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new settings service.
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// Initialize seeds schema defaults for a tenant. Existing rows are never
// overwritten, so calling it on an already-configured tenant is a no-op
// for every customized key.
func (s *Service) Initialize(ctx context.Context, companyID string) error {
	if companyID == "" {
		return tenantguard.ErrTenantRequired
	}
	if err := s.repo.InsertMissing(ctx, companyID, Defaults()); err != nil {
		return fmt.Errorf("failed to seed default settings: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSettingsInitialized,
		TenantID: companyID,
	})
	return nil
}

// Get returns all stored settings rows for a tenant.
func (s *Service) Get(ctx context.Context, companyID string) ([]Setting, error) {
	if companyID == "" {
		return nil, tenantguard.ErrTenantRequired
	}
	return s.repo.List(ctx, companyID)
}

// GetByCategory returns the tenant's stored rows whose keys belong to a
// schema category. Unknown keys have no category and are never included.
func (s *Service) GetByCategory(ctx context.Context, companyID, category string) ([]Setting, error) {
	if companyID == "" {
		return nil, tenantguard.ErrTenantRequired
	}
	rows, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var out []Setting
	for _, row := range rows {
		if entry, ok := Lookup(row.Key); ok && entry.Category == category {
			out = append(out, row)
		}
	}
	return out, nil
}

// GetSingle returns one setting value, falling back to the schema
// default when the tenant has no stored row for the key.
func (s *Service) GetSingle(ctx context.Context, companyID, key string) (*Setting, error) {
	if companyID == "" {
		return nil, tenantguard.ErrTenantRequired
	}
	row, err := s.repo.Get(ctx, companyID, key)
	if err == nil {
		return row, nil
	}
	if entry, ok := Lookup(key); ok && entry.Default != "" {
		return &Setting{CompanyID: companyID, Key: key, Value: entry.Default}, nil
	}
	return nil, err
}

// Update validates and writes a single setting. Nothing persists on a
// validation failure.
func (s *Service) Update(ctx context.Context, companyID, key, value string) error {
	if companyID == "" {
		return tenantguard.ErrTenantRequired
	}
	if key == "" {
		return &ValidationError{Reasons: []string{"setting key is required"}}
	}
	if reasons := Validate(key, value); len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	if err := s.repo.Upsert(ctx, companyID, key, Sanitize(key, value)); err != nil {
		return fmt.Errorf("failed to store setting: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSettingsUpdated,
		TenantID: companyID,
		Resource: key,
	})
	return nil
}

// BulkUpdate validates every entry first and reports all failures
// together; if any entry fails, no key is written. On success all pairs
// are upserted in one transaction.
func (s *Service) BulkUpdate(ctx context.Context, companyID string, entries []Setting) error {
	if companyID == "" {
		return tenantguard.ErrTenantRequired
	}
	if reasons := ValidateAll(entries); len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	pairs := make(map[string]string, len(entries))
	for _, e := range entries {
		pairs[e.Key] = Sanitize(e.Key, e.Value)
	}
	if err := s.repo.UpsertMany(ctx, companyID, pairs); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSettingsUpdated,
		TenantID: companyID,
		Metadata: map[string]any{"updated": len(pairs)},
	})
	return nil
}

// Reset replaces all of a tenant's settings with the schema defaults.
// Destructive; confirmation is the caller's responsibility.
func (s *Service) Reset(ctx context.Context, companyID string) error {
	if companyID == "" {
		return tenantguard.ErrTenantRequired
	}
	if err := s.repo.ReplaceAll(ctx, companyID, Defaults()); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSettingsReset,
		TenantID: companyID,
	})
	return nil
}

// Export serializes the tenant's current settings as a flat key→value map.
func (s *Service) Export(ctx context.Context, companyID string) (map[string]string, error) {
	if companyID == "" {
		return nil, tenantguard.ErrTenantRequired
	}
	rows, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Import validates each supplied pair through the same engine and
// upserts the valid ones. Partial success is the documented contract:
// invalid keys are reported per key and do not block valid ones.
func (s *Service) Import(ctx context.Context, companyID string, pairs map[string]string) (*ImportResult, error) {
	if companyID == "" {
		return nil, tenantguard.ErrTenantRequired
	}

	result := &ImportResult{Failed: make(map[string][]string)}
	valid := make(map[string]string, len(pairs))
	for key, value := range pairs {
		if key == "" {
			result.Failed[""] = []string{"setting key is required"}
			continue
		}
		if reasons := Validate(key, value); len(reasons) > 0 {
			result.Failed[key] = reasons
			continue
		}
		valid[key] = Sanitize(key, value)
	}

	if len(valid) > 0 {
		if err := s.repo.UpsertMany(ctx, companyID, valid); err != nil {
			return nil, fmt.Errorf("failed to import settings: %w", err)
		}
		result.Applied = len(valid)
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSettingsImported,
		TenantID: companyID,
		Metadata: map[string]any{"applied": result.Applied, "rejected": len(result.Failed)},
	})
	return result, nil
}
