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

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/crewdesk/crewdesk/internal/settings"
	"github.com/crewdesk/crewdesk/internal/tenantguard"
)

// GetSettings returns all stored settings rows for the request tenant
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	rows, err := h.settingsService.Get(r.Context(), tenantID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": settingsPayload(rows)})
}

// GetSettingsByCategory returns the tenant's settings for one schema category
func (h *Handler) GetSettingsByCategory(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	category := chi.URLParam(r, "category")
	rows, err := h.settingsService.GetByCategory(r.Context(), tenantID, category)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"settings": settingsPayload(rows),
	})
}

// GetSetting returns one setting, falling back to the schema default
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	row, err := h.settingsService.GetSingle(r.Context(), tenantID, key)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"key":   row.Key,
		"value": row.Value,
	})
}

// UpdateSettingRequest represents a single value write
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// UpdateSetting validates and writes a single setting
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	var req UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.settingsService.Update(r.Context(), tenantID, key, req.Value); err != nil {
		h.recordValidationFailure(r, err)
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "setting updated successfully",
	})
}

// BulkUpdateSettings writes multiple settings atomically. A single
// invalid value rejects the whole batch with every failure reported.
func (h *Handler) BulkUpdateSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req) == 0 {
		respondError(w, http.StatusBadRequest, "no settings supplied")
		return
	}

	entries := make([]settings.Setting, 0, len(req))
	for key, value := range req {
		entries = append(entries, settings.Setting{Key: key, Value: value})
	}

	if err := h.settingsService.BulkUpdate(r.Context(), tenantID, entries); err != nil {
		h.recordValidationFailure(r, err)
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "settings updated successfully",
		"updated": len(entries),
	})
}

// ResetSettings replaces the tenant's settings with schema defaults
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	if err := h.settingsService.Reset(r.Context(), tenantID); err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "settings reset to defaults",
	})
}

// ExportSettings serializes the tenant's settings as a flat map
func (h *Handler) ExportSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	out, err := h.settingsService.Export(r.Context(), tenantID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": out})
}

// ImportSettings applies a flat map of settings with per-key validation.
// Valid keys are written even when others fail; the response lists both.
func (h *Handler) ImportSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	var pairs map[string]string
	if err := json.NewDecoder(r.Body).Decode(&pairs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(pairs) == 0 {
		respondError(w, http.StatusBadRequest, "no settings supplied")
		return
	}

	result, err := h.settingsService.Import(r.Context(), tenantID, pairs)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.PartialFailure() {
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, map[string]any{
		"applied": result.Applied,
		"failed":  result.Failed,
	})
}

// InitializeSettings seeds schema defaults without touching stored rows
func (h *Handler) InitializeSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.settingsScope(w, r)
	if !ok {
		return
	}

	if err := h.settingsService.Initialize(r.Context(), tenantID); err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "settings initialized",
	})
}

func (h *Handler) settingsScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, err := tenantguard.Require(r.Context())
	if err != nil {
		respondError(w, http.StatusBadRequest, "tenant identifier is required")
		return "", false
	}
	return tenantID, true
}

func (h *Handler) recordValidationFailure(r *http.Request, err error) {
	if h.metrics == nil {
		return
	}
	var validationErr *settings.ValidationError
	if !errors.As(err, &validationErr) {
		return
	}
	h.metrics.ValidationFailures.Add(r.Context(), int64(len(validationErr.Reasons)),
		metric.WithAttributes(attribute.String("path", r.URL.Path)))
}

func settingsPayload(rows []settings.Setting) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]string{
			"key":   row.Key,
			"value": row.Value,
		})
	}
	return out
}
