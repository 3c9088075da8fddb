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
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewdesk/crewdesk/internal/module"
	"github.com/crewdesk/crewdesk/internal/rbac"
	"github.com/crewdesk/crewdesk/internal/tenantguard"
)

// ListRoles returns the roles visible to the request tenant
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	actor, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	roles, err := h.rbacService.ListRoles(r.Context(), actor, tenantID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse(role))
	}
	respondJSON(w, http.StatusOK, map[string]any{"roles": out})
}

// CreateRoleRequest represents role creation data
type CreateRoleRequest struct {
	Name string `json:"name"`
}

// CreateRole creates a custom tenant-scoped role
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actor, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "role name is required")
		return
	}

	role, err := h.rbacService.CreateRole(r.Context(), actor, tenantID, req.Name)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, roleResponse(role))
}

// RenameRoleRequest represents role rename data
type RenameRoleRequest struct {
	Name string `json:"name"`
}

// RenameRole changes a custom role's label
func (h *Handler) RenameRole(w http.ResponseWriter, r *http.Request) {
	actor, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req RenameRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "role name is required")
		return
	}

	roleID := chi.URLParam(r, "roleID")
	if err := h.rbacService.RenameRole(r.Context(), actor, tenantID, roleID, req.Name); err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "role renamed successfully",
	})
}

// DeleteRole removes a custom role
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	actor, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	roleID := chi.URLParam(r, "roleID")
	if err := h.rbacService.DeleteRole(r.Context(), actor, tenantID, roleID); err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "role deleted successfully",
	})
}

// GetPermissions returns the full permission matrix for a role, one
// entry per known module with absent grants rendered all-false
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	actor, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	roleID := chi.URLParam(r, "roleID")
	grants, err := h.rbacService.EffectiveGrants(r.Context(), actor, tenantID, roleID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]GrantPayload, 0, len(grants))
	for _, g := range grants {
		out = append(out, GrantPayload{
			Module:    string(g.Module),
			CanView:   g.CanView,
			CanAdd:    g.CanAdd,
			CanEdit:   g.CanEdit,
			CanDelete: g.CanDelete,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"role_id":     roleID,
		"permissions": out,
	})
}

// GrantPayload is the wire shape of one module's permission flags
type GrantPayload struct {
	Module    string `json:"module"`
	CanView   bool   `json:"can_view"`
	CanAdd    bool   `json:"can_add"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
}

// SetPermissionsRequest represents a grant replacement
type SetPermissionsRequest struct {
	Permissions []GrantPayload `json:"permissions"`
}

// SetPermissions replaces the grants of a role for the listed modules
func (h *Handler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	actor, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req SetPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Permissions) == 0 {
		respondError(w, http.StatusBadRequest, "permissions list is required")
		return
	}

	grants := make([]rbac.Grant, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		grants = append(grants, rbac.Grant{
			Module:    module.Module(p.Module),
			CanView:   p.CanView,
			CanAdd:    p.CanAdd,
			CanEdit:   p.CanEdit,
			CanDelete: p.CanDelete,
		})
	}

	roleID := chi.URLParam(r, "roleID")
	if err := h.rbacService.SetPermissions(r.Context(), actor, tenantID, roleID, grants); err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "permissions updated successfully",
	})
}

// requestScope pulls the verified actor and resolved tenant out of the
// request context. Both are set by AuthMiddleware; missing values mean
// the route was wired outside the authenticated group.
func (h *Handler) requestScope(w http.ResponseWriter, r *http.Request) (rbac.Actor, string, bool) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return rbac.Actor{}, "", false
	}
	tenantID, err := tenantguard.Require(r.Context())
	if err != nil {
		respondError(w, http.StatusBadRequest, "tenant identifier is required")
		return rbac.Actor{}, "", false
	}
	return actor, tenantID, true
}

func roleResponse(role *rbac.Role) map[string]any {
	return map[string]any{
		"id":         role.ID,
		"name":       role.Name,
		"is_builtin": role.IsBuiltin,
		"created_at": role.CreatedAt,
		"updated_at": role.UpdatedAt,
	}
}
