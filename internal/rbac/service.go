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

package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewdesk/crewdesk/internal/audit"
	"github.com/crewdesk/crewdesk/internal/id"
	"github.com/crewdesk/crewdesk/internal/module"
)

// Service provides the authorization decision procedure and the
// administrative mutations over roles and grants.
type Service struct {
	roleRepo    RoleRepository
	grantRepo   GrantRepository
	cache       *grantCache
	auditLogger audit.Logger
}

// NewService creates a new authorization service.
func NewService(roleRepo RoleRepository, grantRepo GrantRepository, auditLogger audit.Logger) *Service {
	return &Service{
		roleRepo:    roleRepo,
		grantRepo:   grantRepo,
		cache:       newGrantCache(),
		auditLogger: auditLogger,
	}
}

// Authorize decides whether actor may perform action on mod within tenantID.
//
// The check is a flat lookup: one grant row per (role, module), no
// inheritance, no wildcards. Absence of a row is a deny. An unresolvable
// role claim is a deny, not an error; only storage failures surface as
// errors.
func (s *Service) Authorize(ctx context.Context, actor Actor, tenantID string, mod module.Module, action Action) (Decision, error) {
	if !mod.Valid() {
		return deny(fmt.Sprintf("unknown module %q", mod)), nil
	}
	if !action.Valid() {
		return deny(fmt.Sprintf("unknown action %q", action)), nil
	}
	if tenantID == "" {
		return deny("no tenant context"), nil
	}

	role, err := s.roleRepo.GetByID(ctx, actor.RoleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			// Actor references a deleted or foreign role. Fail closed.
			return deny("role cannot be resolved"), nil
		}
		return Decision{}, fmt.Errorf("failed to resolve role: %w", err)
	}

	// A tenant-scoped role only carries authority inside its own tenant.
	if role.TenantID != "" && role.TenantID != actor.TenantID {
		return deny("role cannot be resolved"), nil
	}

	// Cross-tenant requests are reserved for the superadmin builtin.
	if actor.TenantID != tenantID && !(role.IsBuiltin && role.Name == RoleSuperadmin) {
		s.auditDenied(ctx, actor, tenantID, mod, action, "cross-tenant access")
		return deny(fmt.Sprintf("cross-tenant access to %s denied", mod)), nil
	}

	grants, err := s.grantsForRole(ctx, tenantID, role.ID)
	if err != nil {
		return Decision{}, err
	}

	g, ok := grants[mod]
	if !ok {
		s.auditDenied(ctx, actor, tenantID, mod, action, "no grant")
		return deny(fmt.Sprintf("role %q has no permissions on %s", role.Name, mod)), nil
	}
	if !g.Allows(action) {
		s.auditDenied(ctx, actor, tenantID, mod, action, "action not granted")
		return deny(fmt.Sprintf("role %q may not %s %s", role.Name, action, mod)), nil
	}

	return allow(), nil
}

// SetPermissions replaces the grant set of a role for the listed modules.
// Each listed module is fully overwritten (upsert, never a flag merge);
// unlisted modules are untouched. The caller must hold settings/edit in
// the tenant, which prevents privilege escalation by non-admins.
func (s *Service) SetPermissions(ctx context.Context, caller Actor, tenantID, roleID string, grants []Grant) error {
	decision, err := s.Authorize(ctx, caller, tenantID, module.Settings, ActionEdit)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrDenied, decision.Reason)
	}

	seen := make(map[module.Module]struct{}, len(grants))
	for _, g := range grants {
		if !g.Module.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidModule, g.Module)
		}
		if _, dup := seen[g.Module]; dup {
			return fmt.Errorf("%w: module %q listed twice", ErrInvalidModule, g.Module)
		}
		seen[g.Module] = struct{}{}
	}

	role, err := s.visibleRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	for i := range grants {
		grants[i].RoleID = role.ID
	}
	if err := s.grantRepo.Replace(ctx, role.ID, grants); err != nil {
		return fmt.Errorf("failed to replace grants: %w", err)
	}
	s.cache.invalidate(tenantID, role.ID)

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePermissionUpdated,
		TenantID: tenantID,
		ActorID:  caller.ID,
		Resource: role.Name,
		Metadata: map[string]any{"modules": len(grants)},
	})
	return nil
}

// EffectiveGrants returns the full permission matrix for a role: one entry
// per module in the closed enumeration, absent rows rendered as all-false.
func (s *Service) EffectiveGrants(ctx context.Context, caller Actor, tenantID, roleID string) ([]Grant, error) {
	decision, err := s.Authorize(ctx, caller, tenantID, module.Settings, ActionView)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrDenied, decision.Reason)
	}

	role, err := s.visibleRole(ctx, tenantID, roleID)
	if err != nil {
		return nil, err
	}

	stored, err := s.grantsForRole(ctx, tenantID, role.ID)
	if err != nil {
		return nil, err
	}

	matrix := make([]Grant, 0, len(module.All))
	for _, mod := range module.All {
		if g, ok := stored[mod]; ok {
			matrix = append(matrix, g)
			continue
		}
		matrix = append(matrix, Grant{RoleID: role.ID, Module: mod})
	}
	return matrix, nil
}

// CreateRole creates a custom tenant-scoped role.
func (s *Service) CreateRole(ctx context.Context, caller Actor, tenantID, name string) (*Role, error) {
	decision, err := s.Authorize(ctx, caller, tenantID, module.Settings, ActionEdit)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrDenied, decision.Reason)
	}

	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}
	if IsBuiltinRoleName(name) {
		return nil, fmt.Errorf("%w: %q is a reserved name", ErrRoleAlreadyExists, name)
	}
	if _, err := s.roleRepo.GetByName(ctx, tenantID, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrRoleAlreadyExists, name)
	} else if !errors.Is(err, ErrRoleNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	now := time.Now()
	role := &Role{
		ID:        id.NewUUIDv7(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleCreated,
		TenantID: tenantID,
		ActorID:  caller.ID,
		Resource: name,
	})
	return role, nil
}

// RenameRole changes a custom role's label. Built-in names are immutable.
func (s *Service) RenameRole(ctx context.Context, caller Actor, tenantID, roleID, name string) error {
	decision, err := s.Authorize(ctx, caller, tenantID, module.Settings, ActionEdit)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrDenied, decision.Reason)
	}

	role, err := s.visibleRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if role.IsBuiltin {
		return ErrBuiltinRole
	}
	if name == "" {
		return fmt.Errorf("role name is required")
	}
	if IsBuiltinRoleName(name) {
		return fmt.Errorf("%w: %q is a reserved name", ErrRoleAlreadyExists, name)
	}

	if err := s.roleRepo.Rename(ctx, role.ID, name); err != nil {
		return fmt.Errorf("failed to rename role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleRenamed,
		TenantID: tenantID,
		ActorID:  caller.ID,
		Resource: name,
		Metadata: map[string]any{"previous_name": role.Name},
	})
	return nil
}

// DeleteRole removes a custom role. Built-ins and roles still referenced
// by actors are refused.
func (s *Service) DeleteRole(ctx context.Context, caller Actor, tenantID, roleID string) error {
	decision, err := s.Authorize(ctx, caller, tenantID, module.Settings, ActionEdit)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrDenied, decision.Reason)
	}

	role, err := s.visibleRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if role.IsBuiltin {
		return ErrBuiltinRole
	}

	inUse, err := s.roleRepo.InUse(ctx, role.ID)
	if err != nil {
		return fmt.Errorf("failed to check role references: %w", err)
	}
	if inUse {
		return ErrRoleInUse
	}

	if err := s.grantRepo.DeleteForRole(ctx, role.ID); err != nil {
		return fmt.Errorf("failed to delete role grants: %w", err)
	}
	if err := s.roleRepo.Delete(ctx, role.ID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.cache.invalidate(tenantID, role.ID)

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleDeleted,
		TenantID: tenantID,
		ActorID:  caller.ID,
		Resource: role.Name,
	})
	return nil
}

// ListRoles returns the roles visible to a tenant: builtins plus its own.
func (s *Service) ListRoles(ctx context.Context, caller Actor, tenantID string) ([]*Role, error) {
	decision, err := s.Authorize(ctx, caller, tenantID, module.Settings, ActionView)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrDenied, decision.Reason)
	}
	return s.roleRepo.List(ctx, tenantID)
}

// visibleRole resolves roleID and verifies it is a builtin or belongs to
// tenantID. Foreign roles are reported as not found rather than forbidden.
func (s *Service) visibleRole(ctx context.Context, tenantID, roleID string) (*Role, error) {
	role, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if role.TenantID != "" && role.TenantID != tenantID {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

func (s *Service) grantsForRole(ctx context.Context, tenantID, roleID string) (map[module.Module]Grant, error) {
	if cached, ok := s.cache.get(tenantID, roleID); ok {
		return cached, nil
	}

	rows, err := s.grantRepo.ListForRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}
	grants := make(map[module.Module]Grant, len(rows))
	for _, g := range rows {
		grants[g.Module] = g
	}
	s.cache.put(tenantID, roleID, grants)
	return grants, nil
}

func (s *Service) auditDenied(ctx context.Context, actor Actor, tenantID string, mod module.Module, action Action, why string) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAccessDenied,
		TenantID: tenantID,
		ActorID:  actor.ID,
		Resource: string(mod) + ":" + string(action),
		Metadata: map[string]any{"reason": why},
	})
}
