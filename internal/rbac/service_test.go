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

package rbac_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/internal/audit"
	"github.com/crewdesk/crewdesk/internal/module"
	"github.com/crewdesk/crewdesk/internal/rbac"
)

// MockRoleRepository implements rbac.RoleRepository for testing
type MockRoleRepository struct {
	roles map[string]*rbac.Role
	inUse map[string]bool
}

func NewMockRoleRepository() *MockRoleRepository {
	return &MockRoleRepository{
		roles: map[string]*rbac.Role{
			rbac.RoleIDSuperadmin: {ID: rbac.RoleIDSuperadmin, Name: rbac.RoleSuperadmin, IsBuiltin: true},
			rbac.RoleIDAdmin:      {ID: rbac.RoleIDAdmin, Name: rbac.RoleAdmin, IsBuiltin: true},
			rbac.RoleIDEmployee:   {ID: rbac.RoleIDEmployee, Name: rbac.RoleEmployee, IsBuiltin: true},
		},
		inUse: map[string]bool{},
	}
}

func (m *MockRoleRepository) Create(ctx context.Context, role *rbac.Role) error {
	m.roles[role.ID] = role
	return nil
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id string) (*rbac.Role, error) {
	if r, ok := m.roles[id]; ok {
		return r, nil
	}
	return nil, rbac.ErrRoleNotFound
}

func (m *MockRoleRepository) GetByName(ctx context.Context, tenantID, name string) (*rbac.Role, error) {
	for _, r := range m.roles {
		if r.Name == name && (r.TenantID == "" || r.TenantID == tenantID) {
			return r, nil
		}
	}
	return nil, rbac.ErrRoleNotFound
}

func (m *MockRoleRepository) Rename(ctx context.Context, id, name string) error {
	if r, ok := m.roles[id]; ok {
		r.Name = name
		return nil
	}
	return rbac.ErrRoleNotFound
}

func (m *MockRoleRepository) Delete(ctx context.Context, id string) error {
	delete(m.roles, id)
	return nil
}

func (m *MockRoleRepository) List(ctx context.Context, tenantID string) ([]*rbac.Role, error) {
	var out []*rbac.Role
	for _, r := range m.roles {
		if r.TenantID == "" || r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRoleRepository) InUse(ctx context.Context, id string) (bool, error) {
	return m.inUse[id], nil
}

// MockGrantRepository implements rbac.GrantRepository for testing
type MockGrantRepository struct {
	grants   map[string]map[module.Module]rbac.Grant
	listHits int
}

func NewMockGrantRepository() *MockGrantRepository {
	return &MockGrantRepository{grants: map[string]map[module.Module]rbac.Grant{}}
}

func (m *MockGrantRepository) set(roleID string, g rbac.Grant) {
	if m.grants[roleID] == nil {
		m.grants[roleID] = map[module.Module]rbac.Grant{}
	}
	g.RoleID = roleID
	m.grants[roleID][g.Module] = g
}

func (m *MockGrantRepository) ListForRole(ctx context.Context, roleID string) ([]rbac.Grant, error) {
	m.listHits++
	var out []rbac.Grant
	for _, g := range m.grants[roleID] {
		out = append(out, g)
	}
	return out, nil
}

func (m *MockGrantRepository) Replace(ctx context.Context, roleID string, grants []rbac.Grant) error {
	for _, g := range grants {
		m.set(roleID, g)
	}
	return nil
}

func (m *MockGrantRepository) DeleteForRole(ctx context.Context, roleID string) error {
	delete(m.grants, roleID)
	return nil
}

type noopAudit struct{}

func (noopAudit) Log(ctx context.Context, event audit.Event) {}

func newTestService() (*rbac.Service, *MockRoleRepository, *MockGrantRepository) {
	roleRepo := NewMockRoleRepository()
	grantRepo := NewMockGrantRepository()
	return rbac.NewService(roleRepo, grantRepo, noopAudit{}), roleRepo, grantRepo
}

func employeeActor(tenantID string) rbac.Actor {
	return rbac.Actor{ID: "user-1", TenantID: tenantID, RoleID: rbac.RoleIDEmployee}
}

func adminActor(tenantID string) rbac.Actor {
	return rbac.Actor{ID: "admin-1", TenantID: tenantID, RoleID: rbac.RoleIDAdmin}
}

// TestPurpose: Validates the default-deny posture: a role with no grant row
// for a module is denied every action on it.
// Scope: Unit Test
// Security: Fail-closed authorization
// Expected: All four actions denied when no grant row exists.
// Test Case ID: RBC-01
func TestAuthorize_NoGrantRow_DefaultDeny(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for _, action := range []rbac.Action{rbac.ActionView, rbac.ActionAdd, rbac.ActionEdit, rbac.ActionDelete} {
		d, err := svc.Authorize(ctx, employeeActor("tenant-a"), "tenant-a", module.Proposals, action)
		require.NoError(t, err)
		assert.False(t, d.Allowed, "action %s must be denied without a grant row", action)
		assert.NotEmpty(t, d.Reason)
	}
}

// TestPurpose: Validates per-flag checks on a partial grant: view allowed,
// add denied for the same (role, module) row.
// Scope: Unit Test
// Expected: view allowed, add denied, each flag checked independently.
// Test Case ID: RBC-02
func TestAuthorize_PartialGrant_FlagsIndependent(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDEmployee, rbac.Grant{Module: module.Proposals, CanView: true})

	d, err := svc.Authorize(ctx, employeeActor("tenant-a"), "tenant-a", module.Proposals, rbac.ActionView)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = svc.Authorize(ctx, employeeActor("tenant-a"), "tenant-a", module.Proposals, rbac.ActionAdd)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

// TestPurpose: Validates that an unresolvable role claim produces a deny,
// never an error and never an allow.
// Scope: Unit Test
// Security: Fail-closed on stale or forged role references
// Expected: Decision denied with a reason, nil error.
// Test Case ID: RBC-03
func TestAuthorize_UnresolvableRole_FailsClosed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	actor := rbac.Actor{ID: "user-x", TenantID: "tenant-a", RoleID: "deleted-role-id"}
	d, err := svc.Authorize(ctx, actor, "tenant-a", module.Leads, rbac.ActionView)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "role cannot be resolved")
}

// TestPurpose: Validates that an admin of tenant A is denied in tenant B
// even when its role carries full grants.
// Scope: Unit Test
// Security: Horizontal privilege escalation prevention
// Expected: Cross-tenant request denied for non-superadmin roles.
// Test Case ID: RBC-04
func TestAuthorize_CrossTenant_DeniedForNonSuperadmin(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{
		Module: module.Settings, CanView: true, CanAdd: true, CanEdit: true, CanDelete: true,
	})

	d, err := svc.Authorize(ctx, adminActor("tenant-a"), "tenant-a", module.Settings, rbac.ActionEdit)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "admin must be allowed in its own tenant")

	d, err = svc.Authorize(ctx, adminActor("tenant-a"), "tenant-b", module.Settings, rbac.ActionEdit)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "admin must be denied in a foreign tenant")
}

// TestPurpose: Validates that the superadmin builtin may act across tenants.
// Scope: Unit Test
// Expected: Superadmin with grants is allowed in a tenant other than its own.
// Test Case ID: RBC-05
func TestAuthorize_CrossTenant_SuperadminAllowed(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDSuperadmin, rbac.Grant{
		Module: module.Settings, CanView: true, CanAdd: true, CanEdit: true, CanDelete: true,
	})

	actor := rbac.Actor{ID: "platform-op", TenantID: "", RoleID: rbac.RoleIDSuperadmin}
	d, err := svc.Authorize(ctx, actor, "tenant-b", module.Settings, rbac.ActionEdit)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

// TestPurpose: Validates that unknown modules, unknown actions, and empty
// tenant ids are all denied before any repository access.
// Scope: Unit Test
// Expected: Deny decision for each malformed input.
// Test Case ID: RBC-06
func TestAuthorize_MalformedInputs_Denied(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	actor := employeeActor("tenant-a")

	tests := []struct {
		name     string
		tenantID string
		mod      module.Module
		action   rbac.Action
	}{
		{"unknown module", "tenant-a", module.Module("payroll"), rbac.ActionView},
		{"unknown action", "tenant-a", module.Leads, rbac.Action("execute")},
		{"empty tenant", "", module.Leads, rbac.ActionView},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := svc.Authorize(ctx, actor, tt.tenantID, tt.mod, tt.action)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
		})
	}
}

// TestPurpose: Validates that SetPermissions requires settings/edit in the
// target tenant and rejects unknown or duplicated modules.
// Scope: Unit Test
// Security: Privilege escalation prevention on grant writes
// Test Case ID: RBC-07
func TestSetPermissions_GatingAndValidation(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	// Employee lacks settings/edit and must not write grants.
	err := svc.SetPermissions(ctx, employeeActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee, []rbac.Grant{
		{Module: module.Leads, CanView: true},
	})
	assert.ErrorIs(t, err, rbac.ErrDenied)

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{Module: module.Settings, CanEdit: true})

	err = svc.SetPermissions(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee, []rbac.Grant{
		{Module: module.Module("payroll"), CanView: true},
	})
	assert.ErrorIs(t, err, rbac.ErrInvalidModule)

	err = svc.SetPermissions(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee, []rbac.Grant{
		{Module: module.Leads, CanView: true},
		{Module: module.Leads, CanEdit: true},
	})
	assert.ErrorIs(t, err, rbac.ErrInvalidModule)

	err = svc.SetPermissions(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee, []rbac.Grant{
		{Module: module.Leads, CanView: true, CanAdd: true},
	})
	require.NoError(t, err)

	d, err := svc.Authorize(ctx, employeeActor("tenant-a"), "tenant-a", module.Leads, rbac.ActionAdd)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

// TestPurpose: Validates that a grant update takes effect immediately after
// SetPermissions despite the decision cache.
// Scope: Unit Test
// Expected: Pre-update deny, post-update allow, no stale cache reads.
// Test Case ID: RBC-08
func TestSetPermissions_InvalidatesCache(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{Module: module.Settings, CanEdit: true})

	// Prime the cache with a deny.
	d, err := svc.Authorize(ctx, employeeActor("tenant-a"), "tenant-a", module.Invoices, rbac.ActionView)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	err = svc.SetPermissions(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee, []rbac.Grant{
		{Module: module.Invoices, CanView: true},
	})
	require.NoError(t, err)

	d, err = svc.Authorize(ctx, employeeActor("tenant-a"), "tenant-a", module.Invoices, rbac.ActionView)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "cache must be invalidated after a grant write")
}

// TestPurpose: Validates that repeated checks for the same role are served
// from the cache instead of hitting storage each time.
// Scope: Unit Test
// Test Case ID: RBC-09
func TestAuthorize_GrantLookupsAreCached(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDEmployee, rbac.Grant{Module: module.Leads, CanView: true})

	for i := 0; i < 5; i++ {
		_, err := svc.Authorize(ctx, employeeActor("tenant-a"), "tenant-a", module.Leads, rbac.ActionView)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, grantRepo.listHits)
}

// TestPurpose: Validates the full-matrix rendering: one entry per module in
// the enumeration, with missing rows rendered all-false.
// Scope: Unit Test
// Test Case ID: RBC-10
func TestEffectiveGrants_FullMatrix(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{Module: module.Settings, CanView: true, CanEdit: true})
	grantRepo.set(rbac.RoleIDEmployee, rbac.Grant{Module: module.Leads, CanView: true})

	matrix, err := svc.EffectiveGrants(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee)
	require.NoError(t, err)
	require.Len(t, matrix, len(module.All))

	byModule := make(map[module.Module]rbac.Grant, len(matrix))
	for _, g := range matrix {
		byModule[g.Module] = g
	}
	assert.True(t, byModule[module.Leads].CanView)
	assert.False(t, byModule[module.Invoices].CanView)
	assert.False(t, byModule[module.Invoices].CanDelete)
}

func TestCreateRole_RejectsReservedAndDuplicateNames(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{Module: module.Settings, CanEdit: true})

	_, err := svc.CreateRole(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleAdmin)
	assert.ErrorIs(t, err, rbac.ErrRoleAlreadyExists)

	role, err := svc.CreateRole(ctx, adminActor("tenant-a"), "tenant-a", "contractor")
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", role.TenantID)
	assert.False(t, role.IsBuiltin)

	_, err = svc.CreateRole(ctx, adminActor("tenant-a"), "tenant-a", "contractor")
	assert.ErrorIs(t, err, rbac.ErrRoleAlreadyExists)
}

// TestPurpose: Validates built-in role protection: builtins cannot be
// renamed or deleted through any path.
// Scope: Unit Test
// Test Case ID: RBC-11
func TestBuiltinRoles_Immutable(t *testing.T) {
	svc, _, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{Module: module.Settings, CanEdit: true})

	err := svc.RenameRole(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee, "worker")
	assert.ErrorIs(t, err, rbac.ErrBuiltinRole)

	err = svc.DeleteRole(ctx, adminActor("tenant-a"), "tenant-a", rbac.RoleIDEmployee)
	assert.ErrorIs(t, err, rbac.ErrBuiltinRole)
}

func TestDeleteRole_RefusedWhileAssigned(t *testing.T) {
	svc, roleRepo, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{Module: module.Settings, CanEdit: true})

	role, err := svc.CreateRole(ctx, adminActor("tenant-a"), "tenant-a", "contractor")
	require.NoError(t, err)

	roleRepo.inUse[role.ID] = true
	err = svc.DeleteRole(ctx, adminActor("tenant-a"), "tenant-a", role.ID)
	assert.ErrorIs(t, err, rbac.ErrRoleInUse)

	roleRepo.inUse[role.ID] = false
	err = svc.DeleteRole(ctx, adminActor("tenant-a"), "tenant-a", role.ID)
	require.NoError(t, err)

	_, err = roleRepo.GetByID(ctx, role.ID)
	assert.True(t, errors.Is(err, rbac.ErrRoleNotFound))
}

// TestPurpose: Validates that a role belonging to another tenant is
// reported as not found rather than forbidden, leaking nothing about
// foreign tenants.
// Scope: Unit Test
// Security: Multi-tenancy data isolation
// Test Case ID: RBC-12
func TestRoleVisibility_ForeignTenantRoleHidden(t *testing.T) {
	svc, roleRepo, grantRepo := newTestService()
	ctx := context.Background()

	grantRepo.set(rbac.RoleIDAdmin, rbac.Grant{Module: module.Settings, CanView: true, CanEdit: true})
	roleRepo.roles["role-b"] = &rbac.Role{ID: "role-b", TenantID: "tenant-b", Name: "contractor"}

	_, err := svc.EffectiveGrants(ctx, adminActor("tenant-a"), "tenant-a", "role-b")
	assert.ErrorIs(t, err, rbac.ErrRoleNotFound)

	err = svc.DeleteRole(ctx, adminActor("tenant-a"), "tenant-a", "role-b")
	assert.ErrorIs(t, err, rbac.ErrRoleNotFound)
}
