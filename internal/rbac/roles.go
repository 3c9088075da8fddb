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

// -----------------------------------------------------------------------------
// Built-in Role Names
// These names are reserved across every tenant and cannot be deleted or
// renamed. Custom roles are tenant-scoped and must not collide with them.
// -----------------------------------------------------------------------------

const (
	// RoleAdmin has full access to every module within its tenant.
	RoleAdmin = "admin"

	// RoleManager has elevated access within its tenant.
	RoleManager = "manager"

	// RoleEmployee is the default staff role.
	RoleEmployee = "employee"

	// RoleClient is the restricted external-party role.
	RoleClient = "client"

	// RoleSuperadmin is the only role permitted to act across tenants.
	// It exists for platform operations (aggregate views, provisioning)
	// and is never assignable through the tenant-facing API.
	RoleSuperadmin = "superadmin"
)

// System-defined Role IDs seeded by the initial schema migration
// (001_initial_schema.up.sql). These UUIDs must remain stable.
// DO NOT modify these values without a corresponding data migration plan.
const (
	RoleIDSuperadmin = "20000000-0000-0000-0000-000000000001"
	RoleIDAdmin      = "20000000-0000-0000-0000-000000000002"
	RoleIDManager    = "20000000-0000-0000-0000-000000000003"
	RoleIDEmployee   = "20000000-0000-0000-0000-000000000004"
	RoleIDClient     = "20000000-0000-0000-0000-000000000005"
)

// BuiltinRoleNames lists the reserved role names.
var BuiltinRoleNames = []string{
	RoleAdmin, RoleManager, RoleEmployee, RoleClient, RoleSuperadmin,
}

// IsBuiltinRoleName reports whether name is reserved.
func IsBuiltinRoleName(name string) bool {
	for _, n := range BuiltinRoleNames {
		if n == name {
			return true
		}
	}
	return false
}
