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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crewdesk/crewdesk/internal/rbac"
)

// RoleRepository implements rbac.RoleRepository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create creates a new tenant-scoped role
func (r *RoleRepository) Create(ctx context.Context, role *rbac.Role) error {
	var tenantID sql.NullString
	if role.TenantID != "" {
		tenantID = sql.NullString{String: role.TenantID, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO roles (id, tenant_id, name, is_builtin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, role.ID, tenantID, role.Name, role.IsBuiltin, role.CreatedAt, role.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*rbac.Role, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, is_builtin, created_at, updated_at
		FROM roles
		WHERE id = $1
	`, id)
	return scanRole(row)
}

// GetByName retrieves a tenant's role or a global builtin by name
func (r *RoleRepository) GetByName(ctx context.Context, tenantID, name string) (*rbac.Role, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, is_builtin, created_at, updated_at
		FROM roles
		WHERE (tenant_id = $1 OR tenant_id IS NULL) AND name = $2
	`, tenantID, name)
	return scanRole(row)
}

// Rename updates a role's display name
func (r *RoleRepository) Rename(ctx context.Context, id, name string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles SET name = $2, updated_at = $3 WHERE id = $1
	`, id, name, time.Now())
	if err != nil {
		return fmt.Errorf("failed to rename role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return rbac.ErrRoleNotFound
	}
	return nil
}

// Delete removes a role
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return rbac.ErrRoleNotFound
	}
	return nil
}

// List retrieves a tenant's roles plus the global builtins
func (r *RoleRepository) List(ctx context.Context, tenantID string) ([]*rbac.Role, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, name, is_builtin, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1 OR tenant_id IS NULL
		ORDER BY is_builtin DESC, name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*rbac.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// InUse reports whether any active actor references the role
func (r *RoleRepository) InUse(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM actors WHERE role_id = $1 AND active
	`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count role references: %w", err)
	}
	return count > 0, nil
}

func scanRole(row pgx.Row) (*rbac.Role, error) {
	var role rbac.Role
	var tenantID sql.NullString
	if err := row.Scan(&role.ID, &tenantID, &role.Name, &role.IsBuiltin, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rbac.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to scan role: %w", err)
	}
	if tenantID.Valid {
		role.TenantID = tenantID.String
	}
	return &role, nil
}
