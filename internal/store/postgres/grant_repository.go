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
	"fmt"

	"github.com/crewdesk/crewdesk/internal/rbac"
)

// GrantRepository implements rbac.GrantRepository
type GrantRepository struct {
	db *DB
}

// NewGrantRepository creates a new permission grant repository
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// ListForRole retrieves every grant row stored for a role
func (r *GrantRepository) ListForRole(ctx context.Context, roleID string) ([]rbac.Grant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT role_id, module, can_view, can_add, can_edit, can_delete
		FROM permissions
		WHERE role_id = $1
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []rbac.Grant
	for rows.Next() {
		var g rbac.Grant
		if err := rows.Scan(&g.RoleID, &g.Module, &g.CanView, &g.CanAdd, &g.CanEdit, &g.CanDelete); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// Replace upserts the given grants inside a single transaction so that
// concurrent readers never observe a partially applied matrix. Each
// listed module is fully overwritten on the (role_id, module) unique
// constraint; unlisted modules keep their rows.
func (r *GrantRepository) Replace(ctx context.Context, roleID string, grants []rbac.Grant) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, g := range grants {
		_, err := tx.Exec(ctx, `
			INSERT INTO permissions (role_id, module, can_view, can_add, can_edit, can_delete)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (role_id, module) DO UPDATE SET
				can_view = EXCLUDED.can_view,
				can_add = EXCLUDED.can_add,
				can_edit = EXCLUDED.can_edit,
				can_delete = EXCLUDED.can_delete
		`, roleID, g.Module, g.CanView, g.CanAdd, g.CanEdit, g.CanDelete)
		if err != nil {
			return fmt.Errorf("failed to upsert grant for %s: %w", g.Module, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit grants: %w", err)
	}
	return nil
}

// DeleteForRole removes all grants of a role
func (r *GrantRepository) DeleteForRole(ctx context.Context, roleID string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("failed to delete grants: %w", err)
	}
	return nil
}
