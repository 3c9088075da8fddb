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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crewdesk/crewdesk/internal/settings"
)

// SettingsRepository implements settings.Repository
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// List retrieves all stored settings rows for a company
func (r *SettingsRepository) List(ctx context.Context, companyID string) ([]settings.Setting, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT company_id, setting_key, setting_value
		FROM settings
		WHERE company_id = $1
		ORDER BY setting_key
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var out []settings.Setting
	for rows.Next() {
		var s settings.Setting
		if err := rows.Scan(&s.CompanyID, &s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get retrieves a single stored row
func (r *SettingsRepository) Get(ctx context.Context, companyID, key string) (*settings.Setting, error) {
	var s settings.Setting
	err := r.db.pool.QueryRow(ctx, `
		SELECT company_id, setting_key, setting_value
		FROM settings
		WHERE company_id = $1 AND setting_key = $2
	`, companyID, key).Scan(&s.CompanyID, &s.Key, &s.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settings.ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &s, nil
}

// Upsert writes one key on the (company_id, setting_key) constraint
func (r *SettingsRepository) Upsert(ctx context.Context, companyID, key, value string) error {
	_, err := r.db.pool.Exec(ctx, upsertSettingSQL, companyID, key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// UpsertMany writes all pairs inside a single transaction
func (r *SettingsRepository) UpsertMany(ctx context.Context, companyID string, pairs map[string]string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, value := range pairs {
		if _, err := tx.Exec(ctx, upsertSettingSQL, companyID, key, value); err != nil {
			return fmt.Errorf("failed to upsert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// InsertMissing inserts pairs without an existing row, leaving stored
// values untouched
func (r *SettingsRepository) InsertMissing(ctx context.Context, companyID string, pairs map[string]string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, value := range pairs {
		_, err := tx.Exec(ctx, `
			INSERT INTO settings (company_id, setting_key, setting_value)
			VALUES ($1, $2, $3)
			ON CONFLICT (company_id, setting_key) DO NOTHING
		`, companyID, key, value)
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// ReplaceAll atomically deletes the company's settings and writes pairs
func (r *SettingsRepository) ReplaceAll(ctx context.Context, companyID string, pairs map[string]string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM settings WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	for key, value := range pairs {
		if _, err := tx.Exec(ctx, upsertSettingSQL, companyID, key, value); err != nil {
			return fmt.Errorf("failed to write setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

const upsertSettingSQL = `
	INSERT INTO settings (company_id, setting_key, setting_value)
	VALUES ($1, $2, $3)
	ON CONFLICT (company_id, setting_key) DO UPDATE SET
		setting_value = EXCLUDED.setting_value,
		updated_at = now()
`
