package settings

import (
	"context"
	"errors"
)

var (
	// ErrSettingNotFound means the key has neither a stored row nor a
	// schema default for the tenant.
	ErrSettingNotFound = errors.New("setting not found")
)

// Setting is one (company, key, value) row. Values are stored as their
// string encoding regardless of logical type.
type Setting struct {
	CompanyID string `json:"company_id,omitempty"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// ImportResult reports the per-key outcome of a bulk import. Import is
// the one path where partial success is the documented contract: valid
// keys persist, invalid keys are reported individually.
type ImportResult struct {
	Applied int                 `json:"applied"`
	Failed  map[string][]string `json:"failed,omitempty"`
}

// PartialFailure reports whether some keys were rejected.
func (r *ImportResult) PartialFailure() bool {
	return len(r.Failed) > 0
}

// Repository defines the interface for settings persistence. Every
// method takes a mandatory company id; there is no overload that omits
// it.
type Repository interface {
	// List retrieves all stored settings rows for a company.
	List(ctx context.Context, companyID string) ([]Setting, error)

	// Get retrieves a single stored row, or ErrSettingNotFound.
	Get(ctx context.Context, companyID, key string) (*Setting, error)

	// Upsert writes one key, inserting or updating on the
	// (company_id, setting_key) uniqueness constraint.
	Upsert(ctx context.Context, companyID, key, value string) error

	// UpsertMany writes all pairs inside a single transaction.
	UpsertMany(ctx context.Context, companyID string, pairs map[string]string) error

	// InsertMissing inserts pairs that have no existing row, leaving
	// stored values untouched.
	InsertMissing(ctx context.Context, companyID string, pairs map[string]string) error

	// ReplaceAll atomically deletes the company's settings and writes
	// the given pairs.
	ReplaceAll(ctx context.Context, companyID string, pairs map[string]string) error
}
