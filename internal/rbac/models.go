package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/crewdesk/crewdesk/internal/module"
)

// Domain errors
var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleAlreadyExists = errors.New("role already exists")
	ErrRoleInUse         = errors.New("role is assigned to one or more actors")
	ErrBuiltinRole       = errors.New("built-in roles cannot be modified or deleted")
	ErrInvalidModule     = errors.New("module is not part of the permission enumeration")
	ErrInvalidAction     = errors.New("invalid action")
	ErrDenied            = errors.New("access denied")
)

// Action is one of the four permission flags checked per module.
type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionAdd, ActionEdit, ActionDelete:
		return true
	}
	return false
}

// Actor is the verified principal attached to a request. The fields come
// from the token verifier and are treated as authoritative.
type Actor struct {
	ID       string
	TenantID string
	RoleID   string
}

// Role is a named permission holder. TenantID is empty for global
// built-in roles shared across tenants.
type Role struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Name      string    `json:"name"`
	IsBuiltin bool      `json:"is_builtin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grant is the stored flag set for one (role, module) pair. Exactly one
// row exists per pair; absence of a row means all-false.
type Grant struct {
	RoleID    string        `json:"role_id"`
	Module    module.Module `json:"module"`
	CanView   bool          `json:"can_view"`
	CanAdd    bool          `json:"can_add"`
	CanEdit   bool          `json:"can_edit"`
	CanDelete bool          `json:"can_delete"`
}

// Allows returns the flag for the requested action.
func (g Grant) Allows(a Action) bool {
	switch a {
	case ActionView:
		return g.CanView
	case ActionAdd:
		return g.CanAdd
	case ActionEdit:
		return g.CanEdit
	case ActionDelete:
		return g.CanDelete
	}
	return false
}

// Decision is the outcome of an authorization check. Reason is populated
// on deny so callers can render a specific message.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// RoleRepository defines the interface for role persistence.
type RoleRepository interface {
	// Create creates a new role scoped to a tenant.
	Create(ctx context.Context, role *Role) error

	// GetByID retrieves a role by ID.
	GetByID(ctx context.Context, id string) (*Role, error)

	// GetByName retrieves a tenant-scoped or built-in role by name.
	GetByName(ctx context.Context, tenantID, name string) (*Role, error)

	// Rename updates a role's display name.
	Rename(ctx context.Context, id, name string) error

	// Delete removes a role.
	Delete(ctx context.Context, id string) error

	// List retrieves the roles visible to a tenant: its own plus builtins.
	List(ctx context.Context, tenantID string) ([]*Role, error)

	// InUse reports whether any actor currently references the role.
	InUse(ctx context.Context, id string) (bool, error)
}

// GrantRepository defines the interface for permission grant persistence.
type GrantRepository interface {
	// ListForRole retrieves every grant row stored for a role.
	ListForRole(ctx context.Context, roleID string) ([]Grant, error)

	// Replace upserts the given grants atomically, one row per module.
	// Modules not listed keep their existing rows.
	Replace(ctx context.Context, roleID string, grants []Grant) error

	// DeleteForRole removes all grants of a role.
	DeleteForRole(ctx context.Context, roleID string) error
}
