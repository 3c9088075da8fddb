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

// Package tenantguard enforces the core correctness property of the
// system: no tenant-scoped operation executes without a tenant
// identifier. Every data-access path takes a mandatory tenant parameter;
// this package owns how that parameter is resolved from a request.
//
// Resolution rules:
//   - The authenticated actor's token claim is authoritative.
//   - An explicit client-supplied tenant id never overrides the claim
//     unless the caller is a cross-tenant administrative role.
//   - If no tenant can be resolved the operation fails with
//     ErrTenantRequired before any data access; there is no silent
//     fallback outside the explicitly flagged development default.
package tenantguard

import (
	"context"
	"errors"
)

var (
	// ErrTenantRequired means no tenant could be resolved for an
	// operation that must be tenant-scoped. Always fatal.
	ErrTenantRequired = errors.New("tenant identifier is required")

	// ErrCrossTenantForbidden means a non-privileged caller supplied a
	// tenant id differing from its own token claim.
	ErrCrossTenantForbidden = errors.New("cross-tenant access is not permitted for this role")
)

type contextKey string

const tenantKey contextKey = "tenant_id"

// WithTenant returns a context carrying the resolved tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// FromContext retrieves the resolved tenant id, if any.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tenantKey).(string)
	return v, ok && v != ""
}

// Require returns the tenant id from the context or ErrTenantRequired.
func Require(ctx context.Context) (string, error) {
	if id, ok := FromContext(ctx); ok {
		return id, nil
	}
	return "", ErrTenantRequired
}

// Guard resolves tenant identifiers from request hints.
type Guard struct {
	// devDefault is returned when nothing else resolves. It exists for
	// local testing only and must stay empty in production deployments;
	// config refuses to set it when the environment is "production".
	devDefault string
}

// New creates a guard. devDefault should be empty outside local testing.
func New(devDefault string) *Guard {
	return &Guard{devDefault: devDefault}
}

// Resolve picks the effective tenant for a request.
//
// claimTenant comes from the verified token; explicit is a client-supplied
// override (header or parameter); crossTenant reports whether the caller
// has already been authorized for cross-tenant administration.
func (g *Guard) Resolve(claimTenant, explicit string, crossTenant bool) (string, error) {
	if claimTenant != "" {
		if explicit != "" && explicit != claimTenant {
			if !crossTenant {
				return "", ErrCrossTenantForbidden
			}
			return explicit, nil
		}
		return claimTenant, nil
	}

	// Cross-tenant callers may carry no tenant of their own.
	if explicit != "" && crossTenant {
		return explicit, nil
	}

	if g.devDefault != "" {
		return g.devDefault, nil
	}
	return "", ErrTenantRequired
}
