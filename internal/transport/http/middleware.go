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
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/crewdesk/crewdesk/internal/module"
	"github.com/crewdesk/crewdesk/internal/observability/logger"
	"github.com/crewdesk/crewdesk/internal/rbac"
	"github.com/crewdesk/crewdesk/internal/tenantguard"
)

// Tenant Context Principles:
// 1. The token claim is the authoritative tenant for a request
// 2. A client-supplied X-Company-ID never overrides the claim unless the
//    caller is the cross-tenant superadmin builtin
// 3. No magic fallback tenants outside the flagged development default

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware verifies the bearer credential and resolves the tenant
// context. Requests without a resolvable tenant never reach a handler.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims, err := h.verifier.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired credential")
			return
		}
		actor := claims.Actor()

		// Only the superadmin builtin may address a tenant other than
		// its own via the X-Company-ID header.
		crossTenant := actor.RoleID == rbac.RoleIDSuperadmin
		tenantID, err := h.guard.Resolve(actor.TenantID, r.Header.Get("X-Company-ID"), crossTenant)
		if err != nil {
			if errors.Is(err, tenantguard.ErrCrossTenantForbidden) {
				slog.WarnContext(r.Context(), "tenant override rejected",
					logger.ActorID(actor.ID),
					logger.TenantID(actor.TenantID),
				)
				respondError(w, http.StatusForbidden, "cross-tenant access is not permitted for this role")
				return
			}
			respondError(w, http.StatusBadRequest, "tenant identifier is required")
			return
		}

		ctx := WithActor(r.Context(), actor)
		ctx = tenantguard.WithTenant(ctx, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on one (module, action) pair. The
// check is the flat grant lookup; absence of a grant row is a deny.
func (h *Handler) RequirePermission(mod module.Module, action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			tenantID, err := tenantguard.Require(r.Context())
			if err != nil {
				respondError(w, http.StatusBadRequest, "tenant identifier is required")
				return
			}

			decision, err := h.rbacService.Authorize(r.Context(), actor, tenantID, mod, action)
			if err != nil {
				slog.ErrorContext(r.Context(), "authorization check failed", logger.Error(err))
				respondError(w, http.StatusInternalServerError, "authorization check failed")
				return
			}
			h.recordDecision(r, mod, action, decision.Allowed)
			if !decision.Allowed {
				respondJSON(w, http.StatusForbidden, map[string]string{
					"error":  decision.Reason,
					"module": string(mod),
					"action": string(action),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) recordDecision(r *http.Request, mod module.Module, action rbac.Action, allowed bool) {
	if h.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("module", string(mod)),
		attribute.String("action", string(action)),
	)
	h.metrics.AuthzDecisions.Add(r.Context(), 1, attrs)
	if !allowed {
		h.metrics.AuthzDenials.Add(r.Context(), 1, attrs)
	}
}
