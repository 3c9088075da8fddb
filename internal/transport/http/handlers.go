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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/crewdesk/crewdesk/internal/audit"
	"github.com/crewdesk/crewdesk/internal/identity"
	"github.com/crewdesk/crewdesk/internal/module"
	"github.com/crewdesk/crewdesk/internal/observability/logger"
	"github.com/crewdesk/crewdesk/internal/observability/metrics"
	"github.com/crewdesk/crewdesk/internal/rbac"
	"github.com/crewdesk/crewdesk/internal/settings"
	"github.com/crewdesk/crewdesk/internal/tenantguard"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	rbacService     *rbac.Service
	settingsService *settings.Service
	verifier        *identity.Verifier
	guard           *tenantguard.Guard
	auditLogger     audit.Logger
	metrics         *metrics.Core
}

// NewHandler creates a new HTTP handler
func NewHandler(
	rbacService *rbac.Service,
	settingsService *settings.Service,
	verifier *identity.Verifier,
	guard *tenantguard.Guard,
	auditLogger audit.Logger,
	core *metrics.Core,
) *Handler {
	return &Handler{
		rbacService:     rbacService,
		settingsService: settingsService,
		verifier:        verifier,
		guard:           guard,
		auditLogger:     auditLogger,
		metrics:         core,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes. Every endpoint below is tenant-scoped and fail-closed:
	// no verified credential plus resolvable tenant, no handler.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		// Role and permission administration
		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.CreateRole)
			r.Route("/{roleID}", func(r chi.Router) {
				r.Patch("/", h.RenameRole)
				r.Delete("/", h.DeleteRole)
				r.Get("/permissions", h.GetPermissions)
				r.Put("/permissions", h.SetPermissions)
			})
		})

		// Company settings
		r.Route("/settings", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.RequirePermission(module.Settings, rbac.ActionView))
				r.Get("/", h.GetSettings)
				r.Get("/export", h.ExportSettings)
				r.Get("/category/{category}", h.GetSettingsByCategory)
				r.Get("/{key}", h.GetSetting)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.RequirePermission(module.Settings, rbac.ActionEdit))
				r.Put("/", h.BulkUpdateSettings)
				r.Post("/reset", h.ResetSettings)
				r.Post("/import", h.ImportSettings)
				r.Post("/initialize", h.InitializeSettings)
				r.Put("/{key}", h.UpdateSetting)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "crewdesk",
	})
}

// respondDomainError maps service-layer errors onto HTTP statuses.
// Unknown errors are logged and returned opaque.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *settings.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "validation failed",
			"reasons": validationErr.Reasons,
		})
	case errors.Is(err, rbac.ErrDenied):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, tenantguard.ErrCrossTenantForbidden):
		respondError(w, http.StatusForbidden, "cross-tenant access is not permitted for this role")
	case errors.Is(err, tenantguard.ErrTenantRequired):
		respondError(w, http.StatusBadRequest, "tenant identifier is required")
	case errors.Is(err, rbac.ErrRoleNotFound):
		respondError(w, http.StatusNotFound, "role not found")
	case errors.Is(err, settings.ErrSettingNotFound):
		respondError(w, http.StatusNotFound, "setting not found")
	case errors.Is(err, rbac.ErrRoleAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, rbac.ErrRoleInUse):
		respondError(w, http.StatusConflict, "role is assigned to active users")
	case errors.Is(err, rbac.ErrBuiltinRole):
		respondError(w, http.StatusBadRequest, "built-in roles cannot be modified or deleted")
	case errors.Is(err, rbac.ErrInvalidModule), errors.Is(err, rbac.ErrInvalidAction):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
