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

// Package identity verifies bearer credentials issued by the external
// identity provider. The verified claim set {actor, tenant, role} is
// authoritative for tenant and role resolution downstream.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crewdesk/crewdesk/internal/rbac"
)

var (
	ErrInvalidToken = errors.New("invalid or expired credential")
	ErrMissingClaim = errors.New("credential is missing a required claim")
)

// Claims is the verified content of a bearer token.
type Claims struct {
	TenantID string `json:"tenant_id"`
	RoleID   string `json:"role_id"`
	jwt.RegisteredClaims
}

// Actor converts the claim set into the authorization engine's principal.
func (c *Claims) Actor() rbac.Actor {
	return rbac.Actor{
		ID:       c.Subject,
		TenantID: c.TenantID,
		RoleID:   c.RoleID,
	}
}

// Verifier validates HMAC-signed bearer tokens.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer}
}

// Verify parses and validates a bearer token and returns its claims.
// Tokens with the wrong signing method, signature, issuer, or expiry
// fail with ErrInvalidToken; structurally valid tokens lacking actor,
// tenant, or role claims fail with ErrMissingClaim.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	if claims.RoleID == "" {
		return nil, fmt.Errorf("%w: role_id", ErrMissingClaim)
	}
	// tenant_id may legitimately be empty for the cross-tenant
	// superadmin; the guard decides whether that is acceptable.
	return claims, nil
}

// Sign issues a token for the given claims. Used by tests and by local
// development tooling; production tokens come from the external IdP.
func (v *Verifier) Sign(actorID, tenantID, roleID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TenantID: tenantID,
		RoleID:   roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
