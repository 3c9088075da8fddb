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

package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/internal/identity"
)

const testIssuer = "crewdesk-idp"

var testSecret = []byte("test-secret-0123456789")

func TestVerify_RoundTrip(t *testing.T) {
	v := identity.NewVerifier(testSecret, testIssuer)

	token, err := v.Sign("user-1", "tenant-a", "role-1", time.Minute)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)

	actor := claims.Actor()
	assert.Equal(t, "user-1", actor.ID)
	assert.Equal(t, "tenant-a", actor.TenantID)
	assert.Equal(t, "role-1", actor.RoleID)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	signer := identity.NewVerifier([]byte("other-secret-9876543210"), testIssuer)
	v := identity.NewVerifier(testSecret, testIssuer)

	token, err := signer.Sign("user-1", "tenant-a", "role-1", time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_RejectsWrongIssuer(t *testing.T) {
	signer := identity.NewVerifier(testSecret, "some-other-idp")
	v := identity.NewVerifier(testSecret, testIssuer)

	token, err := signer.Sign("user-1", "tenant-a", "role-1", time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	v := identity.NewVerifier(testSecret, testIssuer)

	token, err := v.Sign("user-1", "tenant-a", "role-1", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

// TestPurpose: Validates rejection of algorithm confusion: a token signed
// with "none" or a non-HMAC method must never verify.
// Scope: Unit Test
// Security: JWT alg downgrade prevention
// Test Case ID: IDV-01
func TestVerify_RejectsUnsignedToken(t *testing.T) {
	v := identity.NewVerifier(testSecret, testIssuer)

	claims := &identity.Claims{
		TenantID: "tenant-a",
		RoleID:   "role-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerify_RequiresSubjectAndRole(t *testing.T) {
	v := identity.NewVerifier(testSecret, testIssuer)

	// Missing role claim.
	token, err := v.Sign("user-1", "tenant-a", "", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, identity.ErrMissingClaim)

	// Missing subject.
	token, err = v.Sign("", "tenant-a", "role-1", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, identity.ErrMissingClaim)

	// Empty tenant is acceptable; the guard decides downstream.
	token, err = v.Sign("user-1", "", "role-1", time.Minute)
	require.NoError(t, err)
	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Empty(t, claims.TenantID)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	v := identity.NewVerifier(testSecret, testIssuer)
	_, err := v.Verify("not.a.token")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
