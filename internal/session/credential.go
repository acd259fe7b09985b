package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/angelmondragon/storefront-sync/pkg/errors"
)

// CredentialClaims are the fields the storefront reads from a backend-issued
// JWT. The signature is never checked here; the backend stays the authority
// and the client only uses the claims to skip requests it knows will fail.
type CredentialClaims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Credential is the inspected form of a stored session token.
type Credential struct {
	Token     string
	UserID    string
	ExpiresAt *time.Time
	// Opaque is true for tokens that are not JWTs; their validity is only
	// known once the backend answers.
	Opaque bool
}

// InspectCredential decodes token without verifying it and rejects tokens
// that are malformed or expired at now. Non-JWT tokens are accepted as opaque.
func InspectCredential(token string, now time.Time) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "no stored credential")
	}
	if strings.Count(token, ".") != 2 {
		return Credential{Token: token, Opaque: true}, nil
	}

	claims := &CredentialClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Credential{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed credential")
	}

	cred := Credential{Token: token, UserID: claims.UserID}
	if cred.UserID == "" {
		cred.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time.UTC()
		cred.ExpiresAt = &expires
		if !now.Before(expires) {
			return cred, pkgerrors.New(pkgerrors.CodeUnauthorized, "credential expired")
		}
	}
	return cred, nil
}
