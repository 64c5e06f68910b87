// Package auth verifies the bearer tokens issued by the identity provider.
// The service does not mint tokens itself; it only validates incoming access
// tokens and extracts the actor identity for downstream authorization.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"focusflow/internal/config"
	"focusflow/internal/types"
)

// Claims is the access-token payload this service understands. The subject
// claim carries the user ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256-signed access tokens against the shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier from the auth configuration.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret.Unmask())}
}

// VerifyToken parses and validates an access token, returning the actor it
// identifies. Expired tokens map to ErrCodeAuthTokenExpired so handlers can
// tell clients to refresh rather than re-authenticate.
func (v *Verifier) VerifyToken(tokenStr string) (*types.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.NewAppError(types.ErrCodeAuthTokenExpired, "access token has expired", err)
		}
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "access token is invalid", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "access token claims are malformed", nil)
	}
	if claims.Subject == "" {
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "access token is missing a subject", nil)
	}

	return &types.Actor{
		ID:    claims.Subject,
		Type:  types.ActorTypeUser,
		Email: claims.Email,
	}, nil
}
