package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/liliang-cn/doc0/internal/domain"
)

// idTokenClaims is the subset of the identity provider's ID token we read.
type idTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// DecodeCredential extracts the identity from a login widget credential.
//
// The signature is NOT verified. The result is only good for gating the
// anonymous quota and must not be used for authorization decisions.
func DecodeCredential(credential string) (domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Identity{}, domain.ErrNoCredential
	}

	var claims idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: decode credential: %v", domain.ErrUnauthorized, err)
	}
	if claims.Email == "" {
		return domain.Identity{}, fmt.Errorf("%w: credential has no email", domain.ErrUnauthorized)
	}

	return domain.Identity{
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	}, nil
}
