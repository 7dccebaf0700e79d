package service

import (
	"github.com/liliang-cn/doc0/internal/domain"
	"go.uber.org/zap"
)

// IdentityStore holds the signed-in identity.
type IdentityStore interface {
	Login(identity domain.Identity)
	Logout()
	Identity() (domain.Identity, bool)
}

// CredentialDecoder turns a login widget credential into an identity.
type CredentialDecoder func(credential string) (domain.Identity, error)

// AuthService handles federated login and logout
type AuthService struct {
	state  IdentityStore
	decode CredentialDecoder
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(state IdentityStore, decode CredentialDecoder, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{state: state, decode: decode, logger: logger}
}

// Login decodes credential and signs the user in
func (s *AuthService) Login(credential string) (domain.Identity, error) {
	identity, err := s.decode(credential)
	if err != nil {
		s.logger.Warn("Login failed", zap.Error(err))
		return domain.Identity{}, err
	}
	s.state.Login(identity)
	s.logger.Info("User signed in", zap.String("email", identity.Email))
	return identity, nil
}

// Logout signs the current user out
func (s *AuthService) Logout() {
	if identity, ok := s.state.Identity(); ok {
		s.logger.Info("User signed out", zap.String("email", identity.Email))
	}
	s.state.Logout()
}

// Me returns the signed-in identity
func (s *AuthService) Me() (domain.Identity, error) {
	identity, ok := s.state.Identity()
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return identity, nil
}
