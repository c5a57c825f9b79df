package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/vovakirdan/sessionchat/internal/store"
)

// Service resolves bearer tokens into known users.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Authenticate validates the token and records the user it names, so sessions
// can be rendered with an owner and messages with a sender.
func (s *Service) Authenticate(ctx context.Context, token string) (*store.User, error) {
	claims, err := ValidateToken(s.jwtConfig, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	user := &store.User{ID: claims.Identity(), Username: claims.Username}
	if user.Username == "" {
		user.Username = user.ID
	}
	if s.store == nil {
		return user, nil
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

// IssueToken mints a token for a user, mainly for local development.
func (s *Service) IssueToken(userID, username string) (string, error) {
	return GenerateToken(s.jwtConfig, userID, username)
}
