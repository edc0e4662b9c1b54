package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"realty/db"
	"realty/models"
)

// AuthService owns registration, password checks and session tokens. It is
// a collaborator of the catalog, not part of it: the catalog only ever sees
// an authenticated username.
type AuthService struct {
	users    db.UserStore
	tokens   TokenStore
	tokenTTL time.Duration
}

func NewAuthService(users db.UserStore, tokens TokenStore, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, tokenTTL: tokenTTL}
}

// Register creates an account. Returns false when the username is taken.
func (s *AuthService) Register(ctx context.Context, username, password string) (bool, error) {
	existing, err := s.users.FindUser(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	err = s.users.CreateUser(ctx, models.User{
		Username:       username,
		HashedPassword: string(hash),
	})
	if err != nil {
		return false, err
	}
	log.Printf("user %s registered", username)
	return true, nil
}

// Authenticate verifies the password against the stored hash.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password))
	return err == nil, nil
}

// Login authenticates and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)
	if err := s.tokens.Save(ctx, token, username, s.tokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveToken returns the username a token belongs to, or "" if the token
// is unknown or expired.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (string, error) {
	return s.tokens.Lookup(ctx, token)
}

// Logout invalidates a session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.Drop(ctx, token)
}
