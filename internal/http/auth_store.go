package httpapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type AuthUser struct {
	UserID string
	Name   string
	Email  string
	Token  string
}

// AuthStore is a minimal in-memory token auth DB.
// Registration issues an opaque bearer token; login just re-validates it.
type AuthStore struct {
	mu      sync.RWMutex
	byToken map[string]AuthUser
	byID    map[string]AuthUser
}

func NewAuthStore() *AuthStore {
	return &AuthStore{
		byToken: map[string]AuthUser{},
		byID:    map[string]AuthUser{},
	}
}

func (s *AuthStore) Register(name, email string) AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := AuthUser{
		UserID: uuid.NewString(),
		Name:   name,
		Email:  email,
		Token:  uuid.NewString(),
	}
	s.byToken[u.Token] = u
	s.byID[u.UserID] = u
	return u
}

func (s *AuthStore) FindByToken(token string) (AuthUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byToken[token]
	return u, ok
}

func (s *AuthStore) Get(userID string) (AuthUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[userID]
	return u, ok
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authorize resolves the caller from the bearer token; ok=false means 401.
func (s *AuthStore) authorize(r *http.Request) (AuthUser, bool) {
	token := bearerToken(r)
	if token == "" {
		return AuthUser{}, false
	}
	return s.FindByToken(token)
}
