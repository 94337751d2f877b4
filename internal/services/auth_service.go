package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"cofre/internal/cache"
	"cofre/internal/core"
	"cofre/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// Session is the result of a successful register or login.
type Session struct {
	User      core.User
	Token     string
	ExpiresAt time.Time
}

// AuthService registers users, verifies passwords and serves the current
// user from a short-lived cache.
type AuthService struct {
	storage *storage.SQLiteRepository
	tokens  TokenIssuer
	users   *cache.LRUCache[core.User]
	cost    int
}

func NewAuthService(storage *storage.SQLiteRepository, tokens TokenIssuer, users *cache.LRUCache[core.User]) *AuthService {
	return &AuthService{
		storage: storage,
		tokens:  tokens,
		users:   users,
		cost:    bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (Session, error) {
	if len(password) < minPasswordLength {
		return Session{}, core.ErrWeakPassword
	}
	u := core.User{
		ID:        uuid.NewString(),
		Email:     normalizeEmail(email),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, err
	}
	u.PasswordHash = string(hash)
	if err := s.storage.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return s.session(u)
}

// Login never reveals whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.storage.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, core.ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *AuthService) CurrentUser(ctx context.Context, id string) (core.User, error) {
	if s.users != nil {
		if u, ok := s.users.Get(id); ok {
			return u, nil
		}
	}
	u, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if s.users != nil {
		s.users.Set(id, u)
	}
	return u, nil
}

// UpdateName changes the display name and drops the cached copy.
func (s *AuthService) UpdateName(ctx context.Context, id, name string) (core.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.User{}, core.ErrEmptyName
	}
	if len(name) > 100 {
		return core.User{}, core.ErrNameTooLong
	}
	if err := s.storage.UpdateUserName(ctx, id, name); err != nil {
		return core.User{}, err
	}
	if s.users != nil {
		s.users.Delete(id)
	}
	return s.CurrentUser(ctx, id)
}

func (s *AuthService) session(u core.User) (Session, error) {
	token, expires, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token, ExpiresAt: expires}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
