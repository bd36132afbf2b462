// Package auth registers accounts and verifies credentials against the
// user_account table, issuing a JWT on success.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skillsteps/skillsteps/internal/infra/logger"
	pkgauth "github.com/skillsteps/skillsteps/pkg/auth"
	"github.com/skillsteps/skillsteps/pkg/uuid"
)

// DefaultName is stored when Register gets a blank name.
const DefaultName = "User"

// ErrInvalidCredentials is returned by Login for every failure, so callers
// cannot tell whether the email exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailAlreadyExists is returned by Register when the email is taken.
var ErrEmailAlreadyExists = errors.New("email already registered")

// ErrMissingCredentials is returned by Register when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// RegisterInput holds the data needed to create an account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the credentials to check.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned after a successful Register or Login.
//
//nolint:revive // auth.AuthResult reads fine at call sites
type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// AuthService defines the authentication operations.
//
//nolint:revive // stable public name
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
}

type authService struct {
	db  *sql.DB
	log *logger.Logger
}

// NewAuthService returns an AuthService backed by db. log may be nil.
func NewAuthService(db *sql.DB, log *logger.Logger) AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &authService{db: db, log: log}
}

// Register hashes the password, stores the account and returns a JWT.
// Email is matched case-insensitively.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrMissingCredentials
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = DefaultName
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.NewV7().String()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_account (id, email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, email, hash, name, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			s.log.Info("register rejected", "reason", "email_taken")
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := pkgauth.GenerateJWT(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	s.log.Info("user registered", "user", userID)
	return &AuthResult{Token: token, UserID: userID, Email: email, Name: name}, nil
}

// Login checks credentials and returns a JWT with the account identity.
func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var userID, name, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash
		FROM user_account
		WHERE email = ?
		LIMIT 1
	`, email).Scan(&userID, &name, &hash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Error("login query failed", "error", err.Error())
		}
		s.log.Info("login rejected", "reason", "user_not_found")
		return nil, ErrInvalidCredentials
	}

	if !pkgauth.VerifyPassword(hash, input.Password) {
		s.log.Info("login rejected", "reason", "invalid_password", "user", userID)
		return nil, ErrInvalidCredentials
	}

	token, err := pkgauth.GenerateJWT(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	s.log.Info("user logged in", "user", userID)
	return &AuthResult{Token: token, UserID: userID, Email: email, Name: name}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation matches SQLite's "UNIQUE constraint failed" message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
