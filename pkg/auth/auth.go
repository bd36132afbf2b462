// Package auth hashes passwords with bcrypt and issues/verifies HS256 JWTs.
// Leaf package: used by internal/domain/auth and internal/api/middleware.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// BCryptCost is the bcrypt work factor.
const BCryptCost = 12

// DefaultJWTExpiry is the token lifetime in hours when JWT_EXPIRY is unset.
const DefaultJWTExpiry = 24

// Issuer is set as the iss claim and required on parse.
const Issuer = "skillsteps"

const (
	envJWTSecret = "JWT_SECRET"
	envJWTExpiry = "JWT_EXPIRY"
)

// ErrSecretNotSet is returned by CheckSecret when JWT_SECRET is empty.
var ErrSecretNotSet = errors.New(envJWTSecret + " environment variable not set")

// CheckSecret lets the server refuse to start instead of panicking on the
// first login.
func CheckSecret() error {
	if os.Getenv(envJWTSecret) == "" {
		return ErrSecretNotSet
	}
	return nil
}

// getJWTSecret reads JWT_SECRET. Panics if unset: signing without a secret
// is a startup bug, and serve checks it with CheckSecret first.
func getJWTSecret() []byte {
	secret := os.Getenv(envJWTSecret)
	if secret == "" {
		panic(ErrSecretNotSet.Error() + " (cannot initialize auth)")
	}
	return []byte(secret)
}

// parseJWTExpiry parses hours; empty or invalid input yields the default.
func parseJWTExpiry(expiryStr string) time.Duration {
	if expiryStr == "" {
		return time.Duration(DefaultJWTExpiry) * time.Hour
	}
	hours, err := strconv.Atoi(expiryStr)
	if err != nil {
		return time.Duration(DefaultJWTExpiry) * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

func getJWTExpiry() time.Duration {
	return parseJWTExpiry(os.Getenv(envJWTExpiry))
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. Invalid hashes
// return false rather than an error.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims identifies the account a token was issued to.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token for the given account with JWT_SECRET and JWT_EXPIRY.
func GenerateJWT(userID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(getJWTExpiry())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(getJWTSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// ParseJWT validates signature, expiry and issuer, and returns the claims.
func ParseJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// HMAC only: reject algorithm substitution.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTSecret(), nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid JWT claims or signature")
	}
	return claims, nil
}
