// Package auth issues and verifies the bearer tokens that identify staff
// members. A token carries (user id, role, garage id); the middleware
// re-reads the user row on each request so role or garage changes take
// effect without waiting for token expiry.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type ctxKey string

const identityCtxKey = ctxKey("identity")

// Identity is what the rest of the application knows about the caller.
type Identity struct {
	UserID   uint
	Role     string
	GarageID uint
}

// Verifier re-validates a token's subject against the user store and
// returns the current identity. Set during bootstrap.
type Verifier func(ctx context.Context, userID uint) (Identity, bool)

// Service signs and parses tokens.
type Service struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewService builds a token service. A zero ttl falls back to 24h; a
// negative ttl is kept as-is so tests can mint already-expired tokens.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), tokenTTL: ttl}
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken creates a signed token for the identity.
func (s *Service) GenerateToken(ident Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       int64(ident.UserID),
		"role":      ident.Role,
		"garage_id": int64(ident.GarageID),
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a token string and extracts the identity claims.
func (s *Service) ParseToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	garage, _ := claims["garage_id"].(float64)
	return Identity{UserID: uint(sub), Role: role, GarageID: uint(garage)}, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, ident)
}

// IdentityFromContext extracts the caller identity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityCtxKey).(Identity)
	return ident, ok
}

// Middleware attaches the identity to the request context when a valid
// bearer token is present. When verify is non-nil it is consulted so the
// identity reflects the current user row, not the claims at issue time.
func (s *Service) Middleware(verify Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := BearerToken(r); ok {
				if ident, err := s.ParseToken(token); err == nil {
					if verify != nil {
						current, found := verify(r.Context(), ident.UserID)
						if !found {
							next.ServeHTTP(w, r)
							return
						}
						ident = current
					}
					r = r.WithContext(WithIdentity(r.Context(), ident))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns 401 JSON when no identity is attached.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			if _, err := w.Write([]byte(`{"error":"unauthorized"}`)); err != nil {
				_ = err
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}
