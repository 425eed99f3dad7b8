package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const (
	AccountIDKey contextKey = "accountID"
	RoleKey      contextKey = "role"
)

// Account roles carried in the token. The role is resolved once at login
// and never re-derived per request.
const (
	RoleEmitter = "emitter"
	RoleAdmin   = "admin"
)

const accessTokenTTL = 24 * time.Hour

// Claims is the access-token payload: standard claims plus the account role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func secretKey() []byte {
	return []byte(os.Getenv("SECRET_KEY"))
}

// GenerateToken issues an HS256 access token for the given account.
func GenerateToken(accountID uint, role string) (string, error) {
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(accountID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// GetAccountIDFromContext returns the authenticated account id set by the
// auth middleware.
func GetAccountIDFromContext(r *http.Request) (uint, error) {
	accountID, ok := r.Context().Value(AccountIDKey).(uint)
	if !ok {
		return 0, errors.New("account ID not found in context")
	}
	return accountID, nil
}

// RequireRole wraps a handler with bearer-token authentication and a role
// check. The account id and role are placed on the request context.
func RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return secretKey(), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if claims.Role != role {
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
			return
		}

		accountID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			http.Error(w, "Invalid account ID in token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDKey, uint(accountID))
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// EmitterAuth guards emitter-only endpoints.
func EmitterAuth(next http.HandlerFunc) http.HandlerFunc {
	return RequireRole(RoleEmitter, next)
}

// AdminAuth guards admin-only endpoints.
func AdminAuth(next http.HandlerFunc) http.HandlerFunc {
	return RequireRole(RoleAdmin, next)
}
