/*
auth.go - Credential verification and JWT session middleware

PURPOSE:
  Issues and verifies session tokens, and checks passwords against both
  credential generations.

CREDENTIAL GENERATIONS:
  Legacy accounts store an unsalted SHA-256 hex digest (the original
  system's format, default password "1234"). New or changed passwords are
  stored as bcrypt hashes. Verification picks the scheme from the stored
  hash prefix, so legacy accounts keep working until their next password
  change upgrades them in place.

TOKENS:
  HS256 JWTs carrying the employee ID (sub), role, and a unique jti.
  The middleware puts the resulting Identity in the request context;
  requireAdmin gates the management routes on it.

SEE ALSO:
  - handlers.go: Login and ChangePassword handlers
  - scheduler/permissions.go: Screen resolution after login
*/
package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkomis20/Team-Scheduler/scheduler"
)

const tokenTTL = 12 * time.Hour

type contextKey string

const identityKey contextKey = "identity"

// =============================================================================
// CREDENTIALS
// =============================================================================

// HashCredential hashes a new password with bcrypt.
func HashCredential(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyCredential checks a password against a stored hash of either
// generation.
func VerifyCredential(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(stored), []byte(digest)) == 1
}

// =============================================================================
// TOKENS
// =============================================================================

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// issueToken signs a session token for the employee.
func (h *Handler) issueToken(emp scheduler.Employee) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: string(emp.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(emp.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// parseToken validates a session token and returns the identity it carries.
func (h *Handler) parseToken(raw string) (scheduler.Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return h.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return scheduler.Identity{}, err
	}
	return scheduler.Identity{
		EmployeeID: scheduler.EmployeeID(claims.Subject),
		Role:       scheduler.Role(claims.Role),
	}, nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// requireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		identity, err := h.parseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates a route on the Admin role. Runs inside requireAuth.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok || identity.Role != scheduler.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFrom(ctx context.Context) (scheduler.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(scheduler.Identity)
	return identity, ok
}
