package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"branch-supply/internal/core"
)

type identityKey struct{}

// identityFromContext returns the authenticated identity stored in ctx.
func identityFromContext(ctx context.Context) (core.Identity, bool) {
	v, ok := ctx.Value(identityKey{}).(core.Identity)
	return v, ok
}

// jwtClaims is the token payload issued by the external session service.
// This core trusts it as-is: signature verification is the only check.
type jwtClaims struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Branch string `json:"branch"`
	jwt.RegisteredClaims
}

// tokenFromRequest extracts the JWT from the Authorization bearer header or
// the auth_token cookie, in that order.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("auth_token"); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth validates the session token and injects the caller's Identity
// into the request context. Absent or invalid tokens get 401; a token with
// an unknown role gets 401 as well, since its issuer is not one of ours.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeError(w, r, "authentication required", "unauthenticated", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "unauthenticated", http.StatusUnauthorized)
			return
		}

		role, err := core.ParseRole(claims.Role)
		if err != nil {
			writeError(w, r, "invalid or expired token", "unauthenticated", http.StatusUnauthorized)
			return
		}

		identity := core.Identity{
			UserID: claims.UserID,
			Name:   claims.Name,
			Role:   role,
			Branch: claims.Branch,
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// me handles GET /api/auth/me: echoes the authenticated identity.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, r, "authentication required", "unauthenticated", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{
		"user_id": id.UserID,
		"name":    id.Name,
		"role":    id.Role,
		"branch":  id.Branch,
	})
}
