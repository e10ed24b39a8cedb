package middleware

import (
	"context"
	"net/http"
	"strings"

	"deposit-backend/internal/auth"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const TenantIDKey contextKey = "tenant_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"
const HasAccountantAccessKey contextKey = "has_accountant_access"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

func (m *AuthMiddleware) claimsFromRequest(r *http.Request) (*auth.Claims, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, "Authorization header required"
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "Invalid authorization format"
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		return nil, "Invalid or expired token"
	}
	return claims, ""
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, TenantIDKey, claims.TenantID)
	ctx = context.WithValue(ctx, EmailKey, claims.Email)
	ctx = context.WithValue(ctx, RoleKey, claims.Role)
	ctx = context.WithValue(ctx, HasAccountantAccessKey, claims.HasAccountantAccess)
	return ctx
}

// Authenticate is a middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, errMsg := m.claimsFromRequest(r)
		if claims == nil {
			http.Error(w, errMsg, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// GetTenantIDFromContext extracts the tenant ID from request context
func GetTenantIDFromContext(ctx context.Context) (int, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(int)
	return tenantID, ok
}

// GetEmailFromContext extracts email from request context
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// RequireRole is a middleware that ensures the user has one of the allowed roles
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, errMsg := m.claimsFromRequest(r)
			if claims == nil {
				http.Error(w, errMsg, http.StatusUnauthorized)
				return
			}

			hasRole := false
			for _, role := range allowedRoles {
				if claims.Role == role {
					hasRole = true
					break
				}
			}
			if !hasRole {
				http.Error(w, "Forbidden: Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireAccountantAccess ensures the caller may read financial reports.
// Allow: admin, accountant role, OR employee with has_accountant_access=true
func (m *AuthMiddleware) RequireAccountantAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, errMsg := m.claimsFromRequest(r)
		if claims == nil {
			http.Error(w, errMsg, http.StatusUnauthorized)
			return
		}

		hasAccess := claims.Role == "admin" || claims.Role == "accountant" || claims.HasAccountantAccess
		if !hasAccess {
			http.Error(w, "Forbidden: Accountant access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireAdmin is a middleware that ensures the user has admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole("admin")(next)
}
