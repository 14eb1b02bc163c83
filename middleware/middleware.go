package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/models"
)

type contextKey struct{}

var scopeKey contextKey

const (
	msgNotAuthorized = "Not authorized. Try login again."
	msgNotAdmin      = "Not authorized as admin. Try login as admin."
)

// WithScope returns a copy of ctx carrying scope.
func WithScope(ctx context.Context, scope models.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFromContext returns the scope stored by JWTAuthMiddleware.
func ScopeFromContext(ctx context.Context) (models.Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(models.Scope)
	return scope, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": false, "message": message})
}

// tokenFromRequest reads a bearer token, falling back to the "token" cookie.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token := strings.TrimPrefix(header, "Bearer "); token != header {
			return strings.TrimSpace(token)
		}
		logging.Logger.Warnf("Event ID: JWT_AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// JWTAuthMiddleware rejects requests without a valid token and stores the caller's scope
// in the request context.
func (a *Authenticator) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := tokenFromRequest(r)
		if tokenStr == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_TOKEN, Description: No token for request to %s %s", r.Method, r.URL.Path)
			writeUnauthorized(w, msgNotAuthorized)
			return
		}

		claims, err := ValidateToken(a.secret, tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			writeUnauthorized(w, msgNotAuthorized)
			return
		}

		logging.Logger.Debugf("Event ID: JWT_AUTH_SUCCESS, Description: Token validated for %s on %s %s", claims.UserID, r.Method, r.URL.Path)
		scope := models.Scope{AccountID: claims.UserID, IsAdmin: claims.IsAdmin}
		next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
	})
}

// AdminOnly lets through only administrator scopes. It must run after JWTAuthMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := ScopeFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, msgNotAuthorized)
			return
		}
		if !scope.IsAdmin {
			logging.Logger.Warnf("Event ID: ADMIN_ONLY_DENIED, Description: %s tried %s %s", scope.AccountID, r.Method, r.URL.Path)
			writeUnauthorized(w, msgNotAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EnableCORS answers preflight requests and adds CORS headers for origin.
func EnableCORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if origin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
