package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"asset-tracker/pkg/apperr"
)

type contextKey string

// ClaimsKey is the context key for verified claims.
const ClaimsKey contextKey = "claims"

const (
	maxTokenBytes = 8192
	expiryWarning = time.Hour
)

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsKey).(*Claims)
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// rejection is a 401/403/500 outcome of an auth check.
type rejection struct {
	status  int
	code    string
	message string
}

func (r *rejection) write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.status)
	_ = json.NewEncoder(w).Encode(apperr.NewEnvelope(r.code, r.message, nil))
}

func unauthorized(code, message string) *rejection {
	return &rejection{status: http.StatusUnauthorized, code: code, message: message}
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) (string, *rejection) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", unauthorized("MISSING_AUTH_HEADER", "Authorization header required")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", unauthorized("INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>")
	}
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "", unauthorized("MISSING_TOKEN", "Token is required")
	case len(raw) > maxTokenBytes:
		return "", unauthorized("INVALID_TOKEN_FORMAT", "Invalid token format: token size exceeds maximum allowed")
	case strings.Count(raw, ".") != 2:
		return "", unauthorized("INVALID_TOKEN_FORMAT", "Invalid token format: invalid JWT token format")
	}
	return raw, nil
}

// tokenRejection maps a verification failure to a response.
func tokenRejection(err error) *rejection {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return unauthorized("TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, errUnexpectedSigningMethod):
		return unauthorized("INVALID_SIGNING_METHOD", "Invalid token signing method")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return unauthorized("MALFORMED_TOKEN", "Token is malformed")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return unauthorized("INVALID_TOKEN_AUDIENCE", "Token was not issued for this service")
	default:
		return unauthorized("INVALID_TOKEN", "Invalid or expired token")
	}
}

// AuthMiddleware verifies the bearer token and stores its claims in the
// request context. Tokens that expire within the hour get X-Token-Expires-*
// response headers.
func AuthMiddleware(jwtManager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, rej := bearerToken(r)
			if rej != nil {
				rej.write(w)
				return
			}
			claims, err := jwtManager.ValidateToken(raw)
			if err != nil {
				tokenRejection(err).write(w)
				return
			}
			if claims.UserID <= 0 {
				unauthorized("INVALID_USER_ID", "Invalid user ID in token").write(w)
				return
			}
			if len(claims.Roles) == 0 {
				unauthorized("NO_ROLES", "No roles assigned to user").write(w)
				return
			}

			if claims.ExpiresAt != nil {
				if left := time.Until(claims.ExpiresAt.Time); left > 0 && left <= expiryWarning {
					w.Header().Set("X-Token-Expires-At", claims.ExpiresAt.Time.Format(time.RFC3339))
					w.Header().Set("X-Token-Expires-In", left.Round(time.Second).String())
				}
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// MustRole allows the request when the caller holds any of roles.
func MustRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			switch {
			case claims == nil:
				unauthorized("AUTHENTICATION_REQUIRED", "Authentication required").write(w)
			case len(roles) == 0:
				(&rejection{http.StatusInternalServerError, "NO_ROLES_SPECIFIED", "No roles specified for this endpoint"}).write(w)
			case !claims.HasRole(roles...):
				(&rejection{http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions"}).write(w)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// Optional applies mw only when enabled is true.
func Optional(enabled bool, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if enabled {
		return mw
	}
	return func(next http.Handler) http.Handler { return next }
}
