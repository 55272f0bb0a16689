package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"curtainbe/internal/domain"
)

type userKey struct{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext extracts the authenticated user from the context. The
// second return value is false for anonymous requests.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}

// HashAPIKey returns the hex SHA-256 digest under which an API key is stored.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Authenticator resolves request credentials to users. JWT Bearer tokens are
// tried first, then the X-API-Key header.
type Authenticator struct {
	validator JWTValidator
	users     domain.UserRepository
	keys      domain.APIKeyRepository
	logger    *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(validator JWTValidator, users domain.UserRepository, keys domain.APIKeyRepository, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		users:     users,
		keys:      keys,
		logger:    logger.With("component", "auth"),
	}
}

// Optional attaches the authenticated user to the context when credentials
// are present and valid, and lets the request through either way. Endpoints
// that serve both anonymous and authenticated callers (comparison submission,
// public session reads) use this.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := a.authenticate(r); u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects requests without valid credentials.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := a.authenticate(r)
		if u == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    401,
				"message": "unauthorized: provide a valid JWT Bearer token or API key",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func (a *Authenticator) authenticate(r *http.Request) *domain.User {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && a.validator != nil {
		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		claims, err := a.validator.Validate(r.Context(), tokenStr)
		if err == nil && claims.Subject != "" {
			if u := a.resolveSubject(r.Context(), claims); u != nil {
				return u
			}
		} else if err != nil {
			a.logger.Debug("token rejected", "error", err)
		}
	}

	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" && a.keys != nil {
		u, err := a.keys.LookupUserByKeyHash(r.Context(), HashAPIKey(apiKey))
		if err == nil {
			return u
		}
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			a.logger.Warn("api key lookup failed", "error", err)
		}
	}
	return nil
}

// resolveSubject maps a token subject to a local user, provisioning one on
// first login. ORCID tokens carry the ORCID iD as the subject.
func (a *Authenticator) resolveSubject(ctx context.Context, claims *JWTClaims) *domain.User {
	u, err := a.users.GetBySubject(ctx, claims.Subject)
	if err == nil {
		return u
	}
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		a.logger.Warn("user lookup failed", "subject", claims.Subject, "error", err)
		return nil
	}

	username := claims.Subject
	if claims.Email != nil && *claims.Email != "" {
		username = *claims.Email
	}
	sub := claims.Subject
	created, err := a.users.Create(ctx, &domain.User{
		Username: username,
		ORCIDSub: &sub,
	})
	if err != nil {
		a.logger.Warn("user provisioning failed", "subject", claims.Subject, "error", err)
		return nil
	}
	a.logger.Info("provisioned user from token", "subject", claims.Subject)
	return created
}
