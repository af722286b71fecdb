package rbac

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
	"github.com/sekolahku/sekolahku/internal/shared"
)

type identityContextKey struct{}

// ContextWithIdentity stores a resolved Identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the resolved Identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Middleware wires the authorization guards for HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Registry *Registry
	Logger   *slog.Logger
}

// RequireAuth rejects requests without an authenticated session. It
// resolves the session user into an Identity and attaches it to the
// request context. Resolution happens here, once per request.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "you must be logged in to access this resource")
			return
		}
		identity := m.Resolver.Resolve(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequirePermission ensures the resolved identity holds the given
// permission. The super-admin bypass is evaluated before the
// membership test: holders of that role pass unconditionally and their
// permission set is expanded to the full catalog for downstream use.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				userID, authed := m.currentUserID(r)
				if !authed {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "you must be logged in to access this resource")
					return
				}
				identity = m.Resolver.Resolve(r.Context(), userID)
			}

			if identity.HasRole(RoleSuperAdmin) {
				identity.Permissions = m.Registry.All()
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
				return
			}

			if !identity.HasPermission(perm) {
				if m.Logger != nil {
					m.Logger.Info("permission denied",
						slog.Int64("user_id", identity.UserID),
						slog.String("permission", perm))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "you do not have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("parse session user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
