package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	portalauth "github.com/infound/portal-auth"
)

// Rejection reason strings, kept exactly as the portal's clients already
// parse them.
const (
	reasonNoToken      = "No AccessToken"
	reasonInvalidToken = "Invalid AccessToken"
	reasonNotLive      = "Invalid AccessToken (logged out or exceeded the limit)"
	reasonStoreDown    = "Session store unavailable"
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal the gate attached to the
// request, if any. The principal is visible only within that request's
// handling.
func PrincipalFromContext(ctx context.Context) (*portalauth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*portalauth.Principal)
	return p, ok
}

// Gate returns middleware enforcing the portal's authentication protocol
// with the gate settings the engine was built with: requests to
// exact-match allow-listed paths pass through unauthenticated; every other
// request must carry a live access token in the configured header or is
// rejected before reaching business logic.
func Gate(engine *portalauth.Engine) func(http.Handler) http.Handler {
	return GateWithConfig(engine, engine.GateConfig())
}

// GateWithConfig is [Gate] with explicit settings, overriding the engine's.
func GateWithConfig(engine *portalauth.Engine, cfg portalauth.GateConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowPaths))
	for _, p := range cfg.AllowPaths {
		allowed[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if engine == nil {
				writeDetail(w, http.StatusUnauthorized, reasonInvalidToken)
				return
			}

			raw := r.Header.Get(cfg.Header)
			if raw == "" {
				writeDetail(w, http.StatusUnauthorized, reasonNoToken)
				return
			}

			ctx := portalauth.WithClientIP(r.Context(), r.RemoteAddr)
			principal, err := engine.VerifyToken(ctx, raw)
			if err != nil {
				switch {
				case errors.Is(err, portalauth.ErrStoreUnavailable):
					// Liveness cannot be confirmed; fail closed but make the
					// infrastructure fault distinguishable from a bad token.
					writeDetail(w, http.StatusServiceUnavailable, reasonStoreDown)
				case errors.Is(err, portalauth.ErrSessionNotLive):
					writeDetail(w, http.StatusUnauthorized, reasonNotLive)
				default:
					writeDetail(w, http.StatusUnauthorized, reasonInvalidToken)
				}
				return
			}

			ctx = context.WithValue(ctx, principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
