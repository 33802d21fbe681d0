package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/keysmith/internal/app"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/jwt"
)

type claimsKey struct{}

// RequireBearer valida el bearer token contra el keystore local y deja las
// claims en el contexto. Cualquier falla es el mismo 401.
func RequireBearer(c *app.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "")
				return
			}
			claims, err := jwt.ParseRS256(r.Context(), raw, c.Keys, c.Cfg.JWT.Issuer)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom recupera las claims dejadas por RequireBearer.
func ClaimsFrom(ctx context.Context) map[string]any {
	claims, _ := ctx.Value(claimsKey{}).(map[string]any)
	return claims
}
