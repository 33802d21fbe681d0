package handlers

import (
	"net/http"

	"github.com/dropDatabas3/keysmith/internal/app"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/metrics"
)

// NewJWKSHandler sirve el key set publicable. Es el único mecanismo por el
// que los verifiers descubren claves nuevas o dejan de confiar en las
// vencidas, así que nunca debe omitir una clave todavía publicable.
func NewJWKSHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if metrics.JWKSRequests != nil {
			metrics.JWKSRequests.Inc()
		}
		j, err := c.Keys.JWKSJSON(r.Context())
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "jwks_unavailable", "")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(j)
	}
}
