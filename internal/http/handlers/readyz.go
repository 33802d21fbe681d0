package handlers

import (
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/keysmith/internal/app"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
)

// NewReadyzHandler chequea el store y hace un self-check de firma: emite y
// verifica un JWT efímero contra la clave activa.
func NewReadyzHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := c.Store.Ping(ctx); err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "")
			return
		}

		if kid, err := c.Issuer.ActiveKID(ctx); err == nil && kid != "" {
			w.Header().Set("X-JWKS-KID", kid)
		}

		now := time.Now().UTC()
		claims := jwtv5.MapClaims{
			"iss": c.Issuer.Iss,
			"sub": "selfcheck",
			"aud": "health",
			"iat": now.Unix(),
			"exp": now.Add(60 * time.Second).Unix(),
		}
		kid, priv, err := c.Keys.Active(ctx)
		if err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "no_active_key", "")
			return
		}
		tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
		tk.Header["kid"] = kid
		signed, err := tk.SignedString(priv)
		if err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "sign_failed", "")
			return
		}

		parsed, err := jwtv5.Parse(signed, c.Issuer.Keyfunc(ctx),
			jwtv5.WithValidMethods([]string{"RS256"}),
			jwtv5.WithIssuer(c.Issuer.Iss),
		)
		if err != nil || !parsed.Valid {
			httpx.WriteError(w, http.StatusServiceUnavailable, "verify_failed", "")
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
