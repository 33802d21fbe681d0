package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/app"
	"github.com/dropDatabas3/keysmith/internal/audit"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/jwt"
)

type adminKeyView struct {
	KID       string     `json:"kid"`
	Alg       string     `json:"alg"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RotatedAt *time.Time `json:"rotated_at,omitempty"`
}

// NewAdminKeysListHandler lista las claves publicables (sin material privado).
func NewAdminKeysListHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := c.Store.ListPublishableSigningKeys(r.Context(), time.Now().UTC())
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "")
			return
		}
		out := make([]adminKeyView, 0, len(keys))
		for _, k := range keys {
			out = append(out, adminKeyView{
				KID:       k.KID,
				Alg:       k.Alg,
				Status:    string(k.Status),
				CreatedAt: k.CreatedAt,
				ExpiresAt: k.ExpiresAt,
				RotatedAt: k.RotatedAt,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"keys": out})
	}
}

// NewAdminKeysRotateHandler fuerza una rotación fuera del timer (p.ej. ante
// un compromiso de clave). La clave anterior queda retired pero publicable.
func NewAdminKeysRotateHandler(c *app.Container, rot *jwt.Rotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rot.ForceRotate(r.Context()); err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "rotation_failed", "")
			return
		}
		audit.Log("key_rotation_forced", zap.String("request_id", w.Header().Get("X-Request-ID")))
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"rotated": true})
	}
}
