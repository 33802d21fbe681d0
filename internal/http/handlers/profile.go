package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/keysmith/internal/app"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/security/password"
	"github.com/dropDatabas3/keysmith/internal/store/core"
)

type ProfileResponse struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

func userFromClaims(r *http.Request, c *app.Container) (*core.User, bool) {
	claims := ClaimsFrom(r.Context())
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, false
	}
	u, err := c.Store.GetUserByID(r.Context(), sub)
	if err != nil {
		return nil, false
	}
	return u, true
}

func NewProfileGetHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := userFromClaims(r, c)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ProfileResponse{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Roles:     u.Roles,
		})
	}
}

type UpdateProfileRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// NewProfileUpdateHandler actualiza solo los campos presentes; un cambio de
// email choca con 409 si ya está tomado por otra cuenta.
func NewProfileUpdateHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := userFromClaims(r, c)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		var req UpdateProfileRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}

		if v := strings.TrimSpace(req.FirstName); v != "" {
			u.FirstName = v
		}
		if v := strings.TrimSpace(req.LastName); v != "" {
			u.LastName = v
		}
		if v := strings.TrimSpace(strings.ToLower(req.Email)); v != "" {
			u.Email = v
		}
		if req.Password != "" {
			hash, err := password.Hash(req.Password)
			if err != nil {
				httpx.WriteError(w, http.StatusInternalServerError, "hash_failed", "")
				return
			}
			u.PasswordHash = hash
		}

		if err := c.Store.UpdateUser(r.Context(), u); err != nil {
			if errors.Is(err, core.ErrConflict) {
				httpx.WriteError(w, http.StatusConflict, "email_taken", "")
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
	}
}
