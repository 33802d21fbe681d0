package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/app"
	"github.com/dropDatabas3/keysmith/internal/audit"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/security/password"
	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/dropDatabas3/keysmith/internal/util"
)

// DefaultRole se asigna a todo usuario nuevo.
const DefaultRole = "User"

type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

func NewRegisterHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.FirstName == "" || len(req.Password) < 6 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email, firstName y password (6+) son requeridos")
			return
		}

		hash, err := password.Hash(req.Password)
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "hash_failed", "")
			return
		}

		u := &core.User{
			ID:           uuid.NewString(),
			Email:        req.Email,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			PasswordHash: hash,
			Roles:        []string{DefaultRole},
		}
		if err := c.Store.CreateUser(r.Context(), u); err != nil {
			if errors.Is(err, core.ErrConflict) {
				httpx.WriteError(w, http.StatusConflict, "email_taken", "")
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "")
			return
		}

		audit.Log("user_registered",
			zap.String("user_id", u.ID),
			zap.String("email", util.MaskEmail(u.Email)))
		httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": u.ID})
	}
}
