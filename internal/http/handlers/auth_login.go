package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/app"
	"github.com/dropDatabas3/keysmith/internal/audit"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/jwt"
	"github.com/dropDatabas3/keysmith/internal/metrics"
	"github.com/dropDatabas3/keysmith/internal/observability/logger"
	"github.com/dropDatabas3/keysmith/internal/security/password"
	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/dropDatabas3/keysmith/internal/util"
)

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientID string `json:"clientId"`
}

type AuthLoginResponse struct {
	Token string `json:"Token"`
}

// NewAuthLoginHandler autentica (email, password, clientId) y emite un token
// firmado con la clave activa. Client desconocido, usuario desconocido y
// password incorrecta colapsan en el mismo 401 para no permitir enumeración;
// la falta de clave activa es un 500, nunca un problema de credenciales.
func NewAuthLoginHandler(c *app.Container) http.HandlerFunc {
	log := logger.Named("login")
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthLoginRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" || req.ClientID == "" {
			httpx.WriteError(w, http.StatusBadRequest, "missing_fields", "")
			return
		}

		ctx := r.Context()

		if c.Limiter != nil {
			res, err := c.Limiter.Allow(ctx, "login:"+req.Email)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.Error(err))
			} else if !res.Allowed {
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "")
				return
			}
		}

		client, err := c.Store.GetClientByClientID(ctx, req.ClientID)
		if err != nil {
			rejectLogin(w, log, "unknown client", req.ClientID)
			return
		}

		u, err := c.Store.GetUserByEmail(ctx, req.Email)
		if err != nil {
			if !errors.Is(err, core.ErrNotFound) {
				httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "")
				return
			}
			rejectLogin(w, log, "unknown user", req.Email)
			return
		}

		if !password.Verify(req.Password, u.PasswordHash) {
			rejectLogin(w, log, "bad password", req.Email)
			return
		}

		token, _, err := c.Issuer.Issue(ctx, u, client)
		if err != nil {
			if metrics.TokensIssued != nil {
				if errors.Is(err, jwt.ErrNoActiveKey) {
					metrics.TokensIssued.WithLabelValues("no_active_key").Inc()
				} else {
					metrics.TokensIssued.WithLabelValues("error").Inc()
				}
			}
			log.Error("token issuance failed", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "issue_failed", "")
			return
		}
		if metrics.TokensIssued != nil {
			metrics.TokensIssued.WithLabelValues("ok").Inc()
		}

		httpx.WriteJSON(w, http.StatusOK, AuthLoginResponse{Token: token})
	}
}

func rejectLogin(w http.ResponseWriter, log *zap.Logger, reason, subject string) {
	if metrics.LoginFailures != nil {
		metrics.LoginFailures.Inc()
	}
	// detalle solo en logs; la respuesta es siempre la misma
	if strings.Contains(subject, "@") {
		subject = util.MaskEmail(subject)
	}
	audit.Log("login_rejected", zap.String("reason", reason), zap.String("subject", subject))
	log.Info("login rejected", zap.String("reason", reason), zap.String("subject", subject))
	httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "")
}
