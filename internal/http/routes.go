package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterDeps son los handlers que monta el auth server.
type RouterDeps struct {
	Log *zap.Logger

	JWKS       stdhttp.Handler
	Login      stdhttp.Handler
	Register   stdhttp.Handler
	ProfileGet stdhttp.Handler
	ProfilePut stdhttp.Handler
	Readyz     stdhttp.Handler
	Metrics    stdhttp.Handler

	Bearer func(stdhttp.Handler) stdhttp.Handler

	AdminAPIKey     string
	AdminKeysList   stdhttp.Handler
	AdminKeysRotate stdhttp.Handler
}

func NewRouter(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(RequestID)
	if d.Log != nil {
		r.Use(RequestLogger(d.Log))
	}

	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(stdhttp.MethodGet, "/readyz", d.Readyz)
	if d.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", d.Metrics)
	}

	r.Method(stdhttp.MethodGet, "/.well-known/jwks.json", d.JWKS)

	r.Route("/api", func(r chi.Router) {
		r.Method(stdhttp.MethodPost, "/auth/login", d.Login)
		r.Method(stdhttp.MethodPost, "/users/register", d.Register)

		r.Group(func(r chi.Router) {
			r.Use(d.Bearer)
			r.Method(stdhttp.MethodGet, "/users/profile", d.ProfileGet)
			r.Method(stdhttp.MethodPut, "/users/profile", d.ProfilePut)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminKey(d.AdminAPIKey))
			r.Method(stdhttp.MethodGet, "/keys", d.AdminKeysList)
			r.Method(stdhttp.MethodPost, "/keys/rotate", d.AdminKeysRotate)
		})
	})

	return r
}
