package resource

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	httpx "github.com/dropDatabas3/keysmith/internal/http"
)

// NewRouter monta el CRUD de productos detrás del middleware de auth.
func NewRouter(store *ProductStore, auth func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", listHandler(store))
		r.Post("/", addHandler(store))
		r.Get("/{id}", getHandler(store))
		r.Put("/{id}", updateHandler(store))
		r.Delete("/{id}", deleteHandler(store))
	})

	return r
}

func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

func listHandler(store *ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, store.List())
	}
}

func getHandler(store *ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_id", "")
			return
		}
		p, found := store.Get(id)
		if !found {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

func addHandler(store *ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Product
		if !httpx.ReadJSON(w, r, &p) {
			return
		}
		if p.Name == "" {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name es requerido")
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, store.Add(p))
	}
}

func updateHandler(store *ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_id", "")
			return
		}
		var p Product
		if !httpx.ReadJSON(w, r, &p) {
			return
		}
		if !store.Update(id, p) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteHandler(store *ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_id", "")
			return
		}
		if !store.Delete(id) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
