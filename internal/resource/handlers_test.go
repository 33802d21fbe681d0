package resource_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/keysmith/internal/resource"
)

// passthrough simula un verifier que ya validó el token.
func passthrough(next http.Handler) http.Handler { return next }

func deny(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func newServer(t *testing.T, auth func(http.Handler) http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(resource.NewRouter(resource.NewProductStore(), auth))
	t.Cleanup(srv.Close)
	return srv
}

func TestProducts_SeededList(t *testing.T) {
	srv := newServer(t, passthrough)

	resp, err := http.Get(srv.URL + "/api/products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var items []resource.Product
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("seeded products = %d, want 3", len(items))
	}
	if items[0].Name != "Product A" || items[0].Price != 10.0 {
		t.Fatalf("first = %+v", items[0])
	}
}

func TestProducts_CRUD(t *testing.T) {
	srv := newServer(t, passthrough)

	body, _ := json.Marshal(resource.Product{Name: "Widget", Price: 42.5, Description: "test"})
	resp, err := http.Post(srv.URL+"/api/products", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}
	var created resource.Product
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if created.ID != 4 {
		t.Fatalf("created id = %d, want 4", created.ID)
	}

	// update
	body, _ = json.Marshal(resource.Product{Name: "Widget v2", Price: 50})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/products/4", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("update status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/products/4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got resource.Product
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if got.Name != "Widget v2" || got.ID != 4 {
		t.Fatalf("got = %+v", got)
	}

	// delete + 404 posterior
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/products/4", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = http.Get(srv.URL + "/api/products/4")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted status = %d", resp.StatusCode)
	}
}

func TestProducts_BadID(t *testing.T) {
	srv := newServer(t, passthrough)

	resp, err := http.Get(srv.URL + "/api/products/abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProducts_AuthGated(t *testing.T) {
	srv := newServer(t, deny)

	resp, err := http.Get(srv.URL + "/api/products")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	// healthz queda abierto
	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}
