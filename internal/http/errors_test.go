package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func stdHandler(fn func()) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		fn()
		w.WriteHeader(stdhttp.StatusNoContent)
	})
}

func TestWriteError_Shape(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "rid-1")
	WriteError(rec, 401, "invalid_credentials", "")

	if rec.Code != 401 {
		t.Fatalf("status = %d", rec.Code)
	}
	var body apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Error != "invalid_credentials" || body.RequestID != "rid-1" {
		t.Fatalf("body = %+v", body)
	}
	if strings.Contains(rec.Body.String(), "error_description") {
		t.Fatal("empty description should be omitted")
	}
}

func TestReadJSON(t *testing.T) {
	type in struct {
		Email string `json:"email"`
	}

	t.Run("ok with unknown fields", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.c","extra":1}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		var v in
		if !ReadJSON(rec, req, &v) {
			t.Fatalf("rejected: %s", rec.Body.String())
		}
		if v.Email != "a@b.c" {
			t.Fatalf("v = %+v", v)
		}
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		var v in
		if ReadJSON(rec, req, &v) {
			t.Fatal("accepted text/plain")
		}
		if rec.Code != 400 {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		var v in
		if ReadJSON(rec, req, &v) {
			t.Fatal("accepted malformed json")
		}
	})
}

func TestAdminKey_EmptyKeyDeniesAll(t *testing.T) {
	called := false
	next := stdHandler(func() { called = true })
	h := AdminKey("")(next)
	req := httptest.NewRequest("GET", "/api/admin/keys", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if called || rec.Code != 401 {
		t.Fatalf("called=%v status=%d", called, rec.Code)
	}
}
