package verifier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/jwt"
	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/dropDatabas3/keysmith/internal/store/memory"
	"github.com/dropDatabas3/keysmith/internal/verifier"
)

const (
	testIssuer   = "https://auth.example.com"
	testAudience = "https://client1.example.com"
)

type fixture struct {
	store   *memory.Store
	keys    *jwt.Keystore
	rotator *jwt.Rotator
	issuer  *jwt.Issuer
	srv     *httptest.Server
	fetches *atomic.Int64
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), fetches: &atomic.Int64{}, now: time.Now().UTC()}

	f.keys = jwt.NewKeystore(f.store)
	f.rotator = jwt.NewRotator(f.store, zap.NewNop()).WithClock(func() time.Time { return f.now })
	f.rotator.OnRotate = f.keys.Invalidate
	if _, err := f.rotator.RotateIfNeeded(context.Background()); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	f.issuer = jwt.NewIssuer(testIssuer, f.keys).WithClock(func() time.Time { return f.now })

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		raw, err := f.keys.JWKSJSON(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) verifier() *verifier.Verifier {
	return verifier.New(verifier.Config{
		JWKSURL:  f.srv.URL,
		Issuer:   testIssuer,
		Audience: testAudience,
	}).WithClock(func() time.Time { return f.now })
}

func (f *fixture) issue(t *testing.T) string {
	t.Helper()
	u := &core.User{ID: "u-1", Email: "ana@example.com", FirstName: "Ana", Roles: []string{"User"}}
	c := &core.Client{ClientID: "client1", ClientURL: testAudience}
	token, _, err := f.issuer.Issue(context.Background(), u, c)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func TestVerify_RoundTrip(t *testing.T) {
	f := newFixture(t)
	v := f.verifier()
	token := f.issue(t)

	f.now = f.now.Add(time.Minute)
	claims, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims["sub"] != "u-1" || claims["iss"] != testIssuer {
		t.Fatalf("claims = %v", claims)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	v := f.verifier()
	issuedAt := f.now
	token := f.issue(t)

	// un segundo antes del vencimiento pasa
	f.now = issuedAt.Add(time.Hour - time.Second)
	if _, err := v.Verify(context.Background(), token); err != nil {
		t.Fatalf("token still valid at exp-1s: %v", err)
	}
	// un minuto después no
	f.now = issuedAt.Add(time.Hour + time.Minute)
	if _, err := v.Verify(context.Background(), token); err != verifier.ErrVerification {
		t.Fatalf("err = %v, want ErrVerification", err)
	}
}

func TestVerify_WrongAudience(t *testing.T) {
	f := newFixture(t)
	v := verifier.New(verifier.Config{
		JWKSURL:  f.srv.URL,
		Issuer:   testIssuer,
		Audience: "https://otherapp.example.com",
	}).WithClock(func() time.Time { return f.now })

	token := f.issue(t)
	f.now = f.now.Add(time.Minute)
	if _, err := v.Verify(context.Background(), token); err != verifier.ErrVerification {
		t.Fatalf("err = %v, want ErrVerification", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	f := newFixture(t)
	v := verifier.New(verifier.Config{
		JWKSURL:  f.srv.URL,
		Issuer:   "https://rogue.example.com",
		Audience: testAudience,
	}).WithClock(func() time.Time { return f.now })

	token := f.issue(t)
	f.now = f.now.Add(time.Minute)
	if _, err := v.Verify(context.Background(), token); err != verifier.ErrVerification {
		t.Fatalf("err = %v, want ErrVerification", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	f := newFixture(t)
	v := f.verifier()
	token := f.issue(t)

	tampered := token[:len(token)-4] + "AAAA"
	f.now = f.now.Add(time.Minute)
	if _, err := v.Verify(context.Background(), tampered); err != verifier.ErrVerification {
		t.Fatalf("err = %v, want ErrVerification", err)
	}
}

func TestVerify_RefreshOnUnknownKid(t *testing.T) {
	f := newFixture(t)
	v := f.verifier()

	// cachear el JWKS pre-rotación
	old := f.issue(t)
	f.now = f.now.Add(time.Minute)
	if _, err := v.Verify(context.Background(), old); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	before := f.fetches.Load()

	// rotar y emitir con el kid nuevo: obliga un refresh del key set
	if err := f.rotator.ForceRotate(context.Background()); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	fresh := f.issue(t)
	if _, err := v.Verify(context.Background(), fresh); err != nil {
		t.Fatalf("verify post-rotation: %v", err)
	}
	if f.fetches.Load() <= before {
		t.Fatal("expected a JWKS refetch for the unknown kid")
	}
}

func TestVerify_CachedSetAvoidsRefetch(t *testing.T) {
	f := newFixture(t)
	v := f.verifier()
	token := f.issue(t)

	f.now = f.now.Add(time.Minute)
	for i := 0; i < 5; i++ {
		if _, err := v.Verify(context.Background(), token); err != nil {
			t.Fatalf("verify #%d: %v", i, err)
		}
	}
	if n := f.fetches.Load(); n != 1 {
		t.Fatalf("jwks fetches = %d, want 1", n)
	}
}

func TestMiddleware_UniformUnauthorized(t *testing.T) {
	f := newFixture(t)
	v := f.verifier()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := verifier.ClaimsFrom(r.Context())
		if claims["sub"] != "u-1" {
			t.Fatalf("claims in ctx = %v", claims)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := v.Middleware(next)

	f.now = f.now.Add(time.Minute)
	for _, header := range []string{"", "Bearer ", "Bearer not-a-jwt", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+f.issue(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("valid token: status = %d, want 204", rec.Code)
	}
}
