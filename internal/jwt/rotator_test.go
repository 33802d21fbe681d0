package jwt_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/jwt"
	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/dropDatabas3/keysmith/internal/store/memory"
)

func newTestRotator(s core.SigningKeyStore, now *time.Time) *jwt.Rotator {
	r := jwt.NewRotator(s, zap.NewNop())
	r.WithClock(func() time.Time { return *now })
	return r
}

func TestRotateIfNeeded_FirstRunCreatesKey(t *testing.T) {
	s := memory.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRotator(s, &now)

	rotated, err := r.RotateIfNeeded(context.Background())
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if !rotated {
		t.Fatal("first run should rotate")
	}

	act, err := s.GetActiveSigningKey(context.Background())
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if act.Alg != "RS256" {
		t.Fatalf("alg = %s", act.Alg)
	}
	wantExp := now.Add(365 * 24 * time.Hour)
	if !act.ExpiresAt.Equal(wantExp) {
		t.Fatalf("expires_at = %v, want %v", act.ExpiresAt, wantExp)
	}
	if _, err := jwt.ParsePrivateKey(act.PrivateKey); err != nil {
		t.Fatalf("stored private key does not parse: %v", err)
	}
}

func TestRotateIfNeeded_Idempotent(t *testing.T) {
	s := memory.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRotator(s, &now)

	if _, err := r.RotateIfNeeded(context.Background()); err != nil {
		t.Fatalf("first: %v", err)
	}
	first, _ := s.GetActiveSigningKey(context.Background())

	rotated, err := r.RotateIfNeeded(context.Background())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if rotated {
		t.Fatal("second immediate run should be a no-op")
	}
	after, _ := s.GetActiveSigningKey(context.Background())
	if after.KID != first.KID {
		t.Fatalf("active changed: %s -> %s", first.KID, after.KID)
	}
}

func TestRotateIfNeeded_RenewalWindow(t *testing.T) {
	s := memory.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRotator(s, &now)
	ctx := context.Background()

	if _, err := r.RotateIfNeeded(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	old, _ := s.GetActiveSigningKey(ctx)

	// avanzar hasta que falten 9 días para el vencimiento (ventana de 10)
	now = old.ExpiresAt.Add(-9 * 24 * time.Hour)

	rotated, err := r.RotateIfNeeded(ctx)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if !rotated {
		t.Fatal("key inside renewal window should rotate")
	}

	act, _ := s.GetActiveSigningKey(ctx)
	if act.KID == old.KID {
		t.Fatal("active kid did not change")
	}

	// la vieja sigue publicable como retired hasta su expires_at
	keys, err := s.ListPublishableSigningKeys(ctx, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("publishable = %d, want 2", len(keys))
	}
	var oldStatus core.KeyStatus
	for _, k := range keys {
		if k.KID == old.KID {
			oldStatus = k.Status
		}
	}
	if oldStatus != core.KeyRetired {
		t.Fatalf("old key status = %s, want retired", oldStatus)
	}
}

func TestForceRotate_FreshKey(t *testing.T) {
	s := memory.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRotator(s, &now)
	ctx := context.Background()

	if _, err := r.RotateIfNeeded(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	old, _ := s.GetActiveSigningKey(ctx)

	calls := 0
	r.OnRotate = func() { calls++ }
	if err := r.ForceRotate(ctx); err != nil {
		t.Fatalf("force: %v", err)
	}
	act, _ := s.GetActiveSigningKey(ctx)
	if act.KID == old.KID {
		t.Fatal("force rotate kept the same key")
	}
	if calls != 1 {
		t.Fatalf("OnRotate calls = %d, want 1", calls)
	}
}
