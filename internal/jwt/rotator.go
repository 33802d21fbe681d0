package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/store/core"
)

// Rotator mantiene exactamente una clave active y conserva las retiradas
// hasta su vencimiento. El ciclo es idempotente: correrlo dos veces seguidas
// sin tiempo transcurrido no muta nada.
type Rotator struct {
	Store core.SigningKeyStore
	Log   *zap.Logger

	// Interval es la cadencia del loop; RenewalWindow y Validity son knobs
	// independientes. Cualquier cadencia es segura porque el chequeo de
	// frescura vive en RotateIfNeeded, no en el timer.
	Interval      time.Duration
	RenewalWindow time.Duration
	Validity      time.Duration

	// OnRotate se llama tras una rotación efectiva (invalidación de caches).
	OnRotate func()

	now func() time.Time
}

func NewRotator(store core.SigningKeyStore, log *zap.Logger) *Rotator {
	return &Rotator{
		Store:         store,
		Log:           log,
		Interval:      7 * 24 * time.Hour,
		RenewalWindow: 10 * 24 * time.Hour,
		Validity:      365 * 24 * time.Hour,
		now:           time.Now,
	}
}

// WithClock inyecta un reloj (tests).
func (r *Rotator) WithClock(now func() time.Time) *Rotator {
	r.now = now
	return r
}

// Run corre el loop hasta que ctx se cancele. Un ciclo fallido se loguea y
// se reintenta con backoff exponencial acotado por Interval; nunca tira
// abajo el proceso host.
func (r *Rotator) Run(ctx context.Context) {
	const baseBackoff = time.Minute

	backoff := baseBackoff
	next := time.Duration(0) // primer ciclo inmediato
	for {
		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.Log.Info("rotator stopped")
			return
		case <-timer.C:
		}

		rotated, err := r.RotateIfNeeded(ctx)
		switch {
		case err != nil:
			r.Log.Error("rotation cycle failed", zap.Error(err), zap.Duration("retry_in", backoff))
			next = backoff
			backoff *= 2
			if backoff > r.Interval {
				backoff = r.Interval
			}
		default:
			if rotated {
				r.Log.Info("signing key rotated")
			}
			next = r.Interval
			backoff = baseBackoff
		}
	}
}

// RotateIfNeeded es la función de reconciliación: crea una clave nueva si no
// hay active o si la active entra en la ventana de renovación; la anterior
// queda retired pero publicable hasta su expires_at.
func (r *Rotator) RotateIfNeeded(ctx context.Context) (bool, error) {
	now := r.now().UTC()

	active, err := r.Store.GetActiveSigningKey(ctx)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return false, err
	}
	if active != nil && active.ExpiresAt.After(now.Add(r.RenewalWindow)) {
		return false, nil
	}
	if err := r.rotate(ctx, active, now); err != nil {
		return false, err
	}
	return true, nil
}

// ForceRotate crea una clave nueva aunque la activa siga fresca (rotación de
// emergencia vía admin).
func (r *Rotator) ForceRotate(ctx context.Context) error {
	now := r.now().UTC()
	active, err := r.Store.GetActiveSigningKey(ctx)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	return r.rotate(ctx, active, now)
}

func (r *Rotator) rotate(ctx context.Context, active *core.SigningKey, now time.Time) error {
	priv, err := GenerateRSA()
	if err != nil {
		return err
	}
	newKey := &core.SigningKey{
		KID:        uuid.NewString(),
		Alg:        "RS256",
		PublicKey:  MarshalPublicKey(&priv.PublicKey),
		PrivateKey: MarshalPrivateKey(priv),
		Status:     core.KeyActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(r.Validity),
	}
	if err := r.Store.CreateSigningKey(ctx, newKey); err != nil {
		return err
	}
	if active != nil {
		// CreateSigningKey ya la retiró en la misma tx; el retire explícito
		// es idempotente y cubre stores que no lo hagan.
		if err := r.Store.RetireSigningKey(ctx, active.KID); err != nil {
			return err
		}
		r.Log.Info("previous key retired",
			zap.String("kid", active.KID),
			zap.Time("publishable_until", active.ExpiresAt))
	}
	r.Log.Info("new signing key created",
		zap.String("kid", newKey.KID),
		zap.Time("expires_at", newKey.ExpiresAt))

	if r.OnRotate != nil {
		r.OnRotate()
	}
	return nil
}
