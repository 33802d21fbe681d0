package jwt

import (
	"context"
	"crypto/rsa"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/keysmith/internal/store/core"
)

var (
	ErrNoActiveKey = errors.New("no_active_signing_key")
	ErrKIDNotFound = errors.New("kid_not_found")
)

// Keystore mantiene cache local de lectura sobre el SigningKeyStore.
// Los paths de emisión y publicación leen de acá; la rotación invalida.
type Keystore struct {
	store core.SigningKeyStore

	mu         sync.RWMutex
	activeKID  string
	activePriv *rsa.PrivateKey
	cacheUntil time.Time
	cacheTTL   time.Duration

	lastJWKS  []byte
	jwksUntil time.Time
	jwksTTL   time.Duration

	sf singleflight.Group
}

func NewKeystore(s core.SigningKeyStore) *Keystore {
	return &Keystore{
		store:    s,
		cacheTTL: 30 * time.Second,
		jwksTTL:  15 * time.Second,
	}
}

// Active devuelve la clave active (cacheada). El kid que se emita con esta
// clave queda fijado en el token: una rotación posterior no lo invalida.
func (k *Keystore) Active(ctx context.Context) (string, *rsa.PrivateKey, error) {
	k.mu.RLock()
	if time.Now().Before(k.cacheUntil) && k.activeKID != "" && k.activePriv != nil {
		defer k.mu.RUnlock()
		return k.activeKID, k.activePriv, nil
	}
	k.mu.RUnlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	if time.Now().Before(k.cacheUntil) && k.activeKID != "" && k.activePriv != nil {
		return k.activeKID, k.activePriv, nil
	}

	rec, err := k.store.GetActiveSigningKey(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", nil, ErrNoActiveKey
		}
		return "", nil, err
	}
	priv, err := ParsePrivateKey(rec.PrivateKey)
	if err != nil {
		return "", nil, err
	}
	k.activeKID = rec.KID
	k.activePriv = priv
	k.cacheUntil = time.Now().Add(k.cacheTTL)
	return k.activeKID, k.activePriv, nil
}

// PublicKeyByKID resuelve la pubkey para un kid (active o retired no vencida).
func (k *Keystore) PublicKeyByKID(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	if kid != "" && kid == k.activeKID && k.activePriv != nil {
		pub := k.activePriv.PublicKey
		k.mu.RUnlock()
		return &pub, nil
	}
	k.mu.RUnlock()

	recs, err := k.store.ListPublishableSigningKeys(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.KID == kid {
			return ParsePublicKey(r.PublicKey)
		}
	}
	return nil, ErrKIDNotFound
}

// JWKSJSON construye el JWKS desde el store con cache corto. Reconstrucciones
// concurrentes colapsan en una sola vía singleflight.
func (k *Keystore) JWKSJSON(ctx context.Context) ([]byte, error) {
	k.mu.RLock()
	if time.Now().Before(k.jwksUntil) && len(k.lastJWKS) > 0 {
		defer k.mu.RUnlock()
		return k.lastJWKS, nil
	}
	k.mu.RUnlock()

	v, err, _ := k.sf.Do("jwks", func() (any, error) {
		recs, err := k.store.ListPublishableSigningKeys(ctx, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		j, err := BuildJWKS(recs)
		if err != nil {
			return nil, err
		}
		k.mu.Lock()
		k.lastJWKS = j
		k.jwksUntil = time.Now().Add(k.jwksTTL)
		k.mu.Unlock()
		return j, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate descarta el cache; la rotación llama esto tras crear una clave
// para que la nueva aparezca en JWKS sin esperar el TTL.
func (k *Keystore) Invalidate() {
	k.mu.Lock()
	k.activeKID = ""
	k.activePriv = nil
	k.cacheUntil = time.Time{}
	k.lastJWKS = nil
	k.jwksUntil = time.Time{}
	k.mu.Unlock()
}
