// Package verifier valida tokens del lado del resource server. Solo conoce
// el endpoint JWKS publicado; nunca toca el store privado de claves.
package verifier

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/keysmith/internal/cache"
	cachemem "github.com/dropDatabas3/keysmith/internal/cache/memory"
)

// ErrVerification colapsa toda falla (kid desconocido, firma, expiración,
// audience/issuer) en un solo resultado, sin filtrar cuál chequeo falló.
var ErrVerification = errors.New("verification_failed")

const cacheKey = "jwks"

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type Config struct {
	JWKSURL  string
	Issuer   string
	Audience string

	// CacheTTL acota cuánto puede tardar en verse una clave rotada.
	CacheTTL time.Duration
	HTTP     *http.Client
	Cache    cache.Cache
}

type Verifier struct {
	cfg Config
	sf  singleflight.Group
	now func() time.Time
}

func New(cfg Config) *Verifier {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Cache == nil {
		cfg.Cache = cachemem.New(cfg.CacheTTL)
	}
	return &Verifier{cfg: cfg, now: time.Now}
}

// WithClock inyecta un reloj (tests).
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify valida firma por kid contra el JWKS cacheado (con un refresh si el
// kid no está), y chequea exp/iat, audience e issuer. Devuelve las claims.
func (v *Verifier) Verify(ctx context.Context, token string) (map[string]any, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrVerification
		}
		pub, err := v.publicKey(ctx, kid, false)
		if err != nil {
			// una clave recién rotada puede no estar en el snapshot cacheado
			pub, err = v.publicKey(ctx, kid, true)
		}
		if err != nil {
			return nil, ErrVerification
		}
		return pub, nil
	}

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithIssuer(v.cfg.Issuer),
		jwtv5.WithAudience(v.cfg.Audience),
		jwtv5.WithIssuedAt(),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(func() time.Time { return v.now() }),
	)
	if err != nil || !tok.Valid {
		return nil, ErrVerification
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrVerification
	}
	out := make(map[string]any, len(claims))
	for k, val := range claims {
		out[k] = val
	}
	return out, nil
}

func (v *Verifier) publicKey(ctx context.Context, kid string, refresh bool) (*rsa.PublicKey, error) {
	doc, err := v.keySet(ctx, refresh)
	if err != nil {
		return nil, err
	}
	for _, k := range doc.Keys {
		if k.Kid == kid && k.Kty == "RSA" {
			return parseRSAJWK(k)
		}
	}
	return nil, fmt.Errorf("kid %q not in key set", kid)
}

func (v *Verifier) keySet(ctx context.Context, refresh bool) (*jwks, error) {
	if !refresh {
		if b, ok := v.cfg.Cache.Get(cacheKey); ok {
			var doc jwks
			if err := json.Unmarshal(b, &doc); err == nil {
				return &doc, nil
			}
		}
	}

	b, err, _ := v.sf.Do(cacheKey, func() (any, error) {
		return v.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	raw := b.([]byte)
	v.cfg.Cache.Set(cacheKey, raw, v.cfg.CacheTTL)

	var doc jwks
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (v *Verifier) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.cfg.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func parseRSAJWK(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := new(big.Int).SetBytes(eb)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(e.Int64()),
	}, nil
}
