package jwt

import (
	"context"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/keysmith/internal/store/core"
)

// Issuer firma tokens RS256 con la clave activa del keystore.
type Issuer struct {
	Iss       string        // "iss"
	Keys      *Keystore     // keystore cacheado
	AccessTTL time.Duration // TTL de los access tokens (1h)

	now func() time.Time
}

func NewIssuer(iss string, ks *Keystore) *Issuer {
	return &Issuer{
		Iss:       iss,
		Keys:      ks,
		AccessTTL: time.Hour,
		now:       time.Now,
	}
}

// WithClock inyecta un reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue emite un access token para (user, client): sub = user id, jti fresco
// por llamada, un claim rol por cada rol del usuario, aud = URL registrada
// del client. El kid de la clave activa va en el header; si no hay clave
// activa devuelve ErrNoActiveKey (falla operacional, no de credenciales).
func (i *Issuer) Issue(ctx context.Context, u *core.User, c *core.Client) (string, time.Time, error) {
	kid, priv, err := i.Keys.Active(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	now := i.now().UTC()
	exp := now.Add(i.AccessTTL)
	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   u.ID,
		"aud":   c.ClientURL,
		"jti":   uuid.NewString(),
		"name":  u.FirstName,
		"email": u.Email,
		"roles": u.Roles,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = kid
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ActiveKID devuelve el kid activo actual (readyz lo expone en un header).
func (i *Issuer) ActiveKID(ctx context.Context) (string, error) {
	kid, _, err := i.Keys.Active(ctx)
	return kid, err
}

// Keyfunc elige la pubkey por 'kid' del token (active o retired publicable).
// La usa el middleware local del auth server; los resource servers verifican
// contra el JWKS publicado, nunca contra el store.
func (i *Issuer) Keyfunc(ctx context.Context) jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid != "" {
			return i.Keys.PublicKeyByKID(ctx, kid)
		}
		_, priv, err := i.Keys.Active(ctx)
		if err != nil {
			return nil, err
		}
		return &priv.PublicKey, nil
	}
}
