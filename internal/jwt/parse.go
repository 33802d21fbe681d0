package jwt

import (
	"context"
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ParseRS256 valida firma por kid contra el keystore local, chequea iss (si
// expectedIss != "") y exp/nbf. Devuelve las claims como map[string]any.
// Solo para el propio auth server; los verifiers externos usan el JWKS.
func ParseRS256(ctx context.Context, token string, ks *Keystore, expectedIss string) (map[string]any, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("kid_missing")
		}
		return ks.PublicKeyByKID(ctx, kid)
	}

	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{"RS256"})}
	if expectedIss != "" {
		opts = append(opts, jwtv5.WithIssuer(expectedIss))
	}
	tok, err := jwtv5.Parse(token, keyfunc, opts...)
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid_jwt")
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims_type")
	}
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}
