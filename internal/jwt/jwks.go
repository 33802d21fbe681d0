package jwt

import (
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/dropDatabas3/keysmith/internal/store/core"
)

// JWK es una entrada RSA del documento de descubrimiento: el módulo y el
// exponente van en base64url sin padding.
type JWK struct {
	Kty string `json:"kty"` // "RSA"
	Use string `json:"use"` // "sig"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "RS256"
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// BuildJWKS proyecta las claves publicables a JWKS JSON. Las filas cuyo
// material público no parsea se saltan en lugar de romper el endpoint.
func BuildJWKS(keys []core.SigningKey) ([]byte, error) {
	out := JWKS{Keys: make([]JWK, 0, len(keys))}
	for _, k := range keys {
		pub, err := ParsePublicKey(k.PublicKey)
		if err != nil {
			continue
		}
		alg := k.Alg
		if alg == "" {
			alg = "RS256"
		}
		out.Keys = append(out.Keys, JWK{
			Kty: "RSA",
			Use: "sig",
			Kid: k.KID,
			Alg: alg,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return json.Marshal(out)
}
