package core

import "time"

type KeyStatus string

const (
	KeyActive  KeyStatus = "active"
	KeyRetired KeyStatus = "retired"
)

// SigningKey es un par RSA persistido. PrivateKey puede ser nil cuando la
// fila viene de una consulta publicable (nunca sale del proceso emisor).
type SigningKey struct {
	KID        string
	Alg        string // "RS256"
	PublicKey  []byte // PKCS#1 DER
	PrivateKey []byte // PKCS#1 DER, nil en listados publicables
	Status     KeyStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RotatedAt  *time.Time
}

// Expired reporta si la clave ya no debe publicarse.
func (k *SigningKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.After(now)
}
