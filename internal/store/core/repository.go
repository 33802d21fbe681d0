package core

import (
	"context"
	"time"
)

// SigningKeyStore serializa las transiciones de estado de las claves:
// nunca puede haber dos claves active a la vez, ni observarse una rotación
// a medio commitear desde los paths de lectura.
type SigningKeyStore interface {
	// GetActiveSigningKey devuelve la clave active o ErrNotFound.
	GetActiveSigningKey(ctx context.Context) (*SigningKey, error)

	// ListPublishableSigningKeys devuelve toda clave con expires_at > now
	// (active + retired), sin material privado, ordenadas active-first.
	ListPublishableSigningKeys(ctx context.Context, now time.Time) ([]SigningKey, error)

	// CreateSigningKey inserta k como active y, en la misma transacción,
	// pasa a retired cualquier active previa.
	CreateSigningKey(ctx context.Context, k *SigningKey) error

	// RetireSigningKey es idempotente: no-op si la clave ya está retired
	// o no existe.
	RetireSigningKey(ctx context.Context, kid string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
}

type ClientStore interface {
	GetClientByClientID(ctx context.Context, clientID string) (*Client, error)
	CreateClient(ctx context.Context, c *Client) error
}

// Store agrupa los repositorios que usa el auth server.
type Store interface {
	SigningKeyStore
	UserStore
	ClientStore

	Ping(ctx context.Context) error
	Close()
}
