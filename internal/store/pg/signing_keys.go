package pg

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/jackc/pgx/v5"
)

// GetActiveSigningKey: clave active más reciente.
func (s *Store) GetActiveSigningKey(ctx context.Context) (*core.SigningKey, error) {
	const q = `
SELECT kid, alg, public_key, private_key, status, created_at, expires_at, rotated_at
FROM signing_keys
WHERE status = 'active'
ORDER BY created_at DESC
LIMIT 1`
	row := s.pool.QueryRow(ctx, q)

	var k core.SigningKey
	var rotatedAt *time.Time
	if err := row.Scan(&k.KID, &k.Alg, &k.PublicKey, &k.PrivateKey, &k.Status, &k.CreatedAt, &k.ExpiresAt, &rotatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	k.RotatedAt = rotatedAt
	return &k, nil
}

// ListPublishableSigningKeys: claves con expires_at > now (active + retired),
// sin material privado. Una clave retired sigue publicándose hasta que vence
// para que los tokens firmados antes de la rotación verifiquen.
func (s *Store) ListPublishableSigningKeys(ctx context.Context, now time.Time) ([]core.SigningKey, error) {
	const q = `
SELECT kid, alg, public_key, NULL::bytea AS private_key, status, created_at, expires_at, rotated_at
FROM signing_keys
WHERE expires_at > $1
ORDER BY status ASC, created_at DESC`
	rows, err := s.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SigningKey
	for rows.Next() {
		var k core.SigningKey
		var rotatedAt *time.Time
		if err := rows.Scan(&k.KID, &k.Alg, &k.PublicKey, &k.PrivateKey, &k.Status, &k.CreatedAt, &k.ExpiresAt, &rotatedAt); err != nil {
			return nil, err
		}
		k.RotatedAt = rotatedAt
		out = append(out, k)
	}
	return out, rows.Err()
}

// CreateSigningKey inserta la nueva como active y pasa la active previa a
// retired en una sola tx. Retirar PRIMERO evita violar el índice parcial
// que garantiza una sola fila active.
func (s *Store) CreateSigningKey(ctx context.Context, k *core.SigningKey) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	{
		const q = `UPDATE signing_keys SET status='retired', rotated_at=now() WHERE status='active'`
		if _, err := tx.Exec(ctx, q); err != nil {
			return err
		}
	}
	{
		const q = `
INSERT INTO signing_keys (kid, alg, public_key, private_key, status, created_at, expires_at)
VALUES ($1, $2, $3, $4, 'active', $5, $6)`
		if _, err := tx.Exec(ctx, q, k.KID, k.Alg, k.PublicKey, k.PrivateKey, k.CreatedAt, k.ExpiresAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// RetireSigningKey es idempotente: solo toca filas todavía active.
func (s *Store) RetireSigningKey(ctx context.Context, kid string) error {
	const q = `UPDATE signing_keys SET status='retired', rotated_at=now() WHERE kid=$1 AND status='active'`
	_, err := s.pool.Exec(ctx, q, kid)
	return err
}
