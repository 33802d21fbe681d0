package pg

import (
	"context"
	"errors"

	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/jackc/pgx/v5"
)

func (s *Store) GetClientByClientID(ctx context.Context, clientID string) (*core.Client, error) {
	const q = `
SELECT id, client_id, name, client_url, created_at
FROM clients
WHERE client_id = $1`
	row := s.pool.QueryRow(ctx, q, clientID)
	var c core.Client
	if err := row.Scan(&c.ID, &c.ClientID, &c.Name, &c.ClientURL, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *core.Client) error {
	const q = `
INSERT INTO clients (id, client_id, name, client_url, created_at)
VALUES ($1, $2, $3, $4, now())`
	if _, err := s.pool.Exec(ctx, q, c.ID, c.ClientID, c.Name, c.ClientURL); err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}
