package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
INSERT INTO users (id, email, first_name, last_name, password_hash, created_at)
VALUES ($1, lower($2), $3, $4, $5, now())`
	if _, err := tx.Exec(ctx, q, u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash); err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	for _, role := range u.Roles {
		const qr = `
INSERT INTO user_roles (user_id, role_name)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, qr, u.ID, role); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	const q = `
SELECT id, email, first_name, last_name, password_hash, created_at
FROM users
WHERE email = lower($1)`
	return s.scanUserWithRoles(ctx, q, strings.TrimSpace(email))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	const q = `
SELECT id, email, first_name, last_name, password_hash, created_at
FROM users
WHERE id = $1`
	return s.scanUserWithRoles(ctx, q, id)
}

func (s *Store) scanUserWithRoles(ctx context.Context, q string, arg any) (*core.User, error) {
	row := s.pool.QueryRow(ctx, q, arg)
	var u core.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	const qr = `SELECT role_name FROM user_roles WHERE user_id = $1 ORDER BY role_name`
	rows, err := s.pool.Query(ctx, qr, u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		u.Roles = append(u.Roles, r)
	}
	return &u, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *core.User) error {
	const q = `
UPDATE users
SET email = lower($2), first_name = $3, last_name = $4, password_hash = $5
WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
