package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isati/wei-api/internal/domain"
)

type Users struct {
	db *pgxpool.Pool
}

const userColumns = `user_id, first_name, last_name, username, email, password_hash, password_salt, role, score, profile_picture_id, pending, finished`

func scanUser(r pgx.Row) (*domain.User, error) {
	var u domain.User
	err := r.Scan(
		&u.UserID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.PasswordSalt, &u.Role, &u.Score, &u.ProfilePictureID,
		&u.PendingChallenges, &u.FinishedChallenges,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (s *Users) Get(ctx context.Context, userID string) (*domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`

	u, err := scanUser(s.db.QueryRow(ctx, stmt, userID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

func (s *Users) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1;`

	u, err := scanUser(s.db.QueryRow(ctx, stmt, login))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user", login)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by login: %w", err)
	}

	return u, nil
}

func (s *Users) List(ctx context.Context) ([]domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users ORDER BY score DESC;`

	return s.list(ctx, stmt)
}

func (s *Users) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY score DESC;`

	return s.list(ctx, stmt, role)
}

func (s *Users) list(ctx context.Context, stmt string, args ...any) ([]domain.User, error) {
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.User, error) {
		u, err := scanUser(r)
		if err != nil {
			return domain.User{}, err
		}
		return *u, nil
	})
}

func (s *Users) Insert(ctx context.Context, u *domain.User) error {
	const stmt = `
INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := s.db.Exec(ctx, stmt,
		u.UserID, u.FirstName, u.LastName, u.Username, u.Email,
		u.PasswordHash, u.PasswordSalt, u.Role, u.Score, u.ProfilePictureID,
		u.PendingChallenges, u.FinishedChallenges,
	)
	if err != nil {
		return convertErr(err)
	}

	return nil
}

func (s *Users) Update(ctx context.Context, u *domain.User) error {
	return updateUser(ctx, s.db, u)
}

func updateUser(ctx context.Context, db execer, u *domain.User) error {
	const stmt = `
UPDATE users SET
	first_name = $2, last_name = $3, username = $4, email = $5,
	password_hash = $6, password_salt = $7, role = $8, score = $9,
	profile_picture_id = $10, pending = $11, finished = $12
WHERE user_id = $1;`

	tag, err := db.Exec(ctx, stmt,
		u.UserID, u.FirstName, u.LastName, u.Username, u.Email,
		u.PasswordHash, u.PasswordSalt, u.Role, u.Score, u.ProfilePictureID,
		u.PendingChallenges, u.FinishedChallenges,
	)
	if err != nil {
		return convertErr(err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("user", u.UserID)
	}

	return nil
}

func (s *Users) Delete(ctx context.Context, userID string) error {
	const stmt = `DELETE FROM users WHERE user_id = $1;`

	if _, err := s.db.Exec(ctx, stmt, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}
