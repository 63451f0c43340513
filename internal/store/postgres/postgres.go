// Package postgres implements the store interfaces on a pgx pool. The pending
// and finished challenge maps and the member list are kept as jsonb columns,
// images live in a blobs table. See schema.sql for the tables.
package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
)

// Store bundles the collections backed by one pool.
type Store struct {
	db *pgxpool.Pool

	Users      *Users
	Teams      *Teams
	Challenges *Challenges
	Settings   *Settings
	Blobs      *Blobs
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db:         db,
		Users:      &Users{db: db},
		Teams:      &Teams{db: db},
		Challenges: &Challenges{db: db},
		Settings:   &Settings{db: db},
		Blobs:      &Blobs{db: db},
	}
}

// UpdateUserAndTeam writes the user and its team in one transaction, so a
// validated score change never lands on only one of the two records.
func (s *Store) UpdateUserAndTeam(ctx context.Context, u *domain.User, t *domain.Team) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	if err = updateUser(ctx, tx, u); err != nil {
		return err
	}
	if err = updateTeam(ctx, tx, t); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const codeUniqueViolation = "23505"

// convertErr maps constraint violations to coded errors so services can
// surface duplicates as conflicts without knowing about postgres.
func convertErr(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return errors.New(errors.CodeAlreadyExists, errors.WithCause(err))
	}

	return err
}

func notFound(entity, id string) error {
	return errors.New(errors.CodeNotFound, errors.WithMessagef("%s not found: %s", entity, id))
}
