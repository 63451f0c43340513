package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isati/wei-api/internal/domain"
)

type Challenges struct {
	db *pgxpool.Pool
}

const challengeColumns = `challenge_id, name, description, image_id, value, repetitions, is_for_team, is_visible`

func scanChallenge(r pgx.Row) (*domain.Challenge, error) {
	var c domain.Challenge
	err := r.Scan(
		&c.ChallengeID, &c.Name, &c.Description, &c.ImageID,
		&c.Value, &c.NumberOfRepetitions, &c.IsForTeam, &c.IsVisible,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *Challenges) Get(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	const stmt = `SELECT ` + challengeColumns + ` FROM challenges WHERE challenge_id = $1;`

	c, err := scanChallenge(s.db.QueryRow(ctx, stmt, challengeID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("challenge", challengeID)
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}

	return c, nil
}

func (s *Challenges) List(ctx context.Context) ([]domain.Challenge, error) {
	const stmt = `SELECT ` + challengeColumns + ` FROM challenges ORDER BY name;`

	return s.list(ctx, stmt)
}

func (s *Challenges) ListVisible(ctx context.Context, forTeam bool) ([]domain.Challenge, error) {
	const stmt = `SELECT ` + challengeColumns + ` FROM challenges WHERE is_visible AND is_for_team = $1 ORDER BY name;`

	return s.list(ctx, stmt, forTeam)
}

func (s *Challenges) list(ctx context.Context, stmt string, args ...any) ([]domain.Challenge, error) {
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Challenge, error) {
		c, err := scanChallenge(r)
		if err != nil {
			return domain.Challenge{}, err
		}
		return *c, nil
	})
}

func (s *Challenges) Insert(ctx context.Context, c *domain.Challenge) error {
	const stmt = `
INSERT INTO challenges (` + challengeColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := s.db.Exec(ctx, stmt,
		c.ChallengeID, c.Name, c.Description, c.ImageID,
		c.Value, c.NumberOfRepetitions, c.IsForTeam, c.IsVisible,
	)
	if err != nil {
		return convertErr(err)
	}

	return nil
}

func (s *Challenges) Update(ctx context.Context, c *domain.Challenge) error {
	const stmt = `
UPDATE challenges SET
	name = $2, description = $3, image_id = $4, value = $5,
	repetitions = $6, is_for_team = $7, is_visible = $8
WHERE challenge_id = $1;`

	tag, err := s.db.Exec(ctx, stmt,
		c.ChallengeID, c.Name, c.Description, c.ImageID,
		c.Value, c.NumberOfRepetitions, c.IsForTeam, c.IsVisible,
	)
	if err != nil {
		return convertErr(err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("challenge", c.ChallengeID)
	}

	return nil
}

func (s *Challenges) Delete(ctx context.Context, challengeID string) error {
	const stmt = `DELETE FROM challenges WHERE challenge_id = $1;`

	if _, err := s.db.Exec(ctx, stmt, challengeID); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}

	return nil
}
