package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isati/wei-api/internal/domain"
)

type Teams struct {
	db *pgxpool.Pool
}

const teamColumns = `team_id, name, captain_id, members, score, image_id, finished`

func scanTeam(r pgx.Row) (*domain.Team, error) {
	var t domain.Team
	err := r.Scan(
		&t.TeamID, &t.Name, &t.CaptainID, &t.Members, &t.Score, &t.ImageID,
		&t.FinishedChallenges,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Teams) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	const stmt = `SELECT ` + teamColumns + ` FROM teams WHERE team_id = $1;`

	t, err := scanTeam(s.db.QueryRow(ctx, stmt, teamID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("team", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}

	return t, nil
}

func (s *Teams) List(ctx context.Context) ([]domain.Team, error) {
	const stmt = `SELECT ` + teamColumns + ` FROM teams ORDER BY score DESC;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Team, error) {
		t, err := scanTeam(r)
		if err != nil {
			return domain.Team{}, err
		}
		return *t, nil
	})
}

func (s *Teams) FindByCaptain(ctx context.Context, captainID string) (*domain.Team, error) {
	const stmt = `SELECT ` + teamColumns + ` FROM teams WHERE captain_id = $1;`

	t, err := scanTeam(s.db.QueryRow(ctx, stmt, captainID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("team for captain", captainID)
	}
	if err != nil {
		return nil, fmt.Errorf("find team by captain: %w", err)
	}

	return t, nil
}

func (s *Teams) FindByUser(ctx context.Context, userID string) (*domain.Team, error) {
	// The ? operator matches string elements of the jsonb members array.
	const stmt = `SELECT ` + teamColumns + ` FROM teams WHERE captain_id = $1 OR members ? $1;`

	t, err := scanTeam(s.db.QueryRow(ctx, stmt, userID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("team for user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("find team by user: %w", err)
	}

	return t, nil
}

func (s *Teams) FindByMember(ctx context.Context, userID string) (*domain.Team, error) {
	const stmt = `SELECT ` + teamColumns + ` FROM teams WHERE members ? $1;`

	t, err := scanTeam(s.db.QueryRow(ctx, stmt, userID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("team for member", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("find team by member: %w", err)
	}

	return t, nil
}

func (s *Teams) Insert(ctx context.Context, t *domain.Team) error {
	const stmt = `
INSERT INTO teams (` + teamColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := s.db.Exec(ctx, stmt,
		t.TeamID, t.Name, t.CaptainID, t.Members, t.Score, t.ImageID,
		t.FinishedChallenges,
	)
	if err != nil {
		return convertErr(err)
	}

	return nil
}

func (s *Teams) Update(ctx context.Context, t *domain.Team) error {
	return updateTeam(ctx, s.db, t)
}

func updateTeam(ctx context.Context, db execer, t *domain.Team) error {
	const stmt = `
UPDATE teams SET
	name = $2, captain_id = $3, members = $4, score = $5, image_id = $6, finished = $7
WHERE team_id = $1;`

	tag, err := db.Exec(ctx, stmt,
		t.TeamID, t.Name, t.CaptainID, t.Members, t.Score, t.ImageID,
		t.FinishedChallenges,
	)
	if err != nil {
		return convertErr(err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("team", t.TeamID)
	}

	return nil
}

func (s *Teams) Delete(ctx context.Context, teamID string) error {
	const stmt = `DELETE FROM teams WHERE team_id = $1;`

	if _, err := s.db.Exec(ctx, stmt, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	return nil
}
