package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isati/wei-api/internal/domain"
)

type Settings struct {
	db *pgxpool.Pool
}

func (s *Settings) Get(ctx context.Context) (*domain.GameSettings, error) {
	const stmt = `SELECT settings_id, users_ranking_visible, teams_ranking_visible FROM game_settings LIMIT 1;`

	var gs domain.GameSettings
	err := s.db.QueryRow(ctx, stmt).Scan(&gs.SettingsID, &gs.IsUsersRankingVisible, &gs.IsTeamsRankingVisible)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("game settings", "singleton")
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	return &gs, nil
}

func (s *Settings) Insert(ctx context.Context, gs *domain.GameSettings) error {
	const stmt = `INSERT INTO game_settings (settings_id, users_ranking_visible, teams_ranking_visible) VALUES ($1, $2, $3);`

	_, err := s.db.Exec(ctx, stmt, gs.SettingsID, gs.IsUsersRankingVisible, gs.IsTeamsRankingVisible)
	if err != nil {
		return convertErr(err)
	}

	return nil
}

func (s *Settings) Update(ctx context.Context, gs *domain.GameSettings) error {
	const stmt = `UPDATE game_settings SET users_ranking_visible = $2, teams_ranking_visible = $3 WHERE settings_id = $1;`

	tag, err := s.db.Exec(ctx, stmt, gs.SettingsID, gs.IsUsersRankingVisible, gs.IsTeamsRankingVisible)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("game settings", gs.SettingsID)
	}

	return nil
}
