// Package settings manages the game settings singleton. The record is created
// lazily: reads fall back to both ranking flags off until the first toggle.
package settings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/store"
)

type Config struct {
	Settings store.Settings
}

type Service struct {
	settings store.Settings
}

func NewService(c Config) *Service {
	return &Service{settings: c.Settings}
}

func (s *Service) Get(ctx context.Context) (*domain.GameSettings, error) {
	gs, err := s.settings.Get(ctx)
	if errors.IsCode(err, errors.CodeNotFound) {
		return &domain.GameSettings{}, nil
	}
	if err != nil {
		return nil, err
	}

	return gs, nil
}

func (s *Service) ToggleUsersRankingVisibility(ctx context.Context) error {
	return s.toggle(ctx, func(gs *domain.GameSettings) {
		gs.IsUsersRankingVisible = !gs.IsUsersRankingVisible
	})
}

func (s *Service) ToggleTeamsRankingVisibility(ctx context.Context) error {
	return s.toggle(ctx, func(gs *domain.GameSettings) {
		gs.IsTeamsRankingVisible = !gs.IsTeamsRankingVisible
	})
}

func (s *Service) toggle(ctx context.Context, flip func(*domain.GameSettings)) error {
	gs, err := s.settings.Get(ctx)
	if errors.IsCode(err, errors.CodeNotFound) {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate settings ID: %w", err)
		}

		gs = &domain.GameSettings{SettingsID: id.String()}
		flip(gs)
		return s.settings.Insert(ctx, gs)
	}
	if err != nil {
		return err
	}

	flip(gs)
	return s.settings.Update(ctx, gs)
}
