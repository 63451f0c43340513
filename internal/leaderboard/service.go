// Package leaderboard keeps user and team rankings in redis sorted sets,
// fed by score events from the validation workflow.
package leaderboard

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/event"
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

type Service struct {
	eb     *event.Bus
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameUserScoreUpdated, func(ctx context.Context, e event.Event) error {
		return s.updateUser(ctx, e.(domain.EventUserScoreUpdated))
	})
	s.eb.Subscribe(domain.EventNameTeamScoreUpdated, func(ctx context.Context, e event.Event) error {
		return s.updateTeam(ctx, e.(domain.EventTeamScoreUpdated))
	})
	s.eb.Subscribe(domain.EventNameUserRoleChanged, func(ctx context.Context, e event.Event) error {
		return s.changeUserRole(ctx, e.(domain.EventUserRoleChanged))
	})
	s.eb.Subscribe(domain.EventNameUserDeleted, func(ctx context.Context, e event.Event) error {
		return s.remove(ctx, s.usersKey(), e.(domain.EventUserDeleted).UserID)
	})
	s.eb.Subscribe(domain.EventNameTeamDeleted, func(ctx context.Context, e event.Event) error {
		return s.remove(ctx, s.teamsKey(), e.(domain.EventTeamDeleted).TeamID)
	})

	return s
}

// UserRanking returns the player leaderboard, best score first.
func (s *Service) UserRanking(ctx context.Context) ([]domain.RankingEntry, error) {
	return s.ranking(ctx, s.usersKey())
}

// TeamRanking returns the team leaderboard, best score first.
func (s *Service) TeamRanking(ctx context.Context) ([]domain.RankingEntry, error) {
	return s.ranking(ctx, s.teamsKey())
}

// TeamRank returns the 1-based rank of a team.
func (s *Service) TeamRank(ctx context.Context, teamID string) (int, error) {
	rank, err := s.redis.ZRevRank(ctx, s.teamsKey(), teamID).Result()
	if stderrors.Is(err, redis.Nil) {
		return 0, errors.New(errors.CodeNotFound,
			errors.WithMessagef("team not ranked: %s", teamID))
	}
	if err != nil {
		return 0, fmt.Errorf("team rank: %w", err)
	}

	return int(rank) + 1, nil
}

func (s *Service) ranking(ctx context.Context, key string) ([]domain.RankingEntry, error) {
	res, err := s.redis.ZRevRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get ranking: %w", err)
	}

	entries := make([]domain.RankingEntry, 0, len(res))
	for _, z := range res {
		id := z.Member.(string)

		name, err := s.redis.HGet(ctx, key+":names", id).Result()
		if err != nil && !stderrors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get ranking name: %w", err)
		}

		entries = append(entries, domain.RankingEntry{
			SubjectID: id,
			Name:      name,
			Score:     int(z.Score),
		})
	}

	return entries, nil
}

func (s *Service) updateUser(ctx context.Context, e domain.EventUserScoreUpdated) error {
	return s.update(ctx, s.usersKey(), e.UserID, e.Username, e.Score)
}

// changeUserRole keeps only plain players in the ranking. Captains and
// administrators compete through their team, so a promotion drops the entry
// and a demotion restores it with the carried score.
func (s *Service) changeUserRole(ctx context.Context, e domain.EventUserRoleChanged) error {
	if e.Role != domain.RoleDefault {
		return s.remove(ctx, s.usersKey(), e.UserID)
	}

	return s.update(ctx, s.usersKey(), e.UserID, e.Username, e.Score)
}

func (s *Service) updateTeam(ctx context.Context, e domain.EventTeamScoreUpdated) error {
	return s.update(ctx, s.teamsKey(), e.TeamID, e.TeamName, e.Score)
}

// update overwrites the subject's score; the names hash keeps display names
// out of the sorted set members.
func (s *Service) update(ctx context.Context, key, id, name string, score int) error {
	if err := s.redis.ZAdd(ctx, key, redis.Z{
		Score:  float64(score),
		Member: id,
	}).Err(); err != nil {
		return fmt.Errorf("update ranking: %w", err)
	}

	if err := s.redis.HSet(ctx, key+":names", id, name).Err(); err != nil {
		return fmt.Errorf("update ranking name: %w", err)
	}

	return nil
}

func (s *Service) remove(ctx context.Context, key, id string) error {
	if err := s.redis.ZRem(ctx, key, id).Err(); err != nil {
		return fmt.Errorf("remove from ranking: %w", err)
	}

	return s.redis.HDel(ctx, key+":names", id).Err()
}

func (s *Service) usersKey() string {
	return fmt.Sprintf("%s:users:leaderboard", s.prefix)
}

func (s *Service) teamsKey() string {
	return fmt.Sprintf("%s:teams:leaderboard", s.prefix)
}
