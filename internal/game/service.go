// Package game implements the challenge submission and validation workflow.
// A (subject, challenge) pair moves from available to pending validation on
// submit, and to completed when a captain or administrator validates it,
// crediting the challenge value to the subject's score.
package game

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/event"
	"github.com/isati/wei-api/internal/store"
)

var validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wei_challenge_validations_total",
	Help: "Number of validated challenge completions, by subject kind.",
}, []string{"subject"})

type Config struct {
	EventBus   *event.Bus
	Users      store.Users
	Teams      store.Teams
	Challenges store.Challenges
	Blobs      store.Blobs
	Tx         store.Transactor
}

type Service struct {
	eb         *event.Bus
	users      store.Users
	teams      store.Teams
	challenges store.Challenges
	blobs      store.Blobs
	tx         store.Transactor
}

func NewService(c Config) *Service {
	return &Service{
		eb:         c.EventBus,
		users:      c.Users,
		teams:      c.Teams,
		challenges: c.Challenges,
		blobs:      c.Blobs,
		tx:         c.Tx,
	}
}

type SubmitRequest struct {
	UserID      string
	ChallengeID string
	ProofImage  []byte
}

// Submit records a proof image for an individual challenge and marks the
// challenge as pending validation for the user. A challenge already pending
// cannot be submitted again.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) error {
	u, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return err
	}
	if u.Role != domain.RoleDefault {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Only players can submit validations"))
	}
	if _, pending := u.PendingChallenges[req.ChallengeID]; pending {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("This challenge is already waiting for validation"))
	}

	ch, err := s.challenges.Get(ctx, req.ChallengeID)
	if err != nil {
		return err
	}
	if ch.IsForTeam {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("You can't submit team challenge to validation"))
	}

	proofID, err := s.blobs.Upload(ctx, fmt.Sprintf("proof_%s_%s", req.UserID, req.ChallengeID), req.ProofImage)
	if err != nil {
		return err
	}

	if u.PendingChallenges == nil {
		u.PendingChallenges = map[string]string{}
	}
	u.PendingChallenges[ch.ChallengeID] = proofID

	return s.users.Update(ctx, u)
}

// ValidateForUser completes a pending individual challenge: the pending entry
// is dropped, the finished count incremented, and the challenge value credited
// to both the user and the user's team in a single transaction.
func (s *Service) ValidateForUser(ctx context.Context, userID, challengeID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	team, err := s.teams.FindByUser(ctx, userID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("The user appear to not belong to a team"))
		}
		return err
	}

	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if ch.IsForTeam {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("You can't validate team challenge for individuals"))
	}

	proofID := u.PendingChallenges[challengeID]
	delete(u.PendingChallenges, challengeID)

	if u.FinishedChallenges == nil {
		u.FinishedChallenges = map[string]int{}
	}
	u.FinishedChallenges[challengeID]++

	u.Score += ch.Value
	team.Score += ch.Value

	if err := s.tx.UpdateUserAndTeam(ctx, u, team); err != nil {
		return err
	}

	if proofID != "" {
		if err := s.blobs.Delete(ctx, proofID); err != nil {
			return fmt.Errorf("delete proof blob: %w", err)
		}
	}

	validationsTotal.WithLabelValues("user").Inc()

	s.eb.Publish(ctx, domain.EventUserScoreUpdated{
		UserID:   u.UserID,
		Username: u.Username,
		Score:    u.Score,
	})
	s.eb.Publish(ctx, domain.EventTeamScoreUpdated{
		TeamID:   team.TeamID,
		TeamName: team.Name,
		Score:    team.Score,
	})

	return nil
}

// ValidateForTeam credits a team challenge completion directly; team
// challenges have no submission step.
func (s *Service) ValidateForTeam(ctx context.Context, teamID, challengeID string) error {
	team, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return err
	}

	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return err
	}
	if !ch.IsForTeam {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("You can't validate an individual challenge for team"))
	}

	if team.FinishedChallenges == nil {
		team.FinishedChallenges = map[string]int{}
	}
	team.FinishedChallenges[challengeID]++
	team.Score += ch.Value

	if err := s.teams.Update(ctx, team); err != nil {
		return err
	}

	validationsTotal.WithLabelValues("team").Inc()

	s.eb.Publish(ctx, domain.EventTeamScoreUpdated{
		TeamID:   team.TeamID,
		TeamName: team.Name,
		Score:    team.Score,
	})

	return nil
}

// WaitingChallenges lists pending submissions the caller may validate:
// administrators see every default-role player's, captains only their team's.
func (s *Service) WaitingChallenges(ctx context.Context, callerID string) ([]domain.WaitingChallenge, error) {
	caller, err := s.users.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var players []domain.User
	if caller.Role == domain.RoleAdministrator {
		players, err = s.users.ListByRole(ctx, domain.RoleDefault)
		if err != nil {
			return nil, err
		}
	} else {
		team, err := s.teams.FindByCaptain(ctx, callerID)
		if err != nil {
			// A captain without a team simply has nothing to validate.
			if errors.IsCode(err, errors.CodeNotFound) {
				return []domain.WaitingChallenge{}, nil
			}
			return nil, err
		}

		for _, memberID := range team.Members {
			p, err := s.users.Get(ctx, memberID)
			if err != nil {
				if errors.IsCode(err, errors.CodeNotFound) {
					continue
				}
				return nil, err
			}
			players = append(players, *p)
		}
	}

	result := make([]domain.WaitingChallenge, 0)
	for _, p := range players {
		for challengeID := range p.PendingChallenges {
			ch, err := s.challenges.Get(ctx, challengeID)
			if err != nil {
				if errors.IsCode(err, errors.CodeNotFound) {
					continue
				}
				return nil, err
			}

			result = append(result, domain.WaitingChallenge{
				ChallengeID: ch.ChallengeID,
				ImageID:     ch.ImageID,
				PlayerID:    p.UserID,
				PlayerName:  p.DisplayName(),
				Name:        ch.Name,
				Description: ch.Description,
			})
		}
	}

	return result, nil
}

// ChallengesForPlayer lists visible individual challenges joined with the
// player's progress.
func (s *Service) ChallengesForPlayer(ctx context.Context, playerID string) ([]domain.PlayerChallenge, error) {
	player, err := s.users.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	challenges, err := s.challenges.ListVisible(ctx, false)
	if err != nil {
		return nil, err
	}

	return joinPlayerChallenges(player, challenges), nil
}

// DoneChallenges lists the challenges a player has completed at least once.
func (s *Service) DoneChallenges(ctx context.Context, playerID string) ([]domain.PlayerChallenge, error) {
	player, err := s.users.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	var done []domain.Challenge
	for challengeID := range player.FinishedChallenges {
		ch, err := s.challenges.Get(ctx, challengeID)
		if err != nil {
			if errors.IsCode(err, errors.CodeNotFound) {
				continue
			}
			return nil, err
		}
		done = append(done, *ch)
	}

	return joinPlayerChallenges(player, done), nil
}

// ChallengesForTeam lists visible team challenges joined with the team's progress.
func (s *Service) ChallengesForTeam(ctx context.Context, teamID string) ([]domain.TeamChallenge, error) {
	team, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}

	challenges, err := s.challenges.ListVisible(ctx, true)
	if err != nil {
		return nil, err
	}

	result := make([]domain.TeamChallenge, 0, len(challenges))
	for _, ch := range challenges {
		result = append(result, domain.TeamChallenge{
			ChallengeID: ch.ChallengeID,
			ImageID:     ch.ImageID,
			Name:        ch.Name,
			Description: ch.Description,
			Value:       ch.Value,
			NumberLeft:  ch.NumberOfRepetitions - team.FinishedChallenges[ch.ChallengeID],
		})
	}

	return result, nil
}

// ProofImage returns the stored proof for a player's pending submission.
func (s *Service) ProofImage(ctx context.Context, challengeID, playerID string) ([]byte, error) {
	player, err := s.users.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	proofID, ok := player.PendingChallenges[challengeID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("no pending submission: player=%s challenge=%s", playerID, challengeID))
	}

	return s.blobs.Download(ctx, proofID)
}

// joinPlayerChallenges computes numberLeft and waitingValidation per
// challenge. An absent finished count means no repetitions are done yet.
func joinPlayerChallenges(player *domain.User, challenges []domain.Challenge) []domain.PlayerChallenge {
	result := make([]domain.PlayerChallenge, 0, len(challenges))
	for _, ch := range challenges {
		_, waiting := player.PendingChallenges[ch.ChallengeID]

		result = append(result, domain.PlayerChallenge{
			ChallengeID:       ch.ChallengeID,
			ImageID:           ch.ImageID,
			Name:              ch.Name,
			Description:       ch.Description,
			Value:             ch.Value,
			WaitingValidation: waiting,
			NumberLeft:        ch.NumberOfRepetitions - player.FinishedChallenges[ch.ChallengeID],
		})
	}

	return result
}
