// Package team owns the team registry: exactly one captain per team, a user
// belongs to at most one team, and captaincy changes promote and demote roles.
package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/event"
	"github.com/isati/wei-api/internal/store"
)

type Config struct {
	EventBus *event.Bus
	Users    store.Users
	Teams    store.Teams
	Blobs    store.Blobs
}

type Service struct {
	eb    *event.Bus
	users store.Users
	teams store.Teams
	blobs store.Blobs
}

func NewService(c Config) *Service {
	return &Service{
		eb:    c.EventBus,
		users: c.Users,
		teams: c.Teams,
		blobs: c.Blobs,
	}
}

// Get returns the team with the captain display name joined in.
func (s *Service) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	t, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if err := s.joinCaptainName(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range teams {
		if err := s.joinCaptainName(ctx, &teams[i]); err != nil {
			return nil, err
		}
	}

	return teams, nil
}

// TeamForUser resolves the team a user belongs to, as member or captain.
func (s *Service) TeamForUser(ctx context.Context, userID string) (*domain.Team, error) {
	t, err := s.teams.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.joinCaptainName(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// AvailableCaptains lists users not currently captaining any team.
func (s *Service) AvailableCaptains(ctx context.Context) ([]domain.User, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, err
	}

	captains := make(map[string]bool, len(teams))
	for _, t := range teams {
		captains[t.CaptainID] = true
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.User, 0, len(users))
	for _, u := range users {
		if captains[u.UserID] {
			continue
		}

		u.PasswordHash = ""
		result = append(result, u)
	}

	return result, nil
}

type CreateRequest struct {
	Name      string `json:"name"`
	CaptainID string `json:"captainId"`
	Image     []byte `json:"image,omitempty"`
}

// Create registers a new team. The captain is promoted to the Captain role
// (administrators keep theirs) and migrated out of any previous team.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Team, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide a name for the team"))
	}
	if strings.TrimSpace(req.CaptainID) == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide a captain for the team"))
	}

	captain, err := s.users.Get(ctx, req.CaptainID)
	if err != nil {
		return nil, err
	}
	if captain.Role == domain.RoleCaptain {
		return nil, errors.New(errors.CodeAlreadyExists, errors.WithMessagef("The user choosed is already a captain"))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate team ID: %w", err)
	}

	t := &domain.Team{
		TeamID:             id.String(),
		Name:               req.Name,
		CaptainID:          req.CaptainID,
		Members:            []string{},
		FinishedChallenges: map[string]int{},
	}

	if err := s.teams.Insert(ctx, t); err != nil {
		if errors.IsCode(err, errors.CodeAlreadyExists) {
			return nil, errors.New(errors.CodeAlreadyExists,
				errors.WithMessagef("The team already exist"), errors.WithCause(err))
		}
		return nil, err
	}

	if err := s.removeFromCurrentTeam(ctx, captain.UserID); err != nil {
		return nil, err
	}

	if err := s.promote(ctx, captain); err != nil {
		return nil, err
	}

	if len(req.Image) > 0 {
		t.ImageID, err = s.blobs.Upload(ctx, "team_"+t.TeamID, req.Image)
		if err != nil {
			return nil, err
		}

		if err := s.teams.Update(ctx, t); err != nil {
			return nil, err
		}
	}

	// Seed the leaderboard entry so a fresh team ranks immediately.
	s.eb.Publish(ctx, domain.EventTeamScoreUpdated{
		TeamID:   t.TeamID,
		TeamName: t.Name,
		Score:    0,
	})

	return t, nil
}

type UpdateRequest struct {
	TeamID    string `json:"id"`
	Name      string `json:"name"`
	CaptainID string `json:"captainId"`
	Image     []byte `json:"image,omitempty"`
}

// Update renames a team, replaces its image, and hands over captaincy. The
// old captain is demoted (administrators keep their role) and stays on the
// team as a plain member; the new captain is migrated and promoted.
func (s *Service) Update(ctx context.Context, req UpdateRequest) error {
	if strings.TrimSpace(req.TeamID) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("The id must be provided in the body"))
	}
	if strings.TrimSpace(req.Name) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide a name for the team"))
	}
	if strings.TrimSpace(req.CaptainID) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide a captain for the team"))
	}

	current, err := s.teams.Get(ctx, req.TeamID)
	if err != nil {
		return err
	}

	if current.CaptainID != req.CaptainID {
		oldCaptain, err := s.users.Get(ctx, current.CaptainID)
		if err != nil {
			return err
		}
		newCaptain, err := s.users.Get(ctx, req.CaptainID)
		if err != nil {
			return err
		}

		if err := s.removeFromCurrentTeam(ctx, newCaptain.UserID); err != nil {
			return err
		}

		// The new captain may have been a member of this very team; the
		// migration above only rewrote the stored row.
		current.Members = removeMember(current.Members, newCaptain.UserID)
		current.Members = append(current.Members, oldCaptain.UserID)

		if err := s.demote(ctx, oldCaptain); err != nil {
			return err
		}
		if err := s.promote(ctx, newCaptain); err != nil {
			return err
		}
	}

	current.Name = req.Name
	current.CaptainID = req.CaptainID

	if len(req.Image) > 0 {
		if current.ImageID != "" {
			if err := s.blobs.Delete(ctx, current.ImageID); err != nil {
				return err
			}
		}

		current.ImageID, err = s.blobs.Upload(ctx, "team_"+current.TeamID, req.Image)
		if err != nil {
			return err
		}
	}

	return s.teams.Update(ctx, current)
}

// Delete removes the team, demotes its captain and releases the team image.
func (s *Service) Delete(ctx context.Context, teamID string) error {
	t, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return err
	}

	if t.ImageID != "" {
		if err := s.blobs.Delete(ctx, t.ImageID); err != nil {
			return err
		}
	}

	captain, err := s.users.Get(ctx, t.CaptainID)
	if err == nil {
		if err := s.demote(ctx, captain); err != nil {
			return err
		}
	} else if !errors.IsCode(err, errors.CodeNotFound) {
		return err
	}

	if err := s.teams.Delete(ctx, teamID); err != nil {
		return err
	}

	s.eb.Publish(ctx, domain.EventTeamDeleted{TeamID: teamID})
	return nil
}

// AddUser moves a user into the team, leaving any previous team first.
func (s *Service) AddUser(ctx context.Context, teamID, userID string) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	t, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return err
	}

	if err := s.removeFromCurrentTeam(ctx, userID); err != nil {
		return err
	}

	t.Members = append(t.Members, userID)
	return s.teams.Update(ctx, t)
}

// RemoveUser drops a member from the team.
func (s *Service) RemoveUser(ctx context.Context, teamID, userID string) error {
	t, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return err
	}

	t.Members = removeMember(t.Members, userID)
	return s.teams.Update(ctx, t)
}

func (s *Service) joinCaptainName(ctx context.Context, t *domain.Team) error {
	captain, err := s.users.Get(ctx, t.CaptainID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil
		}
		return err
	}

	t.CaptainName = captain.DisplayName()
	return nil
}

func (s *Service) removeFromCurrentTeam(ctx context.Context, userID string) error {
	old, err := s.teams.FindByMember(ctx, userID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil
		}
		return err
	}

	old.Members = removeMember(old.Members, userID)
	return s.teams.Update(ctx, old)
}

func (s *Service) promote(ctx context.Context, u *domain.User) error {
	if u.Role == domain.RoleAdministrator {
		return nil
	}

	u.Role = domain.RoleCaptain
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	s.publishRoleChange(ctx, u)
	return nil
}

func (s *Service) demote(ctx context.Context, u *domain.User) error {
	if u.Role == domain.RoleAdministrator {
		return nil
	}

	u.Role = domain.RoleDefault
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	s.publishRoleChange(ctx, u)
	return nil
}

func (s *Service) publishRoleChange(ctx context.Context, u *domain.User) {
	s.eb.Publish(ctx, domain.EventUserRoleChanged{
		UserID:   u.UserID,
		Username: u.Username,
		Role:     u.Role,
		Score:    u.Score,
	})
}

func removeMember(members []string, userID string) []string {
	out := members[:0]
	for _, m := range members {
		if m != userID {
			out = append(out, m)
		}
	}

	return out
}
