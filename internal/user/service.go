// Package user is the user record service: profiles, pictures, listings and
// administrative updates. Credentials never leave through it.
package user

import (
	"context"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/event"
	"github.com/isati/wei-api/internal/store"
)

type Config struct {
	EventBus *event.Bus
	Users    store.Users
	Blobs    store.Blobs
}

type Service struct {
	eb    *event.Bus
	users store.Users
	blobs store.Blobs
}

func NewService(c Config) *Service {
	return &Service{
		eb:    c.EventBus,
		users: c.Users,
		blobs: c.Blobs,
	}
}

// Get returns a user with the credential hash scrubbed.
func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.PasswordHash = ""
	u.PasswordSalt = nil
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		users[i].PasswordHash = ""
		users[i].PasswordSalt = nil
	}

	return users, nil
}

type AdminUpdateRequest struct {
	UserID    string      `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Score     int         `json:"score"`
}

// AdminUpdate rewrites a user's profile fields. Credentials and the
// pending/finished maps are never touched through this path.
func (s *Service) AdminUpdate(ctx context.Context, req AdminUpdateRequest) error {
	if req.UserID == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("The id must be provided in the body"))
	}

	u, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return err
	}

	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.Username = req.Username
	u.Email = req.Email
	if req.Role != "" {
		u.Role = req.Role
	}
	u.Score = req.Score

	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	// Role and score both feed the ranking, so a single event carries
	// them together.
	s.eb.Publish(ctx, domain.EventUserRoleChanged{
		UserID:   u.UserID,
		Username: u.Username,
		Role:     u.Role,
		Score:    u.Score,
	})

	return nil
}

// Delete removes the user and releases the profile picture blob.
func (s *Service) Delete(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if u.ProfilePictureID != "" {
		if err := s.blobs.Delete(ctx, u.ProfilePictureID); err != nil {
			return err
		}
	}
	for _, proofID := range u.PendingChallenges {
		if err := s.blobs.Delete(ctx, proofID); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.eb.Publish(ctx, domain.EventUserDeleted{UserID: userID})
	return nil
}

// ProfilePicture returns the stored picture bytes.
func (s *Service) ProfilePicture(ctx context.Context, userID string) ([]byte, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.ProfilePictureID == "" {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("user %s has no profile picture", userID))
	}

	return s.blobs.Download(ctx, u.ProfilePictureID)
}

// UpdateProfilePicture replaces the caller's picture, releasing the old blob.
func (s *Service) UpdateProfilePicture(ctx context.Context, userID string, picture []byte) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if u.ProfilePictureID != "" {
		if err := s.blobs.Delete(ctx, u.ProfilePictureID); err != nil {
			return err
		}
	}

	u.ProfilePictureID, err = s.blobs.Upload(ctx, "user_"+userID, picture)
	if err != nil {
		return err
	}

	return s.users.Update(ctx, u)
}
