// Package store defines the persistence boundary of the game. Services depend
// on these narrow interfaces; the postgres package implements them for
// production and the memory package for tests.
package store

import (
	"context"

	"github.com/isati/wei-api/internal/domain"
)

// Users is the user collection.
type Users interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	// FindByLogin resolves a user by username or email, whichever matches.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, userID string) error
}

// Teams is the team collection.
type Teams interface {
	Get(ctx context.Context, teamID string) (*domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
	// FindByCaptain resolves the team a user captains.
	FindByCaptain(ctx context.Context, captainID string) (*domain.Team, error)
	// FindByUser resolves the team a user belongs to, as member or captain.
	FindByUser(ctx context.Context, userID string) (*domain.Team, error)
	// FindByMember resolves the team a user is a plain member of.
	FindByMember(ctx context.Context, userID string) (*domain.Team, error)
	Insert(ctx context.Context, t *domain.Team) error
	Update(ctx context.Context, t *domain.Team) error
	Delete(ctx context.Context, teamID string) error
}

// Transactor applies the one multi-record write of the validation workflow:
// the user and its team must commit together or not at all.
type Transactor interface {
	UpdateUserAndTeam(ctx context.Context, u *domain.User, t *domain.Team) error
}

// Challenges is the challenge catalog.
type Challenges interface {
	Get(ctx context.Context, challengeID string) (*domain.Challenge, error)
	List(ctx context.Context) ([]domain.Challenge, error)
	// ListVisible returns visible challenges scoped to teams or individuals.
	ListVisible(ctx context.Context, forTeam bool) ([]domain.Challenge, error)
	Insert(ctx context.Context, c *domain.Challenge) error
	Update(ctx context.Context, c *domain.Challenge) error
	Delete(ctx context.Context, challengeID string) error
}

// Settings holds the game settings singleton. Get returns a NotFound error
// until the first write.
type Settings interface {
	Get(ctx context.Context) (*domain.GameSettings, error)
	Insert(ctx context.Context, s *domain.GameSettings) error
	Update(ctx context.Context, s *domain.GameSettings) error
}

// Blobs is the image bucket. Upload returns the id of the stored blob.
type Blobs interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Download(ctx context.Context, blobID string) ([]byte, error)
	Delete(ctx context.Context, blobID string) error
}
