// Package challenge is the catalog of challenge definitions and their images.
package challenge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/store"
)

// imageModified is the sentinel clients set on imageId to request an image
// replacement on update; any other value keeps the stored image.
const imageModified = "modified"

type Config struct {
	Challenges store.Challenges
	Blobs      store.Blobs
}

type Service struct {
	challenges store.Challenges
	blobs      store.Blobs
}

func NewService(c Config) *Service {
	return &Service{
		challenges: c.Challenges,
		blobs:      c.Blobs,
	}
}

func (s *Service) Get(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	return s.challenges.Get(ctx, challengeID)
}

func (s *Service) List(ctx context.Context) ([]domain.Challenge, error) {
	return s.challenges.List(ctx)
}

// Image returns the catalog picture of a challenge.
func (s *Service) Image(ctx context.Context, challengeID string) ([]byte, error) {
	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	if ch.ImageID == "" {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("challenge %s has no image", challengeID))
	}

	return s.blobs.Download(ctx, ch.ImageID)
}

// Create stores a new challenge definition and uploads its image.
func (s *Service) Create(ctx context.Context, ch *domain.Challenge) (*domain.Challenge, error) {
	if err := validate(ch); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate challenge ID: %w", err)
	}
	ch.ChallengeID = id.String()

	if len(ch.Image) > 0 {
		ch.ImageID, err = s.blobs.Upload(ctx, "challenge_"+ch.ChallengeID, ch.Image)
		if err != nil {
			return nil, err
		}
		ch.Image = nil
	}

	if err := s.challenges.Insert(ctx, ch); err != nil {
		return nil, err
	}

	return ch, nil
}

// Update rewrites a challenge definition. The image is replaced only when the
// request carries the "modified" sentinel; the old blob is released then.
func (s *Service) Update(ctx context.Context, ch *domain.Challenge) error {
	if strings.TrimSpace(ch.ChallengeID) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("The id must be provided in the body"))
	}
	if err := validate(ch); err != nil {
		return err
	}

	old, err := s.challenges.Get(ctx, ch.ChallengeID)
	if err != nil {
		return err
	}

	if ch.ImageID == imageModified {
		if old.ImageID != "" {
			if err := s.blobs.Delete(ctx, old.ImageID); err != nil {
				return err
			}
		}

		ch.ImageID, err = s.blobs.Upload(ctx, "challenge_"+ch.ChallengeID, ch.Image)
		if err != nil {
			return err
		}
		ch.Image = nil
	} else {
		ch.ImageID = old.ImageID
	}

	return s.challenges.Update(ctx, ch)
}

// Delete removes the challenge and its image blob.
func (s *Service) Delete(ctx context.Context, challengeID string) error {
	old, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return err
	}

	if old.ImageID != "" {
		if err := s.blobs.Delete(ctx, old.ImageID); err != nil {
			return err
		}
	}

	return s.challenges.Delete(ctx, challengeID)
}

func validate(ch *domain.Challenge) error {
	if strings.TrimSpace(ch.Name) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide a name to the challenge"))
	}
	if strings.TrimSpace(ch.Description) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide a description to the challenge"))
	}

	return nil
}
