package challenge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/isati/wei-api/internal/challenge"
	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/store/memory"
)

func TestService_Create(t *testing.T) {
	st := memory.NewStore()
	s := challenge.NewService(challenge.Config{Challenges: st.Challenges, Blobs: st.Blobs})

	created, err := s.Create(context.Background(), &domain.Challenge{
		Name:        "pushups",
		Description: "do 20 pushups",
		Image:       []byte("jpeg"),
		Value:       10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ChallengeID)
	require.NotEmpty(t, created.ImageID)
	require.Nil(t, created.Image, "the raw image must not be persisted on the record")

	img, err := s.Image(context.Background(), created.ChallengeID)
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg"), img)

	t.Run("a name and a description are required", func(t *testing.T) {
		_, err := s.Create(context.Background(), &domain.Challenge{Description: "d"})
		require.True(t, errors.IsCode(err, errors.CodeInvalidArgument))

		_, err = s.Create(context.Background(), &domain.Challenge{Name: "n"})
		require.True(t, errors.IsCode(err, errors.CodeInvalidArgument))
	})
}

func TestService_Update_ImageSentinel(t *testing.T) {
	st := memory.NewStore()
	s := challenge.NewService(challenge.Config{Challenges: st.Challenges, Blobs: st.Blobs})

	created, err := s.Create(context.Background(), &domain.Challenge{
		Name:        "pushups",
		Description: "do 20 pushups",
		Image:       []byte("old"),
	})
	require.NoError(t, err)
	oldImageID := created.ImageID

	t.Run("without the sentinel the stored image is kept", func(t *testing.T) {
		err := s.Update(context.Background(), &domain.Challenge{
			ChallengeID: created.ChallengeID,
			Name:        "pushups",
			Description: "do 30 pushups",
		})
		require.NoError(t, err)

		ch, err := s.Get(context.Background(), created.ChallengeID)
		require.NoError(t, err)
		require.Equal(t, "do 30 pushups", ch.Description)
		require.Equal(t, oldImageID, ch.ImageID)
	})

	t.Run("with the sentinel the image is replaced and the old blob released", func(t *testing.T) {
		err := s.Update(context.Background(), &domain.Challenge{
			ChallengeID: created.ChallengeID,
			Name:        "pushups",
			Description: "do 30 pushups",
			ImageID:     "modified",
			Image:       []byte("new"),
		})
		require.NoError(t, err)

		img, err := s.Image(context.Background(), created.ChallengeID)
		require.NoError(t, err)
		require.Equal(t, []byte("new"), img)

		_, err = st.Blobs.Download(context.Background(), oldImageID)
		require.True(t, errors.IsCode(err, errors.CodeNotFound))
	})
}

func TestService_Delete(t *testing.T) {
	st := memory.NewStore()
	s := challenge.NewService(challenge.Config{Challenges: st.Challenges, Blobs: st.Blobs})

	created, err := s.Create(context.Background(), &domain.Challenge{
		Name:        "pushups",
		Description: "do 20 pushups",
		Image:       []byte("jpeg"),
	})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), created.ChallengeID))

	_, err = s.Get(context.Background(), created.ChallengeID)
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = st.Blobs.Download(context.Background(), created.ImageID)
	require.True(t, errors.IsCode(err, errors.CodeNotFound))
}
