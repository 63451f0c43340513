package game_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/event"
	"github.com/isati/wei-api/internal/game"
	"github.com/isati/wei-api/internal/store/memory"
)

func TestService_Submit(t *testing.T) {
	type (
		inputs struct {
			users      []domain.User
			challenges []domain.Challenge
			req        game.SubmitRequest
		}

		outputs struct {
			err   error
			store *memory.Store
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a player submission should become pending with a stored proof": {
			arrange: func() inputs {
				return inputs{
					users:      []domain.User{{UserID: "u1", Role: domain.RoleDefault}},
					challenges: []domain.Challenge{{ChallengeID: "c1", Value: 10}},
					req:        game.SubmitRequest{UserID: "u1", ChallengeID: "c1", ProofImage: []byte("jpeg")},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)

				u, err := out.store.Users.Get(context.Background(), "u1")
				require.NoError(t, err)
				require.Contains(t, u.PendingChallenges, "c1")

				proof, err := out.store.Blobs.Download(context.Background(), u.PendingChallenges["c1"])
				require.NoError(t, err)
				require.Equal(t, []byte("jpeg"), proof)
			},
		},

		"submitting a challenge already pending should conflict": {
			arrange: func() inputs {
				return inputs{
					users: []domain.User{{
						UserID:            "u1",
						Role:              domain.RoleDefault,
						PendingChallenges: map[string]string{"c1": "blob-1"},
					}},
					challenges: []domain.Challenge{{ChallengeID: "c1"}},
					req:        game.SubmitRequest{UserID: "u1", ChallengeID: "c1"},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.True(t, errors.IsCode(out.err, errors.CodeAlreadyExists))
			},
		},

		"a captain should not submit": {
			arrange: func() inputs {
				return inputs{
					users:      []domain.User{{UserID: "u1", Role: domain.RoleCaptain}},
					challenges: []domain.Challenge{{ChallengeID: "c1"}},
					req:        game.SubmitRequest{UserID: "u1", ChallengeID: "c1"},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.True(t, errors.IsCode(out.err, errors.CodeInvalidArgument))
			},
		},

		"a team challenge should not accept individual submissions": {
			arrange: func() inputs {
				return inputs{
					users:      []domain.User{{UserID: "u1", Role: domain.RoleDefault}},
					challenges: []domain.Challenge{{ChallengeID: "c1", IsForTeam: true}},
					req:        game.SubmitRequest{UserID: "u1", ChallengeID: "c1"},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.True(t, errors.IsCode(out.err, errors.CodeInvalidArgument))
			},
		},

		"an unknown challenge should not be submittable": {
			arrange: func() inputs {
				return inputs{
					users: []domain.User{{UserID: "u1", Role: domain.RoleDefault}},
					req:   game.SubmitRequest{UserID: "u1", ChallengeID: "missing"},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.True(t, errors.IsCode(out.err, errors.CodeNotFound))
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()

			st := memory.NewStore()
			seed(t, st, in.users, nil, in.challenges)

			s := makeService(t, st)
			err := s.Submit(context.Background(), in.req)

			tt.assert(t, outputs{err: err, store: st})
		})
	}
}

func TestService_ValidateForUser(t *testing.T) {
	st := memory.NewStore()

	proofID, err := st.Blobs.Upload(context.Background(), "proof", []byte("jpeg"))
	require.NoError(t, err)

	seed(t, st,
		[]domain.User{{
			UserID:            "u1",
			Username:          "alice",
			Role:              domain.RoleDefault,
			Score:             5,
			PendingChallenges: map[string]string{"c1": proofID},
		}},
		[]domain.Team{{TeamID: "t1", Name: "red", CaptainID: "cap", Members: []string{"u1"}, Score: 100}},
		[]domain.Challenge{{ChallengeID: "c1", Value: 10, NumberOfRepetitions: 3}},
	)

	eb := event.NewBus()
	var published []event.Event
	collectEvents(eb, &published)

	s := makeService(t, st, withEventBus(eb))

	require.NoError(t, s.ValidateForUser(context.Background(), "u1", "c1"))
	eb.Stop()

	u, err := st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotContains(t, u.PendingChallenges, "c1")
	require.Equal(t, 1, u.FinishedChallenges["c1"])
	require.Equal(t, 15, u.Score)

	tm, err := st.Teams.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 110, tm.Score)

	_, err = st.Blobs.Download(context.Background(), proofID)
	require.True(t, errors.IsCode(err, errors.CodeNotFound), "proof blob should be released")

	require.ElementsMatch(t, []event.Event{
		domain.EventUserScoreUpdated{UserID: "u1", Username: "alice", Score: 15},
		domain.EventTeamScoreUpdated{TeamID: "t1", TeamName: "red", Score: 110},
	}, published)
}

func TestService_ValidateForUser_NoTeam(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{{UserID: "u1", Role: domain.RoleDefault}},
		nil,
		[]domain.Challenge{{ChallengeID: "c1", Value: 10}},
	)

	s := makeService(t, st)

	err := s.ValidateForUser(context.Background(), "u1", "c1")
	require.True(t, errors.IsCode(err, errors.CodeInvalidArgument))
}

func TestService_ValidateForUser_TeamChallenge(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{{UserID: "u1", Role: domain.RoleDefault}},
		[]domain.Team{{TeamID: "t1", Name: "red", CaptainID: "cap", Members: []string{"u1"}}},
		[]domain.Challenge{{ChallengeID: "c1", Value: 10, IsForTeam: true}},
	)

	s := makeService(t, st)

	err := s.ValidateForUser(context.Background(), "u1", "c1")
	require.True(t, errors.IsCode(err, errors.CodeInvalidArgument))
}

func TestService_ValidateForUser_WithoutSubmission(t *testing.T) {
	// Validation does not require a pending submission; a captain can credit a
	// completion they witnessed directly.
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{{UserID: "u1", Username: "alice", Role: domain.RoleDefault}},
		[]domain.Team{{TeamID: "t1", Name: "red", CaptainID: "cap", Members: []string{"u1"}}},
		[]domain.Challenge{{ChallengeID: "c1", Value: 10}},
	)

	s := makeService(t, st)

	require.NoError(t, s.ValidateForUser(context.Background(), "u1", "c1"))

	u, err := st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 10, u.Score)
	require.Equal(t, 1, u.FinishedChallenges["c1"])
}

func TestService_ValidateForTeam(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		nil,
		[]domain.Team{{TeamID: "t1", Name: "red", CaptainID: "cap", Score: 40}},
		[]domain.Challenge{{ChallengeID: "c1", Value: 25, IsForTeam: true}},
	)

	eb := event.NewBus()
	var published []event.Event
	collectEvents(eb, &published)

	s := makeService(t, st, withEventBus(eb))

	require.NoError(t, s.ValidateForTeam(context.Background(), "t1", "c1"))
	eb.Stop()

	tm, err := st.Teams.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 65, tm.Score)
	require.Equal(t, 1, tm.FinishedChallenges["c1"])

	require.ElementsMatch(t, []event.Event{
		domain.EventTeamScoreUpdated{TeamID: "t1", TeamName: "red", Score: 65},
	}, published)
}

func TestService_ValidateForTeam_IndividualChallenge(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		nil,
		[]domain.Team{{TeamID: "t1", Name: "red", CaptainID: "cap"}},
		[]domain.Challenge{{ChallengeID: "c1", Value: 25}},
	)

	s := makeService(t, st)

	err := s.ValidateForTeam(context.Background(), "t1", "c1")
	require.True(t, errors.IsCode(err, errors.CodeInvalidArgument))
}

func TestService_RepetitionAccounting(t *testing.T) {
	// Submit and validate the same challenge three times: numberLeft must walk
	// down from the repetition count and the score must accumulate.
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{{UserID: "u1", Username: "alice", Role: domain.RoleDefault}},
		[]domain.Team{{TeamID: "t1", Name: "red", CaptainID: "cap", Members: []string{"u1"}}},
		[]domain.Challenge{{ChallengeID: "c1", Value: 10, NumberOfRepetitions: 3, IsVisible: true}},
	)

	s := makeService(t, st)

	for i := 1; i <= 3; i++ {
		err := s.Submit(context.Background(), game.SubmitRequest{
			UserID:      "u1",
			ChallengeID: "c1",
			ProofImage:  []byte("jpeg"),
		})
		require.NoError(t, err)

		require.NoError(t, s.ValidateForUser(context.Background(), "u1", "c1"))

		list, err := s.ChallengesForPlayer(context.Background(), "u1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, 3-i, list[0].NumberLeft)
		require.False(t, list[0].WaitingValidation)
	}

	u, err := st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 30, u.Score)
	require.Equal(t, 3, u.FinishedChallenges["c1"])
}

func TestService_WaitingChallenges(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{
			{
				UserID:            "u1",
				Username:          "alice",
				Email:             "alice@example.com",
				FirstName:         "Alice",
				LastName:          "Smith",
				Role:              domain.RoleDefault,
				PendingChallenges: map[string]string{"c1": "blob-1"},
			},
			{
				UserID:            "u2",
				Username:          "bob",
				Email:             "bob@example.com",
				FirstName:         "Bob",
				LastName:          "Jones",
				Role:              domain.RoleDefault,
				PendingChallenges: map[string]string{"c1": "blob-2"},
			},
			{UserID: "cap", Username: "carol", Email: "carol@example.com", Role: domain.RoleCaptain},
			{UserID: "admin", Username: "dave", Email: "dave@example.com", Role: domain.RoleAdministrator},
		},
		[]domain.Team{{TeamID: "t1", Name: "red", CaptainID: "cap", Members: []string{"u1"}}},
		[]domain.Challenge{{ChallengeID: "c1", Name: "pushups"}},
	)

	s := makeService(t, st)

	// The captain only sees their own team's submissions.
	waiting, err := s.WaitingChallenges(context.Background(), "cap")
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	require.Equal(t, "u1", waiting[0].PlayerID)
	require.Equal(t, "Alice Smith", waiting[0].PlayerName)

	// The administrator sees every player's.
	waiting, err = s.WaitingChallenges(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, waiting, 2)
}

func TestService_WaitingChallenges_CaptainWithoutTeam(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{{UserID: "cap", Username: "carol", Email: "carol@example.com", Role: domain.RoleCaptain}},
		nil,
		nil,
	)

	s := makeService(t, st)

	waiting, err := s.WaitingChallenges(context.Background(), "cap")
	require.NoError(t, err, "a captain with no team is not an error")
	require.Empty(t, waiting)
}

func TestService_ChallengesForPlayer_Visibility(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{{
			UserID:            "u1",
			Role:              domain.RoleDefault,
			PendingChallenges: map[string]string{"c1": "blob-1"},
		}},
		nil,
		[]domain.Challenge{
			{ChallengeID: "c1", Name: "a", Value: 10, NumberOfRepetitions: 2, IsVisible: true},
			{ChallengeID: "c2", Name: "b", Value: 10, IsVisible: false},
			{ChallengeID: "c3", Name: "c", Value: 10, IsVisible: true, IsForTeam: true},
		},
	)

	s := makeService(t, st)

	list, err := s.ChallengesForPlayer(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1, "hidden and team challenges should be excluded")
	require.Equal(t, "c1", list[0].ChallengeID)
	require.True(t, list[0].WaitingValidation)
	require.Equal(t, 2, list[0].NumberLeft)
}

func TestService_ChallengesForTeam(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		nil,
		[]domain.Team{{
			TeamID:             "t1",
			Name:               "red",
			CaptainID:          "cap",
			FinishedChallenges: map[string]int{"c1": 1},
		}},
		[]domain.Challenge{
			{ChallengeID: "c1", Name: "a", Value: 10, NumberOfRepetitions: 3, IsVisible: true, IsForTeam: true},
			{ChallengeID: "c2", Name: "b", Value: 10, IsVisible: true},
		},
	)

	s := makeService(t, st)

	list, err := s.ChallengesForTeam(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "c1", list[0].ChallengeID)
	require.Equal(t, 2, list[0].NumberLeft)
}

func TestService_DoneChallenges(t *testing.T) {
	st := memory.NewStore()
	seed(t, st,
		[]domain.User{{
			UserID:             "u1",
			Role:               domain.RoleDefault,
			FinishedChallenges: map[string]int{"c1": 2},
		}},
		nil,
		[]domain.Challenge{
			{ChallengeID: "c1", Name: "a", Value: 10, NumberOfRepetitions: 3, IsVisible: true},
			{ChallengeID: "c2", Name: "b", Value: 10, IsVisible: true},
		},
	)

	s := makeService(t, st)

	done, err := s.DoneChallenges(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, "c1", done[0].ChallengeID)
	require.Equal(t, 1, done[0].NumberLeft)
}

func TestService_ProofImage(t *testing.T) {
	st := memory.NewStore()

	proofID, err := st.Blobs.Upload(context.Background(), "proof", []byte("jpeg"))
	require.NoError(t, err)

	seed(t, st,
		[]domain.User{{
			UserID:            "u1",
			Role:              domain.RoleDefault,
			PendingChallenges: map[string]string{"c1": proofID},
		}},
		nil, nil,
	)

	s := makeService(t, st)

	img, err := s.ProofImage(context.Background(), "c1", "u1")
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg"), img)

	_, err = s.ProofImage(context.Background(), "c2", "u1")
	require.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func makeService(t *testing.T, st *memory.Store, opts ...options) *game.Service {
	t.Helper()

	c := game.Config{
		EventBus:   event.NewBus(),
		Users:      st.Users,
		Teams:      st.Teams,
		Challenges: st.Challenges,
		Blobs:      st.Blobs,
		Tx:         st,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return game.NewService(c)
}

type options func(c *game.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *game.Config) {
		c.EventBus = eb
	}
}

func collectEvents(eb *event.Bus, out *[]event.Event) {
	var mu sync.Mutex
	collect := func(ctx context.Context, e event.Event) error {
		mu.Lock()
		*out = append(*out, e)
		mu.Unlock()
		return nil
	}

	eb.Subscribe(domain.EventNameUserScoreUpdated, collect)
	eb.Subscribe(domain.EventNameTeamScoreUpdated, collect)
}

func seed(t *testing.T, st *memory.Store, users []domain.User, teams []domain.Team, challenges []domain.Challenge) {
	t.Helper()

	ctx := context.Background()
	for i := range users {
		require.NoError(t, st.Users.Insert(ctx, &users[i]))
	}
	for i := range teams {
		require.NoError(t, st.Teams.Insert(ctx, &teams[i]))
	}
	for i := range challenges {
		require.NoError(t, st.Challenges.Insert(ctx, &challenges[i]))
	}
}
