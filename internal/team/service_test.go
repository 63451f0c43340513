package team_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/event"
	"github.com/isati/wei-api/internal/store/memory"
	"github.com/isati/wei-api/internal/team"
)

func TestService_Create(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith"},
		domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com"},
	)
	s := makeService(st)

	created, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, created.TeamID)
	require.Equal(t, "u1", created.CaptainID)

	u, err := st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleCaptain, u.Role, "the captain should be promoted")

	t.Run("the same captain cannot lead a second team", func(t *testing.T) {
		_, err := s.Create(context.Background(), team.CreateRequest{Name: "blue", CaptainID: "u1"})
		require.True(t, errors.IsCode(err, errors.CodeAlreadyExists))
	})

	t.Run("a duplicate team name conflicts", func(t *testing.T) {
		_, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u2"})
		require.True(t, errors.IsCode(err, errors.CodeAlreadyExists))
	})

	t.Run("a team needs a name and a captain", func(t *testing.T) {
		_, err := s.Create(context.Background(), team.CreateRequest{Name: " ", CaptainID: "u2"})
		require.True(t, errors.IsCode(err, errors.CodeInvalidArgument))

		_, err = s.Create(context.Background(), team.CreateRequest{Name: "blue"})
		require.True(t, errors.IsCode(err, errors.CodeInvalidArgument))
	})
}

func TestService_Create_MigratesCaptainOutOfOldTeam(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"},
		domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com"},
	)
	s := makeService(st)

	first, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)
	require.NoError(t, s.AddUser(context.Background(), first.TeamID, "u2"))

	_, err = s.Create(context.Background(), team.CreateRequest{Name: "blue", CaptainID: "u2"})
	require.NoError(t, err)

	old, err := st.Teams.Get(context.Background(), first.TeamID)
	require.NoError(t, err)
	require.False(t, old.HasMember("u2"), "the new captain should leave the old team")
}

func TestService_Update_CaptainHandover(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"},
		domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com"},
	)
	s := makeService(st)

	created, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)
	require.NoError(t, s.AddUser(context.Background(), created.TeamID, "u2"))

	err = s.Update(context.Background(), team.UpdateRequest{
		TeamID:    created.TeamID,
		Name:      "crimson",
		CaptainID: "u2",
	})
	require.NoError(t, err)

	updated, err := st.Teams.Get(context.Background(), created.TeamID)
	require.NoError(t, err)
	require.Equal(t, "crimson", updated.Name)
	require.Equal(t, "u2", updated.CaptainID)
	require.True(t, updated.HasMember("u1"), "the old captain should stay as a member")
	require.False(t, updated.HasMember("u2"), "the new captain should no longer be a plain member")

	oldCaptain, err := st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleDefault, oldCaptain.Role)

	newCaptain, err := st.Users.Get(context.Background(), "u2")
	require.NoError(t, err)
	require.Equal(t, domain.RoleCaptain, newCaptain.Role)
}

func TestService_Delete(t *testing.T) {
	st := makeStore(t, domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"})
	s := makeService(st)

	created, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), created.TeamID))

	_, err = st.Teams.Get(context.Background(), created.TeamID)
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	u, err := st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleDefault, u.Role, "the captain should be demoted")
}

func TestService_Delete_AdministratorKeepsRole(t *testing.T) {
	st := makeStore(t, domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com", Role: domain.RoleAdministrator})
	s := makeService(st)

	created, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)

	u, err := st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdministrator, u.Role, "promotion never touches administrators")

	require.NoError(t, s.Delete(context.Background(), created.TeamID))

	u, err = st.Users.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdministrator, u.Role)
}

func TestService_AddUser_MovesBetweenTeams(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"},
		domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com"},
		domain.User{UserID: "u3", Username: "carol", Email: "carol@example.com"},
	)
	s := makeService(st)

	red, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)
	blue, err := s.Create(context.Background(), team.CreateRequest{Name: "blue", CaptainID: "u2"})
	require.NoError(t, err)

	require.NoError(t, s.AddUser(context.Background(), red.TeamID, "u3"))
	require.NoError(t, s.AddUser(context.Background(), blue.TeamID, "u3"))

	redNow, err := st.Teams.Get(context.Background(), red.TeamID)
	require.NoError(t, err)
	require.False(t, redNow.HasMember("u3"))

	blueNow, err := st.Teams.Get(context.Background(), blue.TeamID)
	require.NoError(t, err)
	require.True(t, blueNow.HasMember("u3"))
}

func TestService_RemoveUser(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"},
		domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com"},
	)
	s := makeService(st)

	red, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)
	require.NoError(t, s.AddUser(context.Background(), red.TeamID, "u2"))

	require.NoError(t, s.RemoveUser(context.Background(), red.TeamID, "u2"))

	redNow, err := st.Teams.Get(context.Background(), red.TeamID)
	require.NoError(t, err)
	require.False(t, redNow.HasMember("u2"))
}

func TestService_AvailableCaptains(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"},
		domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com"},
	)
	s := makeService(st)

	_, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)

	available, err := s.AvailableCaptains(context.Background())
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, "u2", available[0].UserID)
	require.Empty(t, available[0].PasswordHash)
}

func TestService_Get_JoinsCaptainName(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith"},
	)
	s := makeService(st)

	created, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), created.TeamID)
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", got.CaptainName)
}

func TestService_TeamForUser(t *testing.T) {
	st := makeStore(t,
		domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"},
		domain.User{UserID: "u2", Username: "bob", Email: "bob@example.com"},
		domain.User{UserID: "u3", Username: "carol", Email: "carol@example.com"},
	)
	s := makeService(st)

	red, err := s.Create(context.Background(), team.CreateRequest{Name: "red", CaptainID: "u1"})
	require.NoError(t, err)
	require.NoError(t, s.AddUser(context.Background(), red.TeamID, "u2"))

	for _, userID := range []string{"u1", "u2"} {
		got, err := s.TeamForUser(context.Background(), userID)
		require.NoError(t, err)
		require.Equal(t, red.TeamID, got.TeamID)
	}

	_, err = s.TeamForUser(context.Background(), "u3")
	require.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func makeStore(t *testing.T, users ...domain.User) *memory.Store {
	t.Helper()

	st := memory.NewStore()
	for i := range users {
		if users[i].Role == "" {
			users[i].Role = domain.RoleDefault
		}
		require.NoError(t, st.Users.Insert(context.Background(), &users[i]))
	}

	return st
}

func makeService(st *memory.Store) *team.Service {
	return team.NewService(team.Config{
		EventBus: event.NewBus(),
		Users:    st.Users,
		Teams:    st.Teams,
		Blobs:    st.Blobs,
	})
}
