package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/isati/wei-api/internal/settings"
	"github.com/isati/wei-api/internal/store/memory"
)

func TestService_Get_BeforeFirstToggle(t *testing.T) {
	s := settings.NewService(settings.Config{Settings: memory.NewStore().Settings})

	gs, err := s.Get(context.Background())
	require.NoError(t, err)
	require.False(t, gs.IsUsersRankingVisible)
	require.False(t, gs.IsTeamsRankingVisible)
}

func TestService_Toggle(t *testing.T) {
	s := settings.NewService(settings.Config{Settings: memory.NewStore().Settings})

	require.NoError(t, s.ToggleUsersRankingVisibility(context.Background()))

	gs, err := s.Get(context.Background())
	require.NoError(t, err)
	require.True(t, gs.IsUsersRankingVisible)
	require.False(t, gs.IsTeamsRankingVisible, "the two flags toggle independently")
	require.NotEmpty(t, gs.SettingsID, "the first toggle creates the record")

	require.NoError(t, s.ToggleTeamsRankingVisibility(context.Background()))
	require.NoError(t, s.ToggleUsersRankingVisibility(context.Background()))

	gs, err = s.Get(context.Background())
	require.NoError(t, err)
	require.False(t, gs.IsUsersRankingVisible)
	require.True(t, gs.IsTeamsRankingVisible)
}
