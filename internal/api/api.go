// Package api exposes the HTTP surface. Every route outside the
// authentication group runs behind the credential middleware, and the minimum
// role of each operation is declared at registration.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/isati/wei-api/internal/auth"
	"github.com/isati/wei-api/internal/challenge"
	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/game"
	"github.com/isati/wei-api/internal/leaderboard"
	"github.com/isati/wei-api/internal/settings"
	"github.com/isati/wei-api/internal/team"
	"github.com/isati/wei-api/internal/user"
)

type Config struct {
	Engine *gin.Engine

	Auth        *auth.Service
	Game        *game.Service
	Users       *user.Service
	Teams       *team.Service
	Challenges  *challenge.Service
	Settings    *settings.Service
	Leaderboard *leaderboard.Service
}

type API struct {
	auth        *auth.Service
	game        *game.Service
	users       *user.Service
	teams       *team.Service
	challenges  *challenge.Service
	settings    *settings.Service
	leaderboard *leaderboard.Service
}

func New(c Config) *API {
	a := &API{
		auth:        c.Auth,
		game:        c.Game,
		users:       c.Users,
		teams:       c.Teams,
		challenges:  c.Challenges,
		settings:    c.Settings,
		leaderboard: c.Leaderboard,
	}

	a.register(c.Engine)
	return a
}

func (a *API) register(e *gin.Engine) {
	var (
		captain = auth.RequireRole(domain.RoleCaptain)
		admin   = auth.RequireRole(domain.RoleAdministrator)
	)

	// Login and registration are the only routes outside the credential check.
	an := e.Group("/api/authentication")
	{
		an.POST("/register", a.handleRegister)
		an.POST("/login", a.handleLogin)
	}

	ch := e.Group("/api/challenges", a.auth.Middleware())
	{
		ch.GET("", a.handleListChallenges)
		ch.GET("/:id", a.handleGetChallenge)
		ch.GET("/:id/image", a.handleChallengeImage)
		ch.GET("/individual/:player", a.handleChallengesForPlayer)
		ch.GET("/team/:team", a.handleChallengesForTeam)
		ch.GET("/done/:player", a.handleDoneChallenges)
		ch.GET("/waiting", captain, a.handleWaitingChallenges)
		ch.GET("/:id/proof/:player", captain, a.handleProofImage)
		ch.POST("/submit", a.handleSubmit)
		ch.POST("/validate_for_user", captain, a.handleValidateForUser)
		ch.POST("/validate_for_team", captain, a.handleValidateForTeam)
		ch.POST("/add", admin, a.handleCreateChallenge)
		ch.PUT("/update/:id", admin, a.handleUpdateChallenge)
		ch.DELETE("/delete/:id", admin, a.handleDeleteChallenge)
	}

	tm := e.Group("/api/teams", a.auth.Middleware())
	{
		tm.GET("", a.handleListTeams)
		tm.GET("/:id", a.handleGetTeam)
		tm.GET("/:id/rank", a.handleTeamRank)
		tm.GET("/ranking", a.handleTeamRanking)
		tm.GET("/for_user/:userId", a.handleTeamForUser)
		tm.GET("/available_captains", a.handleAvailableCaptains)
		tm.POST("/add", admin, a.handleCreateTeam)
		tm.POST("/:id/add_user", captain, a.handleAddUserToTeam)
		tm.POST("/:id/remove_user", captain, a.handleRemoveUserFromTeam)
		tm.PUT("/update/:id", admin, a.handleUpdateTeam)
		tm.DELETE("/delete/:id", admin, a.handleDeleteTeam)
	}

	us := e.Group("/api/users", a.auth.Middleware())
	{
		us.GET("", a.handleListUsers)
		us.GET("/:id", a.handleGetUser)
		us.GET("/ranking", a.handleUserRanking)
		us.GET("/:id/profile_picture", a.handleProfilePicture)
		us.PUT("/update/profile_picture", a.handleUpdateProfilePicture)
		us.PUT("/admin_update/:id", admin, a.handleAdminUpdateUser)
		us.DELETE("/delete/:id", admin, a.handleDeleteUser)
	}

	st := e.Group("/api/settings", a.auth.Middleware())
	{
		st.GET("", a.handleGetSettings)
		st.PUT("/admin_update/toggle_users_ranking_visibility", admin, a.handleToggleUsersRanking)
		st.PUT("/admin_update/toggle_teams_ranking_visibility", admin, a.handleToggleTeamsRanking)
	}
}

func renderErr(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.JSON(e.HTTPStatusCode(), e)
}
