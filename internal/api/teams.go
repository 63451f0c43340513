package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isati/wei-api/internal/auth"
	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/team"
)

func (a *API) handleListTeams(c *gin.Context) {
	teams, err := a.teams.List(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, teams)
}

func (a *API) handleGetTeam(c *gin.Context) {
	t, err := a.teams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (a *API) handleTeamForUser(c *gin.Context) {
	t, err := a.teams.TeamForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (a *API) handleTeamRank(c *gin.Context) {
	rank, err := a.leaderboard.TeamRank(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, rank)
}

// handleTeamRanking serves the team leaderboard, visible to administrators
// unconditionally and to everyone else only when enabled in the settings.
func (a *API) handleTeamRanking(c *gin.Context) {
	caller := auth.Caller(c)

	if caller.Role != domain.RoleAdministrator {
		gs, err := a.settings.Get(c.Request.Context())
		if err != nil {
			renderErr(c, err)
			return
		}

		if !gs.IsTeamsRankingVisible {
			renderErr(c, errors.New(errors.CodePermissionDenied,
				errors.WithMessagef("the teams ranking is not visible")))
			return
		}
	}

	ranking, err := a.leaderboard.TeamRanking(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, ranking)
}

func (a *API) handleAvailableCaptains(c *gin.Context) {
	users, err := a.teams.AvailableCaptains(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (a *API) handleCreateTeam(c *gin.Context) {
	var req team.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	t, err := a.teams.Create(c.Request.Context(), req)
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (a *API) handleUpdateTeam(c *gin.Context) {
	var req team.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	req.TeamID = c.Param("id")

	if err := a.teams.Update(c.Request.Context(), req); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleDeleteTeam(c *gin.Context) {
	if err := a.teams.Delete(c.Request.Context(), c.Param("id")); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

type teamMemberRequest struct {
	UserID string `json:"userId"`
}

func (a *API) handleAddUserToTeam(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	if err := a.teams.AddUser(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleRemoveUserFromTeam(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	if err := a.teams.RemoveUser(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}
