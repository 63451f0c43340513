package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isati/wei-api/internal/auth"
	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/user"
)

func (a *API) handleListUsers(c *gin.Context) {
	users, err := a.users.List(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (a *API) handleGetUser(c *gin.Context) {
	u, err := a.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// handleUserRanking serves the player leaderboard, visible to administrators
// unconditionally and to everyone else only when enabled in the settings.
func (a *API) handleUserRanking(c *gin.Context) {
	caller := auth.Caller(c)

	if caller.Role != domain.RoleAdministrator {
		gs, err := a.settings.Get(c.Request.Context())
		if err != nil {
			renderErr(c, err)
			return
		}

		if !gs.IsUsersRankingVisible {
			renderErr(c, errors.New(errors.CodePermissionDenied,
				errors.WithMessagef("the users ranking is not visible")))
			return
		}
	}

	ranking, err := a.leaderboard.UserRanking(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, ranking)
}

func (a *API) handleProfilePicture(c *gin.Context) {
	img, err := a.users.ProfilePicture(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, img)
}

type profilePictureRequest struct {
	ProfilePicture []byte `json:"profilePicture"`
}

// handleUpdateProfilePicture replaces the calling user's picture.
func (a *API) handleUpdateProfilePicture(c *gin.Context) {
	var req profilePictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	caller := auth.Caller(c)

	if err := a.users.UpdateProfilePicture(c.Request.Context(), caller.UserID, req.ProfilePicture); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleAdminUpdateUser(c *gin.Context) {
	var req user.AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	req.UserID = c.Param("id")

	if err := a.users.AdminUpdate(c.Request.Context(), req); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleDeleteUser(c *gin.Context) {
	if err := a.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}
