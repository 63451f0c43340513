package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) handleGetSettings(c *gin.Context) {
	gs, err := a.settings.Get(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gs)
}

func (a *API) handleToggleUsersRanking(c *gin.Context) {
	if err := a.settings.ToggleUsersRankingVisibility(c.Request.Context()); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleToggleTeamsRanking(c *gin.Context) {
	if err := a.settings.ToggleTeamsRankingVisibility(c.Request.Context()); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}
