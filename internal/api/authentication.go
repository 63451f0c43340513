package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isati/wei-api/internal/auth"
	"github.com/isati/wei-api/internal/errors"
)

func (a *API) handleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	if _, err := a.auth.Register(c.Request.Context(), req); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	u, err := a.auth.Login(c.Request.Context(), req)
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}
