package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isati/wei-api/internal/auth"
	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/game"
)

func (a *API) handleListChallenges(c *gin.Context) {
	challenges, err := a.challenges.List(c.Request.Context())
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, challenges)
}

func (a *API) handleGetChallenge(c *gin.Context) {
	ch, err := a.challenges.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, ch)
}

func (a *API) handleChallengeImage(c *gin.Context) {
	img, err := a.challenges.Image(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderErr(c, err)
		return
	}

	// []byte renders as a base64 string, which is how clients expect images.
	c.JSON(http.StatusOK, img)
}

func (a *API) handleChallengesForPlayer(c *gin.Context) {
	challenges, err := a.game.ChallengesForPlayer(c.Request.Context(), c.Param("player"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, challenges)
}

func (a *API) handleChallengesForTeam(c *gin.Context) {
	challenges, err := a.game.ChallengesForTeam(c.Request.Context(), c.Param("team"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, challenges)
}

func (a *API) handleDoneChallenges(c *gin.Context) {
	challenges, err := a.game.DoneChallenges(c.Request.Context(), c.Param("player"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, challenges)
}

func (a *API) handleWaitingChallenges(c *gin.Context) {
	caller := auth.Caller(c)

	waiting, err := a.game.WaitingChallenges(c.Request.Context(), caller.UserID)
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, waiting)
}

func (a *API) handleProofImage(c *gin.Context) {
	img, err := a.game.ProofImage(c.Request.Context(), c.Param("id"), c.Param("player"))
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, img)
}

type submitRequest struct {
	ChallengeID string `json:"id"`
	ProofImage  []byte `json:"proofImage"`
}

// handleSubmit records a proof for the calling player.
func (a *API) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	caller := auth.Caller(c)

	err := a.game.Submit(c.Request.Context(), game.SubmitRequest{
		UserID:      caller.UserID,
		ChallengeID: req.ChallengeID,
		ProofImage:  req.ProofImage,
	})
	if err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

type validateRequest struct {
	ChallengeID string `json:"id"`
	PlayerID    string `json:"playerId,omitempty"`
	TeamID      string `json:"teamId,omitempty"`
}

func (a *API) handleValidateForUser(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	if err := a.game.ValidateForUser(c.Request.Context(), req.PlayerID, req.ChallengeID); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleValidateForTeam(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	if err := a.game.ValidateForTeam(c.Request.Context(), req.TeamID, req.ChallengeID); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleCreateChallenge(c *gin.Context) {
	var ch domain.Challenge
	if err := c.ShouldBindJSON(&ch); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	created, err := a.challenges.Create(c.Request.Context(), &ch)
	if err != nil {
		renderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

func (a *API) handleUpdateChallenge(c *gin.Context) {
	var ch domain.Challenge
	if err := c.ShouldBindJSON(&ch); err != nil {
		renderErr(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	ch.ChallengeID = c.Param("id")

	if err := a.challenges.Update(c.Request.Context(), &ch); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (a *API) handleDeleteChallenge(c *gin.Context) {
	if err := a.challenges.Delete(c.Request.Context(), c.Param("id")); err != nil {
		renderErr(c, err)
		return
	}

	c.Status(http.StatusOK)
}
