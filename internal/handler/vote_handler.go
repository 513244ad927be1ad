package handler

import (
	"net/http"
	"net/url"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	"pollbox/internal/validation"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Submit takes the poll id from the path and option_id from the body.
func (h *VoteHandler) Submit(c *gin.Context) {
	pollID := c.Param("id")
	body, err := readRecord(c, func(values url.Values) validation.Record {
		return validation.VoteRecord(pollID, values.Get("option_id"))
	})
	if err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}
	rec := validation.VoteRecord(pollID, "")
	rec["option_id"] = body["option_id"]

	receipt, err := h.votes.Submit(c.Request.Context(), actor(c), rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(receipt))
}

type hasVotedResponse struct {
	PollID int64 `json:"poll_id"`
	Voted  bool  `json:"voted"`
}

func (h *VoteHandler) HasVoted(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeBadRequest(c, "invalid poll id")
		return
	}

	voted, err := h.votes.HasVoted(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(hasVotedResponse{PollID: id, Voted: voted}))
}
