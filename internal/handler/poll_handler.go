package handler

import (
	"net/http"
	"strconv"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	"pollbox/internal/validation"

	"github.com/gin-gonic/gin"
)

type PollHandler struct {
	polls   *services.PollService
	queries *services.PollQueryService
}

func NewPollHandler(polls *services.PollService, queries *services.PollQueryService) *PollHandler {
	return &PollHandler{polls: polls, queries: queries}
}

func (h *PollHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	out, err := h.queries.List(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *PollHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeBadRequest(c, "invalid poll id")
		return
	}

	out, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *PollHandler) Create(c *gin.Context) {
	rec, err := readRecord(c, validation.PollFromForm)
	if err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}

	out, err := h.polls.Create(c.Request.Context(), actor(c), rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(out))
}

func (h *PollHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeBadRequest(c, "invalid poll id")
		return
	}
	rec, err := readRecord(c, validation.PollFromForm)
	if err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}

	out, err := h.polls.Update(c.Request.Context(), actor(c), id, rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *PollHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeBadRequest(c, "invalid poll id")
		return
	}

	if err := h.polls.Delete(c.Request.Context(), actor(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
