package handler

import (
	"net/http"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	"pollbox/internal/validation"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	out, err := h.profiles.Get(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *ProfileHandler) Update(c *gin.Context) {
	rec, err := readRecord(c, validation.ProfileFromForm)
	if err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}

	out, err := h.profiles.Update(c.Request.Context(), actor(c), rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	if err := h.profiles.DeleteAccount(c.Request.Context(), actor(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
