package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	"pollbox/internal/validation"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

const maxFormMemory = 1 << 20

var errInvalidID = errors.New("invalid id")

// writeError maps a service error onto the response envelope. Internal
// failures are attached to the context for the error middleware to log and
// answered without their message.
func writeError(c *gin.Context, err error) {
	status := pollbox_errors.HTTPStatus(err)
	if violations := pollbox_errors.Violations(err); violations != nil {
		c.JSON(status, httpdto.NewValidationErrorResponse(violations))
		return
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, httpdto.NewErrorResponse("internal error", pollbox_errors.Code(err)))
		return
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), pollbox_errors.Code(err)))
}

func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(msg, "INVALID_REQUEST"))
}

// readRecord decodes a JSON body as is, or coerces a form body with fromForm.
func readRecord(c *gin.Context, fromForm func(url.Values) validation.Record) (validation.Record, error) {
	if c.ContentType() == binding.MIMEJSON {
		body, err := c.GetRawData()
		if err != nil {
			return nil, err
		}
		return validation.DecodeJSON(body)
	}
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return fromForm(c.Request.PostForm), nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// actor is uuid.Nil for anonymous requests; services reject it where needed.
func actor(c *gin.Context) uuid.UUID {
	id, _ := services.ActorFromContext(c.Request.Context())
	return id
}
