package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Authenticator resolves the token passed on the upgrade request.
type Authenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

// PollReader loads the current state of a poll for the first frame.
type PollReader interface {
	Get(ctx context.Context, pollID int64) (services.PollDetail, error)
}

type Handler struct {
	auth     Authenticator
	polls    PollReader
	hub      *Hub
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewHandler(auth Authenticator, polls PollReader, hub *Hub, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		auth:  auth,
		polls: polls,
		hub:   hub,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Live upgrades GET /v1/polls/:id/live?token= and streams the poll's results:
// the current tally first, then one frame per accepted vote.
func (h *Handler) Live(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = bearer(c.GetHeader("Authorization"))
	}
	actor, err := h.auth.Authenticate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("authentication required", "AUTHENTICATION_REQUIRED"))
		return
	}

	pollID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || pollID <= 0 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}
	detail, err := h.polls.Get(c.Request.Context(), pollID)
	if err != nil {
		c.JSON(pollbox_errors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), pollbox_errors.Code(err)))
		return
	}
	snapshot, err := json.Marshal(detail.Results)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, actor)
	client.SendMessage(snapshot)
	h.hub.Register(client)
	h.hub.Subscribe(client, PollChannel(pollID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.WriteLoop(ctx)

	h.log.Info(c.Request.Context(), "live watcher connected", zap.Int64("poll_id", pollID), zap.String("client_id", client.ID))
	client.ReadLoop()
	h.hub.Unregister(client)
	h.log.Info(c.Request.Context(), "live watcher disconnected", zap.Int64("poll_id", pollID), zap.String("client_id", client.ID))
}

func bearer(value string) string {
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
