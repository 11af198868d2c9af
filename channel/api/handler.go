package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"chatlog/backend/channel/service"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/observability"
	"chatlog/backend/webhook"

	"github.com/gin-gonic/gin"
)

// Supported slash commands.
const (
	CommandID    = "/chatid"
	CommandStart = "/chatstart"
)

// CommandHandler routes authenticated slash commands. Every outcome
// except a bad token answers 200 with human-readable text; the command
// surface never produces a 5xx.
type CommandHandler struct {
	auth    *webhook.Authenticator
	service *service.ChannelService
}

func NewCommandHandler(auth *webhook.Authenticator, svc *service.ChannelService) *CommandHandler {
	return &CommandHandler{auth: auth, service: svc}
}

// HandleCommand processes one form-encoded slash command POST.
func (h *CommandHandler) HandleCommand(c *gin.Context) {
	if !h.auth.Verify(c.PostForm("token")) {
		c.String(http.StatusForbidden, "Invalid verification token.")
		return
	}

	command := c.PostForm("command")
	channelID := c.PostForm("channel_id")
	channelName := c.PostForm("channel_name")
	text := strings.TrimSpace(c.PostForm("text"))

	observability.Commands.WithLabelValues(command).Inc()

	switch command {
	case CommandID:
		c.String(http.StatusOK, "This channel's id is %s", channelID)
	case CommandStart:
		c.String(http.StatusOK, h.provision(c, channelID, channelName, text))
	default:
		// Unknown commands are acknowledged, never errored: Slack
		// would surface a non-200 to the user as a failure.
		c.String(http.StatusOK, "Sorry, %s isn't a command I know.", command)
	}
}

// provision runs /chatstart and maps every failure onto explanatory
// text for the person who typed the command.
func (h *CommandHandler) provision(c *gin.Context, channelID, channelName, slug string) string {
	_, err := h.service.Provision(c.Request.Context(), channelID, channelName, slug)
	if err == nil {
		return fmt.Sprintf("Chat is on! Recording this channel under `%s`.", slug)
	}

	var charErr service.ErrSlugChar
	switch {
	case stderrors.Is(err, service.ErrSlugMissing):
		return "Please provide a slug for the channel, like `/chatstart my-story`."
	case stderrors.As(err, &charErr):
		return fmt.Sprintf("Sorry, that slug has a '%c' character, which isn't allowed.", charErr.Char)
	case stderrors.Is(err, service.ErrSlugTaken):
		return "Sorry, that slug is already taken. Try another one."
	default:
		logger.FromContext(c).LogError(err, "channel provisioning failed",
			"channel_id", channelID,
			"slug", slug,
		)
		return "Sorry, something went wrong on our end. Try again in a bit."
	}
}
