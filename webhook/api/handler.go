package api

import (
	stderrors "errors"
	"io"
	"net/http"

	channelmodels "chatlog/backend/channel/models"
	channelrepo "chatlog/backend/channel/repository"
	messageservice "chatlog/backend/message/service"
	"chatlog/backend/pkg/errors"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/observability"
	"chatlog/backend/webhook"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EventHandler receives Slack Events API deliveries. The response
// policy matters more than usual here: Slack redelivers on any
// non-2xx, so everything this application cannot use still gets a 200
// unless the top-level request type itself is unrecognized.
type EventHandler struct {
	auth     *webhook.Authenticator
	channels channelrepo.ChannelRepository
	messages *messageservice.MessageService
}

func NewEventHandler(
	auth *webhook.Authenticator,
	channels channelrepo.ChannelRepository,
	messages *messageservice.MessageService,
) *EventHandler {
	return &EventHandler{auth: auth, channels: channels, messages: messages}
}

// HandleEvent processes one webhook POST.
func (h *EventHandler) HandleEvent(c *gin.Context) {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	cb, err := webhook.ParseCallback(body)
	if err != nil {
		observability.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		c.Status(http.StatusBadRequest)
		return
	}

	if !h.auth.Verify(cb.Token) {
		observability.WebhookEvents.WithLabelValues("unknown", "forbidden").Inc()
		c.Status(http.StatusForbidden)
		return
	}

	var ev *webhook.Event
	if cb.Type == "event_callback" {
		if ev, err = cb.DecodeEvent(); err != nil {
			// Recognized envelope with an undecodable event: ack it,
			// a redelivery would fail the same way.
			log.LogError(err, "event decode failed")
			observability.WebhookEvents.WithLabelValues("unknown", "acknowledged").Inc()
			c.Status(http.StatusOK)
			return
		}
	}

	kind := cb.Classify(ev)

	switch kind {
	case webhook.KindURLVerification:
		observability.WebhookEvents.WithLabelValues(kind.String(), "applied").Inc()
		c.JSON(http.StatusOK, gin.H{"challenge": cb.Challenge})

	case webhook.KindUnknownType:
		observability.WebhookEvents.WithLabelValues(kind.String(), "rejected").Inc()
		c.Status(http.StatusBadRequest)

	case webhook.KindIgnored:
		observability.WebhookEvents.WithLabelValues(kind.String(), "acknowledged").Inc()
		c.Status(http.StatusOK)

	default:
		h.reconcile(c, kind, ev)
	}
}

// reconcile applies a message event against the store.
func (h *EventHandler) reconcile(c *gin.Context, kind webhook.Kind, ev *webhook.Event) {
	log := logger.FromContext(c).WithChannel(ev.Channel)

	channel, err := h.channels.GetByChannelID(ev.Channel)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			// Only explicitly tracked channels are recorded; events
			// for any other channel are acknowledged no-ops.
			observability.WebhookEvents.WithLabelValues(kind.String(), "untracked").Inc()
			c.Status(http.StatusOK)
			return
		}
		c.Error(errors.NewInternalServerError("CHANNEL_LOOKUP_FAILED", err.Error()))
		return
	}

	err = h.apply(c, kind, channel, ev)
	switch {
	case err == nil:
		observability.WebhookEvents.WithLabelValues(kind.String(), "applied").Inc()
		c.Status(http.StatusOK)
	case stderrors.Is(err, messageservice.ErrBadEvent):
		// Unusable payload shape: redelivery cannot fix it, so ack.
		log.LogError(err, "unusable message event", "kind", kind.String())
		observability.WebhookEvents.WithLabelValues(kind.String(), "acknowledged").Inc()
		c.Status(http.StatusOK)
	case errors.IsNotFound(err):
		// Update targets must exist; this asymmetry with delete is
		// deliberate and the failure is surfaced.
		observability.WebhookEvents.WithLabelValues(kind.String(), "error").Inc()
		c.Error(err)
	default:
		observability.WebhookEvents.WithLabelValues(kind.String(), "error").Inc()
		c.Error(errors.NewInternalServerError("RECONCILE_FAILED", err.Error()))
	}
}

func (h *EventHandler) apply(c *gin.Context, kind webhook.Kind, channel *channelmodels.Channel, ev *webhook.Event) error {
	ctx := c.Request.Context()

	switch kind {
	case webhook.KindMessageAdded:
		return h.messages.Create(ctx, channel, ev)
	case webhook.KindFileShared:
		return h.messages.CreateWithFile(ctx, channel, ev)
	case webhook.KindMessageChanged:
		return h.messages.Update(ctx, channel, ev)
	case webhook.KindMessageDeleted:
		return h.messages.Delete(ctx, channel, ev)
	default:
		return nil
	}
}
