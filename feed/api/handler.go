package api

import (
	stderrors "errors"
	"net/http"

	channelrepo "chatlog/backend/channel/repository"
	"chatlog/backend/feed"
	"chatlog/backend/pkg/errors"
	"chatlog/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FeedHandler struct {
	publisher *feed.Publisher
	channels  channelrepo.ChannelRepository
	cache     feed.Cache
}

func NewFeedHandler(publisher *feed.Publisher, channels channelrepo.ChannelRepository, cache feed.Cache) *FeedHandler {
	return &FeedHandler{publisher: publisher, channels: channels, cache: cache}
}

// GetFeed serves the live feed JSON for one channel, preferring the
// cached copy written by the last publish.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	h.serve(c, c.Param("channel"))
}

// GetFeedBySlug serves the feed addressed by the channel's story slug,
// the form embedded in published story pages.
func (h *FeedHandler) GetFeedBySlug(c *gin.Context) {
	channel, err := h.channels.GetBySlug(c.Param("slug"))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(errors.NewNotFoundError("CHANNEL_NOT_FOUND", "Channel does not exist"))
			return
		}
		c.Error(errors.NewInternalServerError("FEED_ERROR", "Could not resolve the channel"))
		return
	}
	h.serve(c, channel.ChannelID)
}

func (h *FeedHandler) serve(c *gin.Context, channelID string) {
	if h.cache != nil {
		if data, err := h.cache.Get(c.Request.Context(), channelID); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			return
		}
	}

	doc, err := h.publisher.Document(channelID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(errors.NewNotFoundError("CHANNEL_NOT_FOUND", "Channel does not exist"))
			return
		}
		logger.FromContext(c).LogError(err, "feed document build failed", "channel_id", channelID)
		c.Error(errors.NewInternalServerError("FEED_ERROR", "Could not build the feed"))
		return
	}

	c.JSON(http.StatusOK, doc)
}
