package api

import (
	"chatlog/backend/feed/ws"

	"github.com/gin-gonic/gin"
)

// RegisterFeedRoutes wires the feed read surface: the live JSON
// endpoint, the published JSONP artifacts, and the update socket.
func RegisterFeedRoutes(r *gin.Engine, handler *FeedHandler, hub *ws.Hub, artifactDir string) {
	r.GET("/api/:channel", handler.GetFeed)
	r.GET("/story/:slug", handler.GetFeedBySlug)
	r.Static("/json", artifactDir)
	if hub != nil {
		r.GET("/ws/:channel", hub.ServeWS)
	}
}
