package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterEventRoutes wires the Events API webhook endpoint.
func RegisterEventRoutes(r *gin.Engine, handler *EventHandler) {
	r.POST("/slack/events", handler.HandleEvent)
}
