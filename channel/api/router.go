package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterCommandRoutes wires the slash-command endpoint.
func RegisterCommandRoutes(r *gin.Engine, handler *CommandHandler) {
	r.POST("/slack/command", handler.HandleCommand)
}
