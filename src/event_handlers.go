package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"data": config.Get().Events()})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			event, ok := config.Get().FindEvent(params.ID)
			if !ok {
				ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Event not found"})
				return
			}
			h := gin.H{"data": event}
			remaining, err := getEngine().Capacity.Remaining(ctx.Request.Context())
			if err != nil {
				log.Printf("[Events] error reading remaining capacity: %s\n", err.Error())
			} else {
				h["remaining"] = remaining
			}
			ctx.JSON(http.StatusOK, h)
		})
	return g
}
