package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judy2649/the-grey-pegeant/src/controllers"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	admin := g.Group("/admin")
	admin.
		POST("/verify", func(ctx *gin.Context) {
			var body types.BookingIDRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, "AdminVerify", err)
				return
			}
			res, err := getEngine().AdminVerify(ctx.Request.Context(), body.BookingID)
			if err != nil {
				respondError(ctx, "AdminVerify", err)
				return
			}
			message := "Booking verified and ticket issued"
			if res.AlreadyVerified {
				message = "Booking was already verified"
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success":       true,
				"message":       message,
				"ticketId":      res.TicketID,
				"bookingId":     bookingIDString(res.BookingID),
				"status":        res.Status,
				"notifications": res.Notifications.Map(),
			})
		}).
		POST("/resend", func(ctx *gin.Context) {
			var body types.BookingIDRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, "AdminResend", err)
				return
			}
			res, err := getEngine().Resend(ctx.Request.Context(), body.BookingID)
			if err != nil {
				respondError(ctx, "AdminResend", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success":       true,
				"message":       "Ticket notifications resent",
				"ticketId":      res.TicketID,
				"notifications": res.Notifications.Map(),
			})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			bookings, status, err := controllers.AdminListBookings(ctx)
			if err != nil {
				log.Printf("[AdminListBookings] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"success": false, "message": "Could not list bookings"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": bookings})
		}).
		GET("/analytics", func(ctx *gin.Context) {
			analytics, status, err := controllers.AdminAnalytics(ctx)
			if err != nil {
				log.Printf("[AdminAnalytics] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"success": false, "message": "Could not compute analytics"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": analytics})
		})
	return g
}
