package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/engine"
	"github.com/judy2649/the-grey-pegeant/src/lib"
	"github.com/judy2649/the-grey-pegeant/src/middlewares"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

func bookingIDString(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

// respondError writes the public form of err. Internal failures are logged with
// full detail and answered with a generic message.
func respondError(ctx *gin.Context, tag string, err error) {
	status := types.HTTPStatus(err)
	h := gin.H{"success": false, "message": types.PublicMessage(err)}
	var re *types.ReconcileError
	if status < http.StatusInternalServerError && errors.As(err, &re) {
		h["error"] = re.Kind
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] error: %s\n", tag, err.Error())
	}
	ctx.JSON(status, h)
}

func respondBindError(ctx *gin.Context, tag string, err error) {
	log.Printf("[%s] invalid request: %s\n", tag, err.Error())
	ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error(), "error": types.KindInvalidClaim})
}

func confirmationMessage(res *engine.Result) string {
	if res.Status == types.BOOKING_PENDING {
		return "Payment received. Your ticket will be issued once it is verified"
	}
	return "Payment confirmed. Your ticket has been issued"
}

func respondResult(ctx *gin.Context, res *engine.Result) {
	ctx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       confirmationMessage(res),
		"ticketId":      res.TicketID,
		"bookingId":     bookingIDString(res.BookingID),
		"status":        res.Status,
		"notifications": res.Notifications.Map(),
	})
}

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/manual", func(ctx *gin.Context) {
			var body types.ManualPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, "ManualPayment", err)
				return
			}
			res, err := getEngine().Reconcile(ctx.Request.Context(), types.PaymentClaim{
				ClaimKey:  body.MpesaCode,
				Channel:   types.MANUAL_CODE,
				Phone:     body.PhoneNumber,
				Email:     body.Email,
				Name:      body.Name,
				Amount:    body.Amount,
				TierName:  body.TierName,
				EventName: body.EventName,
				Provider:  "mpesa",
			})
			if err != nil {
				respondError(ctx, "ManualPayment", err)
				return
			}
			respondResult(ctx, res)
		}).
		POST("/payments/card/confirm", func(ctx *gin.Context) {
			var body types.CardConfirmRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, "CardConfirm", err)
				return
			}
			res, err := getEngine().Reconcile(ctx.Request.Context(), types.PaymentClaim{
				ClaimKey:  body.PaymentIntentID,
				Channel:   types.CARD,
				Phone:     body.PhoneNumber,
				Email:     body.Email,
				Name:      body.Name,
				Amount:    body.AmountKES,
				TierName:  body.TierName,
				EventName: body.EventName,
				Provider:  "stripe",
				Succeeded: body.Status == "" || body.Status == "succeeded",
			})
			if err != nil {
				respondError(ctx, "CardConfirm", err)
				return
			}
			respondResult(ctx, res)
		}).
		POST("/payments/card/intent", func(ctx *gin.Context) {
			var body types.CardIntentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, "CardIntent", err)
				return
			}
			intents := lib.NewStripeIntents()
			if intents == nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Card payments are not available"})
				return
			}
			e := getEngine()
			if err := e.ValidateAmount(body.TierName, body.Amount); err != nil {
				respondError(ctx, "CardIntent", err)
				return
			}
			if err := e.Capacity.Check(ctx.Request.Context()); err != nil {
				respondError(ctx, "CardIntent", err)
				return
			}
			intent, err := intents.CreateIntent(ctx.Request.Context(), body.Amount, e.Config.Currency, map[string]string{
				"tierName":    body.TierName,
				"eventName":   body.EventName,
				"phoneNumber": body.PhoneNumber,
				"email":       body.Email,
				"name":        body.Name,
				"amountKES":   strconv.FormatFloat(body.Amount, 'f', 2, 64),
			})
			if err != nil {
				respondError(ctx, "CardIntent", types.NewError(types.KindTransport, "", err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "paymentIntentId": intent.ID, "clientSecret": intent.ClientSecret})
		}).
		POST("/payments/thirdparty/confirm", func(ctx *gin.Context) {
			var body types.ThirdPartyConfirmRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, "ThirdPartyConfirm", err)
				return
			}
			res, err := getEngine().Reconcile(ctx.Request.Context(), types.PaymentClaim{
				ClaimKey:  body.TrackingID,
				Channel:   types.THIRD_PARTY_CHECKOUT,
				Phone:     body.PhoneNumber,
				Email:     body.Email,
				Name:      body.Name,
				Amount:    body.Amount,
				TierName:  body.TierName,
				EventName: body.EventName,
				Provider:  body.Provider,
			})
			if err != nil {
				respondError(ctx, "ThirdPartyConfirm", err)
				return
			}
			respondResult(ctx, res)
		})

	push := g.Group("/payments/push")
	push.
		POST("/initiate", func(ctx *gin.Context) {
			var body types.PushInitiateRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				respondBindError(ctx, "PushInitiate", err)
				return
			}
			p, err := getEngine().InitiatePush(ctx.Request.Context(), engine.PushRequest{
				Phone:     body.PhoneNumber,
				Amount:    body.Amount,
				TierName:  body.TierName,
				EventName: body.EventName,
				Name:      body.Name,
				Email:     body.Email,
			})
			if err != nil {
				respondError(ctx, "PushInitiate", err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success":        true,
				"message":        "Payment request sent. Enter your PIN on your phone to complete the payment",
				"conversationId": p.ConversationID,
				"reference":      p.Reference,
				"expiresAt":      p.ExpiresAt,
			})
		}).
		POST("/callback", middlewares.CallbackSecret(func() string { return config.Get().CallbackSecret }), func(ctx *gin.Context) {
			var body types.PushCallbackBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("[PushCallback] invalid payload: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"result": "fail", "message": "Invalid payload"})
				return
			}
			log.Printf("[PushCallback] %s code=%s\n", body.ConversationID, body.ResponseCode)
			res, err := getEngine().HandlePushCallback(ctx.Request.Context(), body)
			if err != nil {
				status := types.HTTPStatus(err)
				if status >= http.StatusInternalServerError {
					log.Printf("[PushCallback] error: %s\n", err.Error())
				}
				ctx.JSON(status, gin.H{"result": "fail", "message": types.PublicMessage(err)})
				return
			}
			if res.Status == types.BOOKING_FAILED {
				ctx.JSON(http.StatusOK, gin.H{"result": "fail"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"result": "success", "ticketId": res.TicketID})
		}).
		GET("/status/:conversationId", func(ctx *gin.Context) {
			var params struct {
				ConversationID string `uri:"conversationId" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				respondBindError(ctx, "PushStatus", err)
				return
			}
			e := getEngine()
			p, err := e.PushStatus(ctx.Request.Context(), params.ConversationID)
			if err != nil {
				respondError(ctx, "PushStatus", err)
				return
			}
			h := gin.H{"success": true, "status": p.Status, "conversationId": p.ConversationID}
			if p.FailureReason != "" {
				h["message"] = p.FailureReason
			}
			if p.BookingID != nil {
				h["bookingId"] = bookingIDString(*p.BookingID)
				if b, err := e.Store.FindByID(ctx.Request.Context(), *p.BookingID); err == nil {
					h["ticketId"] = b.Ticket()
				}
			}
			ctx.JSON(http.StatusOK, h)
		})

	return g
}
