package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// intentClaim builds a card claim from a succeeded PaymentIntent and the
// metadata attached when the intent was created.
func intentClaim(pi *stripe.PaymentIntent) types.PaymentClaim {
	md := pi.Metadata
	amount := float64(pi.Amount) / 100
	if v, err := strconv.ParseFloat(md["amountKES"], 64); err == nil && v > 0 {
		amount = v
	}
	return types.PaymentClaim{
		ClaimKey:  pi.ID,
		Reference: pi.ID,
		Channel:   types.CARD,
		Phone:     md["phoneNumber"],
		Email:     md["email"],
		Name:      md["name"],
		TierName:  md["tierName"],
		EventName: md["eventName"],
		Amount:    amount,
		Provider:  "stripe",
		Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded,
	}
}

func stripeHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.POST("/payments/stripe/webhook", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := config.Get().StripeWebhookSecret
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.succeeded":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			res, err := getEngine().Reconcile(ctx.Request.Context(), intentClaim(&pi))
			if errors.Is(err, types.ErrDuplicateClaim) {
				log.Printf("[Stripe] PaymentIntent %s already reconciled\n", pi.ID)
				break
			}
			if err != nil {
				if types.HTTPStatus(err) >= http.StatusInternalServerError {
					log.Printf("[Stripe] Error reconciling PaymentIntent %s: %s\n", pi.ID, err.Error())
					ctx.Status(http.StatusInternalServerError)
					return
				}
				log.Printf("[Stripe] PaymentIntent %s rejected: %s\n", pi.ID, err.Error())
				break
			}
			log.Printf("[Stripe] PaymentIntent %s reconciled as booking %d (%s)\n", pi.ID, res.BookingID, res.TicketID)
		default:
			log.Printf("[Stripe] ignoring event %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return g
}
