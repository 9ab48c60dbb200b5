package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/lib/mpesa"
	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/utils"
)

type PushRequest struct {
	Phone     string
	Amount    float64
	TierName  string
	EventName string
	Name      string
	Email     string
}

// InitiatePush asks the provider to prompt the payer and stores the pending
// transaction until its callback arrives or it expires.
func (e *Engine) InitiatePush(ctx context.Context, req PushRequest) (*models.PendingTransaction, error) {
	if e.Push == nil {
		return nil, types.NewError(types.KindTransport, "", mpesa.ErrNotConfigured)
	}
	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return nil, types.NewError(types.KindInvalidClaim, "Invalid phone number", err)
	}
	tier := utils.NormalizeTier(req.TierName)
	if err := e.checkAmount(tier, req.Amount); err != nil {
		return nil, err
	}
	if err := e.Capacity.Check(ctx); err != nil {
		return nil, err
	}
	eventName := req.EventName
	if eventName == "" {
		eventName = config.DefaultEventName
	}

	thirdPartyID := strings.ReplaceAll(uuid.NewString(), "-", "")
	reference := "T" + strings.ToUpper(thirdPartyID[:11])
	pctx := ctx
	if e.Config.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, e.Config.ProviderTimeout)
		defer cancel()
	}
	res, err := e.Push.C2BPayment(pctx, mpesa.C2BInput{
		Amount:         req.Amount,
		MSISDN:         phone,
		ConversationID: thirdPartyID,
		Reference:      reference,
		Description:    fmt.Sprintf("%s - %s ticket", eventName, tier),
	})
	if err != nil {
		log.Printf("[Reconcile] push initiation failed for %s: %s\n", phone, err.Error())
		return nil, types.NewError(types.KindTransport, "", err)
	}
	if !res.OK() {
		return nil, types.NewError(types.KindVerificationFailed, "Payment request was rejected: "+res.Description, nil)
	}
	conversationID := res.ConversationID
	if conversationID == "" {
		conversationID = thirdPartyID
	}
	p := &models.PendingTransaction{
		ConversationID: conversationID,
		Reference:      reference,
		Phone:          phone,
		Email:          strings.TrimSpace(req.Email),
		Name:           strings.TrimSpace(req.Name),
		TierName:       tier,
		EventName:      eventName,
		Amount:         req.Amount,
		Status:         types.PENDING_OPEN,
		ExpiresAt:      e.now().Add(e.Config.PendingTTL),
	}
	if err := e.Pending.SavePending(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[Reconcile] push payment %s pending for %s\n", p.ConversationID, phone)
	return p, nil
}

// HandlePushCallback settles a pending push payment. A provider failure marks the
// pending record and stores a FAILED booking; success reconciles the transaction id.
// Callbacks for unknown conversations are reconciled from the payload alone.
func (e *Engine) HandlePushCallback(ctx context.Context, body types.PushCallbackBody) (*Result, error) {
	pending, err := e.Pending.FindPending(ctx, body.ConversationID)
	if err != nil {
		log.Printf("[Reconcile] pending lookup failed for %s: %s\n", body.ConversationID, err.Error())
		pending = nil
	}
	if pending == nil {
		log.Printf("[Reconcile] WARNING push callback %s has no pending transaction\n", body.ConversationID)
	}

	if body.ResponseCode != mpesa.SuccessCode {
		return e.failPush(ctx, body, pending)
	}

	claim := types.PaymentClaim{
		ClaimKey:  body.TransactionID,
		Channel:   types.PUSH_PAYMENT,
		Phone:     body.CustomerMSISDN,
		Reference: body.ConversationID,
		Provider:  "mpesa",
		Succeeded: true,
	}
	if amt, err := strconv.ParseFloat(strings.TrimSpace(body.Amount), 64); err == nil {
		claim.Amount = amt
	}
	if pending != nil {
		claim.Phone = pending.Phone
		claim.Email = pending.Email
		claim.Name = pending.Name
		claim.TierName = pending.TierName
		claim.EventName = pending.EventName
		claim.Amount = pending.Amount
	}

	res, err := e.Reconcile(ctx, claim)
	if errors.Is(err, types.ErrDuplicateClaim) {
		// the provider retries callbacks; answer with the ticket already issued
		existing, ferr := e.Store.FindByClaimKey(ctx, utils.NormalizeClaimKey(body.TransactionID))
		if ferr == nil && existing != nil {
			return &Result{BookingID: existing.ID, TicketID: existing.Ticket(), Status: existing.Status}, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if pending != nil {
		if err := e.Pending.ResolvePending(ctx, pending.ConversationID, types.PENDING_COMPLETED, "", &res.BookingID); err != nil {
			log.Printf("[Reconcile] error completing pending %s: %s\n", pending.ConversationID, err.Error())
		}
	}
	return res, nil
}

func (e *Engine) failPush(ctx context.Context, body types.PushCallbackBody, pending *models.PendingTransaction) (*Result, error) {
	reason := body.ResponseDesc
	if reason == "" {
		reason = body.ResponseCode
	}
	if pending != nil && pending.Status != types.PENDING_OPEN {
		return e.settledPush(ctx, pending)
	}
	log.Printf("[Reconcile] push payment %s failed: %s\n", body.ConversationID, reason)
	b := &models.Booking{
		Channel:   types.PUSH_PAYMENT,
		Provider:  "mpesa",
		Reference: body.ConversationID,
		Phone:     body.CustomerMSISDN,
		TierName:  utils.NormalizeTier(""),
		Currency:  e.Config.Currency,
		Status:    types.BOOKING_FAILED,
	}
	if phone, err := utils.NormalizePhone(b.Phone); err == nil {
		b.Phone = phone
	}
	if pending != nil {
		b.Phone = pending.Phone
		b.Email = pending.Email
		b.Name = pending.Name
		b.TierName = pending.TierName
		b.EventName = pending.EventName
		b.Amount = pending.Amount
	}
	if err := e.Store.Insert(ctx, b); err != nil {
		return nil, err
	}
	if pending != nil {
		if err := e.Pending.ResolvePending(ctx, pending.ConversationID, types.PENDING_FAILED, reason, &b.ID); err != nil {
			log.Printf("[Reconcile] error failing pending %s: %s\n", pending.ConversationID, err.Error())
		}
	}
	e.publish(ctx, types.TopicBookingFailed, b)
	return &Result{BookingID: b.ID, Status: b.Status}, nil
}

// settledPush answers a failure callback for a pending record that is already
// resolved. Nothing is written; the existing booking, if any, is reported.
func (e *Engine) settledPush(ctx context.Context, pending *models.PendingTransaction) (*Result, error) {
	log.Printf("[Reconcile] push payment %s already %s, ignoring failure callback\n", pending.ConversationID, pending.Status)
	if pending.BookingID == nil {
		return &Result{Status: types.BOOKING_FAILED}, nil
	}
	b, err := e.Store.FindByID(ctx, *pending.BookingID)
	if err != nil {
		return nil, err
	}
	return &Result{BookingID: b.ID, TicketID: b.Ticket(), Status: b.Status}, nil
}

// PushStatus returns the pending transaction for a conversation id.
func (e *Engine) PushStatus(ctx context.Context, conversationID string) (*models.PendingTransaction, error) {
	p, err := e.Pending.FindPending(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, types.NewError(types.KindNotFound, "Transaction not found", nil)
	}
	if p.Expired(e.now()) {
		p.Status = types.PENDING_EXPIRED
	}
	return p, nil
}

// ExpirePending closes push payments whose callback never arrived.
func (e *Engine) ExpirePending(ctx context.Context) (int64, error) {
	n, err := e.Pending.ExpirePending(ctx, e.now())
	if err != nil {
		log.Printf("[Scheduler] error expiring pending transactions: %s\n", err.Error())
		return 0, err
	}
	if n > 0 {
		log.Printf("[Scheduler] expired %d pending transactions\n", n)
	}
	return n, nil
}
