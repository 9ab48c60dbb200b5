package engine

import (
	"context"
	"log"

	"github.com/judy2649/the-grey-pegeant/src/notify"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/utils"
)

type AdminResult struct {
	BookingID       uint                `json:"bookingId"`
	TicketID        string              `json:"ticketId,omitempty"`
	Status          types.BookingStatus `json:"status"`
	AlreadyVerified bool                `json:"alreadyVerified"`
	Notifications   notify.Report       `json:"notifications,omitempty"`
}

// AdminVerify moves a PENDING booking to CONFIRMED, assigning its ticket and
// notifying. Verifying an already confirmed booking is a no-op success.
func (e *Engine) AdminVerify(ctx context.Context, bookingID uint) (*AdminResult, error) {
	ctx, span := tracer.Start(ctx, "admin.verify")
	defer span.End()

	b, transitioned, err := e.Store.Confirm(ctx, bookingID, e.Capacity.Capacity, utils.GenerateTicketID)
	if err != nil {
		return nil, err
	}
	res := &AdminResult{BookingID: b.ID, TicketID: b.Ticket(), Status: b.Status, AlreadyVerified: !transitioned}
	if !transitioned {
		log.Printf("[Reconcile] booking %d already %s, nothing to verify\n", b.ID, b.Status)
		return res, nil
	}
	log.Printf("[Reconcile] booking %d verified by admin with ticket %s\n", b.ID, b.Ticket())
	res.Notifications = e.notifyBooking(ctx, b, false)
	e.publish(ctx, types.TopicBookingConfirmed, b)
	return res, nil
}

// Resend repeats the ticket notifications for a confirmed booking without touching it.
func (e *Engine) Resend(ctx context.Context, bookingID uint) (*AdminResult, error) {
	b, err := e.Store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.CountsTowardCapacity() {
		return nil, types.NewError(types.KindInvalidClaim, "Only confirmed bookings can be resent", nil)
	}
	return &AdminResult{
		BookingID:       b.ID,
		TicketID:        b.Ticket(),
		Status:          b.Status,
		AlreadyVerified: true,
		Notifications:   e.notifyBooking(ctx, b, true),
	}, nil
}

// RetryNotification resends one failed delivery and records the new outcome.
func (e *Engine) RetryNotification(ctx context.Context, r types.NotificationRetry) (notify.Delivery, error) {
	b, err := e.Store.FindByID(ctx, r.BookingID)
	if err != nil {
		return notify.Delivery{}, err
	}
	if e.Notifier == nil {
		return notify.Delivery{Recipient: r.Recipient, Channel: r.Channel, Outcome: types.NOTIFICATION_SKIPPED}, nil
	}
	userMsg, adminMsg := e.ticketMessages(ctx, b, false)
	rcpt, msg := userRecipient(b), userMsg
	if r.Recipient == types.RECIPIENT_ADMIN {
		rcpt, msg = e.Notifier.Admin(), adminMsg
	}
	d := e.Notifier.Send(ctx, rcpt, r.Channel, msg)
	e.record(ctx, b.ID, notify.Report{d}, r.Attempt)
	return d, nil
}
