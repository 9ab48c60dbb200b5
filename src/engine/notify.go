package engine

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/notify"
	"github.com/judy2649/the-grey-pegeant/src/types"
)

// MaxNotificationAttempts bounds how often one delivery is tried in total.
const MaxNotificationAttempts = 3

func (e *Engine) details(b *models.Booking, resend bool) notify.TicketDetails {
	d := notify.TicketDetails{
		BookingID: b.ID,
		TicketID:  b.Ticket(),
		ClaimKey:  b.Claim(),
		Name:      b.Name,
		Phone:     b.Phone,
		Email:     b.Email,
		TierName:  b.TierName,
		EventName: b.EventName,
		MapsLink:  config.MapsLink,
		Amount:    b.Amount,
		Currency:  b.Currency,
		Resend:    resend,
	}
	if ev, ok := e.Config.FindEvent(b.EventName); ok {
		d.EventName = ev.Name
		d.Venue = ev.Venue
		d.When = ev.DateTime.Format("Monday, 2 January 2006 15:04 MST")
		d.MapsLink = ev.MapsLink
	}
	return d
}

// ticketMessages renders both messages, attaching the QR code when it can be drawn.
func (e *Engine) ticketMessages(ctx context.Context, b *models.Booking, resend bool) (notify.Message, notify.Message) {
	d := e.details(b, resend)
	qrPath := ""
	if e.QRDir != "" {
		p, err := notify.TicketQR(e.QRDir, d)
		if err != nil {
			log.Printf("[Notify] error rendering QR for booking %d: %s\n", b.ID, err.Error())
		} else {
			qrPath = p
			e.archive(ctx, b, p)
		}
	}
	return notify.TicketMessages(d, qrPath)
}

func (e *Engine) archive(ctx context.Context, b *models.Booking, file string) {
	if e.Archive == nil || !e.Archive.Configured() {
		return
	}
	url, err := e.Archive.Upload(ctx, fmt.Sprintf("tickets/%d/%s", b.ID, path.Base(file)), file)
	if err != nil {
		log.Printf("[Notify] error archiving ticket for booking %d: %s\n", b.ID, err.Error())
		return
	}
	log.Printf("[Notify] ticket for booking %d archived at %s\n", b.ID, url)
}

func userRecipient(b *models.Booking) notify.Recipient {
	return notify.Recipient{Kind: types.RECIPIENT_USER, Phone: b.Phone, Email: b.Email}
}

// notifyBooking fans the ticket out to purchaser and admin, records every outcome
// and queues failures for retry. It never fails the caller.
func (e *Engine) notifyBooking(ctx context.Context, b *models.Booking, resend bool) notify.Report {
	if e.Notifier == nil {
		return nil
	}
	ctx, span := tracer.Start(ctx, "notify")
	defer span.End()

	userMsg, adminMsg := e.ticketMessages(ctx, b, resend)
	report := e.Notifier.NotifyAll(ctx, userRecipient(b), userMsg, adminMsg)
	e.record(ctx, b.ID, report, 1)
	return report
}

func (e *Engine) record(ctx context.Context, bookingID uint, report notify.Report, attempt int) {
	logs := make([]models.NotificationLog, 0, len(report))
	for _, d := range report {
		logs = append(logs, models.NotificationLog{
			BookingID: bookingID,
			Recipient: d.Recipient,
			Channel:   d.Channel,
			Outcome:   d.Outcome,
			Detail:    d.Detail,
			Attempt:   attempt,
		})
	}
	if err := e.Store.LogNotifications(context.WithoutCancel(ctx), logs); err != nil {
		log.Printf("[Notify] error recording notifications for booking %d: %s\n", bookingID, err.Error())
	}
	if e.Events == nil || attempt >= MaxNotificationAttempts {
		return
	}
	for _, d := range report.Failed() {
		retry := types.NotificationRetry{BookingID: bookingID, Recipient: d.Recipient, Channel: d.Channel, Attempt: attempt + 1}
		if err := e.Events.Publish(context.WithoutCancel(ctx), types.TopicNotificationRetry, retry); err != nil {
			log.Printf("[Notify] error queueing retry for booking %d: %s\n", bookingID, err.Error())
		}
	}
}
