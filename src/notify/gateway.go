package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/judy2649/the-grey-pegeant/src/types"
)

type SMSSender interface {
	Configured() bool
	SendSMS(ctx context.Context, to, message string) error
}

type Email struct {
	To          string
	Subject     string
	HTML        string
	Attachments []string
}

type EmailSender interface {
	Configured() bool
	SendEmail(ctx context.Context, e Email) error
}

type Recipient struct {
	Kind  types.Recipient
	Phone string
	Email string
}

type Message struct {
	SMS         string
	Subject     string
	HTML        string
	Attachments []string
}

type Delivery struct {
	Recipient types.Recipient           `json:"recipient"`
	Channel   types.NotificationChannel `json:"channel"`
	Outcome   types.NotificationOutcome `json:"outcome"`
	Detail    string                    `json:"detail,omitempty"`
}

// Report holds one Delivery per recipient and channel.
type Report []Delivery

func (r Report) Outcome(rcpt types.Recipient, ch types.NotificationChannel) types.NotificationOutcome {
	for _, d := range r {
		if d.Recipient == rcpt && d.Channel == ch {
			return d.Outcome
		}
	}
	return ""
}

// Map renders the report with the purchaser's outcomes at the top level and the
// administrator's under "admin": {"sms": "SENT", "email": "FAILED", "admin": {...}}.
func (r Report) Map() map[string]any {
	out := map[string]any{}
	admin := map[string]string{}
	for _, d := range r {
		if d.Recipient == types.RECIPIENT_ADMIN {
			admin[string(d.Channel)] = string(d.Outcome)
			continue
		}
		out[string(d.Channel)] = string(d.Outcome)
	}
	if len(admin) > 0 {
		out["admin"] = admin
	}
	return out
}

// Failed returns the deliveries that may be retried later.
func (r Report) Failed() Report {
	var out Report
	for _, d := range r {
		if d.Outcome == types.NOTIFICATION_FAILED {
			out = append(out, d)
		}
	}
	return out
}

type Gateway struct {
	SMS        SMSSender
	Email      EmailSender
	AdminPhone string
	AdminEmail string
	Timeout    time.Duration
}

func (g *Gateway) Admin() Recipient {
	return Recipient{Kind: types.RECIPIENT_ADMIN, Phone: g.AdminPhone, Email: g.AdminEmail}
}

type job struct {
	rcpt    Recipient
	channel types.NotificationChannel
	msg     Message
}

// NotifyAll sends SMS and email to the purchaser and the administrator concurrently
// and waits for every outcome. It never returns an error.
func (g *Gateway) NotifyAll(ctx context.Context, user Recipient, userMsg, adminMsg Message) Report {
	admin := g.Admin()
	jobs := []job{
		{user, types.NOTIFY_SMS, userMsg},
		{user, types.NOTIFY_EMAIL, userMsg},
		{admin, types.NOTIFY_SMS, adminMsg},
		{admin, types.NOTIFY_EMAIL, adminMsg},
	}
	return g.run(ctx, jobs)
}

// Send delivers one message over one channel to one recipient.
func (g *Gateway) Send(ctx context.Context, rcpt Recipient, ch types.NotificationChannel, msg Message) Delivery {
	return g.run(ctx, []job{{rcpt, ch, msg}})[0]
}

func (g *Gateway) run(ctx context.Context, jobs []job) Report {
	report := make(Report, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			report[i] = g.deliver(ctx, j)
		}(i, j)
	}
	wg.Wait()
	return report
}

func (g *Gateway) deliver(ctx context.Context, j job) (d Delivery) {
	d = Delivery{Recipient: j.rcpt.Kind, Channel: j.channel}
	defer func() {
		if r := recover(); r != nil {
			d.Outcome = types.NOTIFICATION_FAILED
			d.Detail = fmt.Sprint(r)
			log.Printf("[Notify] %s %s panicked: %v\n", j.rcpt.Kind, j.channel, r)
		}
	}()
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	var err error
	switch j.channel {
	case types.NOTIFY_SMS:
		if g.SMS == nil || !g.SMS.Configured() || j.rcpt.Phone == "" || j.msg.SMS == "" {
			d.Outcome = types.NOTIFICATION_SKIPPED
			return d
		}
		err = g.SMS.SendSMS(ctx, j.rcpt.Phone, j.msg.SMS)
	case types.NOTIFY_EMAIL:
		if g.Email == nil || !g.Email.Configured() || j.rcpt.Email == "" || j.msg.Subject == "" {
			d.Outcome = types.NOTIFICATION_SKIPPED
			return d
		}
		err = g.Email.SendEmail(ctx, Email{To: j.rcpt.Email, Subject: j.msg.Subject, HTML: j.msg.HTML, Attachments: j.msg.Attachments})
	default:
		d.Outcome = types.NOTIFICATION_SKIPPED
		return d
	}
	if err != nil {
		log.Printf("[Notify] %s %s failed: %s\n", j.rcpt.Kind, j.channel, err.Error())
		d.Outcome = types.NOTIFICATION_FAILED
		d.Detail = err.Error()
		return d
	}
	d.Outcome = types.NOTIFICATION_SENT
	return d
}
