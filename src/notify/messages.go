package notify

import (
	"fmt"
	"html"
)

type TicketDetails struct {
	BookingID uint
	TicketID  string
	ClaimKey  string
	Name      string
	Phone     string
	Email     string
	TierName  string
	EventName string
	Venue     string
	When      string
	MapsLink  string
	Amount    float64
	Currency  string
	Resend    bool
}

// TicketMessages builds the purchaser and administrator messages for a confirmed ticket.
func TicketMessages(d TicketDetails, qrPath string) (user Message, admin Message) {
	ref := d.ClaimKey
	if ref == "" {
		ref = "-"
	}
	user.SMS = fmt.Sprintf("Ticket Confirmed!\nRef: %s\nTicket No: %s\nEvent: %s\nAmt: %s %.0f\n\nPlease keep this message for entry.",
		ref, d.TicketID, d.EventName, d.Currency, d.Amount)
	user.Subject = fmt.Sprintf("Your Ticket for %s - %s", d.EventName, d.TicketID)
	user.HTML = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto;">
<h1>%s</h1>
<p>Hi %s, your payment has been confirmed.</p>
<p><strong>Ticket ID:</strong> %s</p>
<p><strong>Tier:</strong> %s</p>
<p><strong>Reference:</strong> %s</p>
<p><strong>Amount:</strong> %s %.0f</p>
<p><strong>When:</strong> %s</p>
<p><strong>Where:</strong> <a href="%s">%s</a></p>
<p>Present this email or the attached QR code at the entrance.</p>
</div>`,
		html.EscapeString(d.EventName), html.EscapeString(d.Name), html.EscapeString(d.TicketID),
		html.EscapeString(d.TierName), html.EscapeString(ref), d.Currency, d.Amount,
		html.EscapeString(d.When), d.MapsLink, html.EscapeString(d.Venue))
	if qrPath != "" {
		user.Attachments = []string{qrPath}
	}

	prefix := "New Payment Received!"
	if d.Resend {
		prefix = "Ticket Resent"
	}
	admin.SMS = fmt.Sprintf("%s\nCode: %s\nUser: %s (%s)\nAmt: %s %.0f\nTicket: %s",
		prefix, ref, d.Name, d.Phone, d.Currency, d.Amount, d.TicketID)
	admin.Subject = fmt.Sprintf("%s %s", prefix, d.TicketID)
	admin.HTML = fmt.Sprintf(`<p>%s</p><ul><li>Booking: %d</li><li>Ticket: %s</li><li>Code: %s</li><li>User: %s (%s, %s)</li><li>Amount: %s %.0f</li></ul>`,
		prefix, d.BookingID, html.EscapeString(d.TicketID), html.EscapeString(ref),
		html.EscapeString(d.Name), html.EscapeString(d.Phone), html.EscapeString(d.Email), d.Currency, d.Amount)
	return user, admin
}
