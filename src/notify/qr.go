package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/gosimple/slug"
	"github.com/yeqown/go-qrcode"
)

// TicketQR renders the ticket's entry QR code as a JPEG under dir and returns its path.
func TicketQR(dir string, d TicketDetails) (string, error) {
	raw, err := json.Marshal(map[string]any{
		"ticketId":  d.TicketID,
		"bookingId": d.BookingID,
		"event":     d.EventName,
	})
	if err != nil {
		return "", err
	}
	qrc, err := qrcode.New(string(raw))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filepath := path.Join(dir, fmt.Sprintf("%s-%d.jpeg", slug.Make(d.TicketID), d.BookingID))
	if err := qrc.Save(filepath); err != nil {
		return "", err
	}
	return filepath, nil
}
