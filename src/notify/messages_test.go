package notify

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketMessages(t *testing.T) {
	d := TicketDetails{
		BookingID: 3,
		TicketID:  "VVIP ticket 2",
		ClaimKey:  "SDE23KL90M",
		Name:      "<b>Judy</b>",
		Phone:     "254712345678",
		TierName:  "VVIP",
		EventName: "The Grey Pageant",
		Amount:    1000,
		Currency:  "KES",
	}

	user, admin := TicketMessages(d, "/tmp/qr.jpeg")

	assert.Contains(t, user.SMS, "Ticket No: VVIP ticket 2")
	assert.Contains(t, user.SMS, "Ref: SDE23KL90M")
	assert.Contains(t, user.Subject, "VVIP ticket 2")
	assert.Contains(t, user.HTML, "&lt;b&gt;Judy&lt;/b&gt;")
	assert.Equal(t, []string{"/tmp/qr.jpeg"}, user.Attachments)
	assert.Contains(t, admin.SMS, "New Payment Received!")
	assert.Empty(t, admin.Attachments)

	d.Resend = true
	d.ClaimKey = ""
	user, admin = TicketMessages(d, "")
	assert.Contains(t, admin.SMS, "Ticket Resent")
	assert.Contains(t, user.SMS, "Ref: -")
	assert.Nil(t, user.Attachments)
}

func TestTicketQR(t *testing.T) {
	dir := t.TempDir()

	p, err := TicketQR(dir, TicketDetails{BookingID: 9, TicketID: "Normal ticket 9", EventName: "The Grey Pageant"})

	require.NoError(t, err)
	_, err = os.Stat(p)
	assert.NoError(t, err)
}
