package models

import (
	"time"

	"github.com/judy2649/the-grey-pegeant/src/types"
)

// Booking is one ticket sale. ClaimKey is unique when set so a payment reference
// can back at most one booking.
type Booking struct {
	ID         uint                `gorm:"primarykey" json:"id"`
	ClaimKey   *string             `gorm:"uniqueIndex;size:64" json:"claim_key,omitempty"`
	Channel    types.Channel       `gorm:"size:32" json:"channel"`
	Provider   string              `gorm:"size:32" json:"provider,omitempty"`
	Reference  string              `json:"reference,omitempty"`
	Phone      string              `gorm:"index" json:"phone"`
	Email      string              `json:"email,omitempty"`
	Name       string              `json:"name"`
	TierName   string              `gorm:"index;size:32" json:"tier_name"`
	EventName  string              `json:"event_name"`
	Amount     float64             `json:"amount"`
	Currency   string              `gorm:"size:8" json:"currency"`
	Status     types.BookingStatus `gorm:"index;size:16" json:"status"`
	TicketID   *string             `gorm:"uniqueIndex" json:"ticket_id,omitempty"`
	TicketSeq  int64               `json:"ticket_seq,omitempty"`
	VerifiedAt *time.Time          `json:"verified_at,omitempty"`

	Notifications []*NotificationLog `json:"notifications,omitempty"`

	types.Timestamps
}

func (b *Booking) Ticket() string {
	if b.TicketID == nil {
		return ""
	}
	return *b.TicketID
}

func (b *Booking) Claim() string {
	if b.ClaimKey == nil {
		return ""
	}
	return *b.ClaimKey
}
