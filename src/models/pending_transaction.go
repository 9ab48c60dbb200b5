package models

import (
	"time"

	"github.com/judy2649/the-grey-pegeant/src/types"
)

// PendingTransaction tracks a push payment between initiation and the provider callback.
type PendingTransaction struct {
	ConversationID string              `gorm:"primarykey;size:64" json:"conversation_id"`
	Reference      string              `gorm:"index" json:"reference"`
	Phone          string              `json:"phone"`
	Email          string              `json:"email,omitempty"`
	Name           string              `json:"name"`
	TierName       string              `json:"tier_name"`
	EventName      string              `json:"event_name"`
	Amount         float64             `json:"amount"`
	Status         types.PendingStatus `gorm:"index;size:16" json:"status"`
	FailureReason  string              `json:"failure_reason,omitempty"`
	ExpiresAt      time.Time           `gorm:"index" json:"expires_at"`
	BookingID      *uint               `json:"booking_id,omitempty"`

	types.Timestamps
}

func (p *PendingTransaction) Expired(now time.Time) bool {
	return p.Status == types.PENDING_OPEN && now.After(p.ExpiresAt)
}
