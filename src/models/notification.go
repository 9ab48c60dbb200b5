package models

import (
	"github.com/judy2649/the-grey-pegeant/src/types"

	"github.com/google/uuid"
)

type NotificationLog struct {
	ID        uuid.UUID                 `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	BookingID uint                      `gorm:"index" json:"booking_id"`
	Recipient types.Recipient           `gorm:"size:16" json:"recipient"`
	Channel   types.NotificationChannel `gorm:"size:16" json:"channel"`
	Outcome   types.NotificationOutcome `gorm:"size:16" json:"outcome"`
	Detail    string                    `json:"detail,omitempty"`
	Attempt   int                       `gorm:"default:1" json:"attempt"`

	types.Timestamps
}
