package models

import "time"

// ProcessedMessage records broker message ids that were already handled.
type ProcessedMessage struct {
	MessageID   string    `gorm:"primarykey;size:128"`
	Source      string    `gorm:"size:32"`
	ProcessedAt time.Time `gorm:"autoCreateTime"`
}
