package models

// TierCounter holds the last ticket sequence handed out for a tier.
type TierCounter struct {
	TierName string `gorm:"primarykey;size:32"`
	Seq      int64  `gorm:"not null;default:0"`
}
