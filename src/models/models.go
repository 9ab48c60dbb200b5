package models

// All lists every model managed by AutoMigrate.
func All() []any {
	return []any{
		&Booking{},
		&PendingTransaction{},
		&TierCounter{},
		&NotificationLog{},
		&ProcessedMessage{},
	}
}
