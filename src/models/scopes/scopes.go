package scopes

import (
	"github.com/judy2649/the-grey-pegeant/src/types"
	"gorm.io/gorm"
)

func WithID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithClaimKey(key string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("claim_key = ?", key)
	}
}

func WithTier(tier string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tier_name = ?", tier)
	}
}

func WithStatus(statuses ...types.BookingStatus) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status IN (?)", statuses)
	}
}

func WithCapacityStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status IN (?)", types.CapacityStatuses)
}

func WithPendingStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", types.BOOKING_PENDING)
}
