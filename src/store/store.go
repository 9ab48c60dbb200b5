package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/models/scopes"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LabelFunc renders the ticket id for a tier and its freshly reserved sequence.
type LabelFunc func(tier string, seq int64) string

// PaymentRecordStore persists bookings. Commit and Confirm are the only writes that
// hand out ticket ids; both check capacity and reserve the tier sequence atomically.
type PaymentRecordStore interface {
	Insert(ctx context.Context, b *models.Booking) error
	Commit(ctx context.Context, b *models.Booking, capacity int64, label LabelFunc) error
	Confirm(ctx context.Context, id uint, capacity int64, label LabelFunc) (*models.Booking, bool, error)
	FindByClaimKey(ctx context.Context, key string) (*models.Booking, error)
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	CountByStatus(ctx context.Context, statuses ...types.BookingStatus) (int64, error)
	LogNotifications(ctx context.Context, logs []models.NotificationLog) error
}

// PendingStore keeps push payments that are waiting for a provider callback.
type PendingStore interface {
	SavePending(ctx context.Context, p *models.PendingTransaction) error
	FindPending(ctx context.Context, conversationID string) (*models.PendingTransaction, error)
	ResolvePending(ctx context.Context, conversationID string, status types.PendingStatus, reason string, bookingID *uint) error
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// commitLockKey serialises ticket issuance for the event.
const commitLockKey = 0x6772657921

type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var re *types.ReconcileError
	if errors.As(err, &re) {
		return err
	}
	if isUniqueViolation(err) {
		return types.NewError(types.KindDuplicateClaim, "", err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewError(types.KindNotFound, "", err)
	}
	return types.NewError(types.KindStorage, "", err)
}

func (s *GormStore) Insert(ctx context.Context, b *models.Booking) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		log.Printf("[Store] error inserting booking: %s\n", err.Error())
		return storageErr(err)
	}
	return nil
}

func nextSeq(tx *gorm.DB, tier string) (int64, error) {
	var seq int64
	err := tx.Raw(
		`INSERT INTO tier_counters (tier_name, seq) VALUES (?, 1)
		ON CONFLICT (tier_name) DO UPDATE SET seq = tier_counters.seq + 1
		RETURNING seq`, tier,
	).Scan(&seq).Error
	return seq, err
}

func capacityReached(tx *gorm.DB, capacity int64) (bool, error) {
	var count int64
	if err := tx.Model(&models.Booking{}).Scopes(scopes.WithCapacityStatus).Count(&count).Error; err != nil {
		return false, err
	}
	return count >= capacity, nil
}

func (s *GormStore) Commit(ctx context.Context, b *models.Booking, capacity int64, label LabelFunc) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", commitLockKey).Error; err != nil {
			return err
		}
		if b.Status.CountsTowardCapacity() {
			full, err := capacityReached(tx, capacity)
			if err != nil {
				return err
			}
			if full {
				return types.ErrCapacityExceeded
			}
			seq, err := nextSeq(tx, b.TierName)
			if err != nil {
				return err
			}
			ticket := label(b.TierName, seq)
			b.TicketSeq = seq
			b.TicketID = &ticket
		}
		return tx.Create(b).Error
	})
	if err != nil {
		log.Printf("[Store] error committing booking: %s\n", err.Error())
		return storageErr(err)
	}
	return nil
}

func (s *GormStore) Confirm(ctx context.Context, id uint, capacity int64, label LabelFunc) (*models.Booking, bool, error) {
	var booking models.Booking
	transitioned := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", commitLockKey).Error; err != nil {
			return err
		}
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(scopes.WithID(id)).
			First(&booking).
			Error; err != nil {
			return err
		}
		if booking.Status.CountsTowardCapacity() {
			return nil
		}
		if booking.Status.Terminal() {
			return types.NewError(types.KindInvalidClaim, "Booking has failed and cannot be verified", nil)
		}
		full, err := capacityReached(tx, capacity)
		if err != nil {
			return err
		}
		if full {
			return types.ErrCapacityExceeded
		}
		now := time.Now()
		updates := map[string]any{
			"status":      types.BOOKING_CONFIRMED,
			"verified_at": now,
		}
		if booking.TicketID == nil {
			seq, err := nextSeq(tx, booking.TierName)
			if err != nil {
				return err
			}
			ticket := label(booking.TierName, seq)
			updates["ticket_id"] = ticket
			updates["ticket_seq"] = seq
			booking.TicketID = &ticket
			booking.TicketSeq = seq
		}
		if err := tx.Model(&models.Booking{}).Scopes(scopes.WithID(id)).Updates(updates).Error; err != nil {
			return err
		}
		booking.Status = types.BOOKING_CONFIRMED
		booking.VerifiedAt = &now
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, false, storageErr(err)
	}
	return &booking, transitioned, nil
}

// FindByClaimKey returns nil without error when no booking carries key.
func (s *GormStore) FindByClaimKey(ctx context.Context, key string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Scopes(scopes.WithClaimKey(key)).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &booking, nil
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&booking).Error; err != nil {
		return nil, storageErr(err)
	}
	return &booking, nil
}

func (s *GormStore) CountByStatus(ctx context.Context, statuses ...types.BookingStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Booking{}).Scopes(scopes.WithStatus(statuses...)).Count(&count).Error
	return count, storageErr(err)
}

func (s *GormStore) LogNotifications(ctx context.Context, logs []models.NotificationLog) error {
	if len(logs) == 0 {
		return nil
	}
	return storageErr(s.db.WithContext(ctx).Create(&logs).Error)
}

func (s *GormStore) SavePending(ctx context.Context, p *models.PendingTransaction) error {
	return storageErr(s.db.WithContext(ctx).Create(p).Error)
}

// FindPending returns nil without error for unknown or expired conversations.
func (s *GormStore) FindPending(ctx context.Context, conversationID string) (*models.PendingTransaction, error) {
	var p models.PendingTransaction
	err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &p, nil
}

func (s *GormStore) ResolvePending(ctx context.Context, conversationID string, status types.PendingStatus, reason string, bookingID *uint) error {
	updates := map[string]any{"status": status}
	if reason != "" {
		updates["failure_reason"] = reason
	}
	if bookingID != nil {
		updates["booking_id"] = *bookingID
	}
	err := s.db.WithContext(ctx).
		Model(&models.PendingTransaction{}).
		Where("conversation_id = ?", conversationID).
		Updates(updates).
		Error
	return storageErr(err)
}

// ExpirePending marks open pending transactions past their TTL as expired.
func (s *GormStore) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.PendingTransaction{}).
		Where("status = ?", types.PENDING_OPEN).
		Where("expires_at < ?", now).
		Update("status", types.PENDING_EXPIRED)
	return res.RowsAffected, storageErr(res.Error)
}
