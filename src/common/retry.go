package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/notify"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Retrier interface {
	RetryNotification(ctx context.Context, r types.NotificationRetry) (notify.Delivery, error)
}

// NotificationRetryConsumer replays failed notifications. Each (booking, recipient,
// channel, attempt) is handled once even when the broker redelivers it.
type NotificationRetryConsumer struct {
	Retrier Retrier
	DB      *gorm.DB
	Source  string
}

func messageID(r types.NotificationRetry) string {
	return fmt.Sprintf("retry:%d:%s:%s:%d", r.BookingID, r.Recipient, r.Channel, r.Attempt)
}

// decodeRetry accepts both the bare payload and the {"topic","payload"} envelope.
func decodeRetry(body []byte) (types.NotificationRetry, error) {
	var r types.NotificationRetry
	raw := body
	if p := gjson.GetBytes(body, "payload"); p.Exists() && p.IsObject() {
		raw = []byte(p.Raw)
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, err
	}
	if r.BookingID == 0 || r.Channel == "" || r.Recipient == "" {
		return r, fmt.Errorf("incomplete retry message: %s", string(body))
	}
	return r, nil
}

// Handle processes one message. Malformed messages are dropped, not redelivered.
func (c *NotificationRetryConsumer) Handle(ctx context.Context, body []byte) error {
	r, err := decodeRetry(body)
	if err != nil {
		log.Printf("[Retry] dropping message: %s\n", err.Error())
		return nil
	}
	id := messageID(r)
	res := c.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProcessedMessage{MessageID: id, Source: c.Source})
	if res.Error != nil {
		log.Printf("[Retry] error recording %s: %s\n", id, res.Error.Error())
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("[Retry] %s already processed\n", id)
		return nil
	}
	d, err := c.Retrier.RetryNotification(ctx, r)
	if err != nil {
		log.Printf("[Retry] error retrying %s: %s\n", id, err.Error())
		if derr := c.DB.WithContext(ctx).Delete(&models.ProcessedMessage{}, "message_id = ?", id).Error; derr != nil {
			log.Printf("[Retry] error releasing %s: %s\n", id, derr.Error())
		}
		return err
	}
	log.Printf("[Retry] %s -> %s\n", id, d.Outcome)
	return nil
}
