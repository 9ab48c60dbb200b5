package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

// Broker topics for booking lifecycle events.
const (
	TopicBookingConfirmed  = "booking.confirmed"
	TopicBookingFailed     = "booking.failed"
	TopicNotificationRetry = "notification.retry"
)

// Handler consumes one raw broker message body.
type Handler func(payload string)

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type Channel string

const (
	PUSH_PAYMENT         Channel = "PUSH_PAYMENT"
	MANUAL_CODE          Channel = "MANUAL_CODE"
	CARD                 Channel = "CARD"
	THIRD_PARTY_CHECKOUT Channel = "THIRD_PARTY_CHECKOUT"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "PENDING"
	BOOKING_CONFIRMED BookingStatus = "CONFIRMED"
	BOOKING_PAID      BookingStatus = "PAID"
	BOOKING_VERIFIED  BookingStatus = "VERIFIED"
	BOOKING_FAILED    BookingStatus = "FAILED"
)

// CapacityStatuses are the booking states that hold a seat.
var CapacityStatuses = []BookingStatus{BOOKING_PAID, BOOKING_CONFIRMED, BOOKING_VERIFIED}

func (s BookingStatus) CountsTowardCapacity() bool {
	for _, c := range CapacityStatuses {
		if s == c {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BOOKING_FAILED || s.CountsTowardCapacity()
}

type PendingStatus string

const (
	PENDING_OPEN      PendingStatus = "PENDING"
	PENDING_COMPLETED PendingStatus = "COMPLETED"
	PENDING_FAILED    PendingStatus = "FAILED"
	PENDING_EXPIRED   PendingStatus = "EXPIRED"
)

type NotificationOutcome string

const (
	NOTIFICATION_SENT    NotificationOutcome = "SENT"
	NOTIFICATION_SKIPPED NotificationOutcome = "SKIPPED"
	NOTIFICATION_FAILED  NotificationOutcome = "FAILED"
)

type Recipient string

const (
	RECIPIENT_USER  Recipient = "user"
	RECIPIENT_ADMIN Recipient = "admin"
)

type NotificationChannel string

const (
	NOTIFY_SMS   NotificationChannel = "sms"
	NOTIFY_EMAIL NotificationChannel = "email"
)

// PaymentClaim asserts that a payment happened. It is built per request and never stored.
type PaymentClaim struct {
	ClaimKey  string
	Channel   Channel
	Phone     string
	Email     string
	Name      string
	Amount    float64
	Currency  string
	TierName  string
	EventName string
	Provider  string
	Reference string
	Succeeded bool
}

// BookingEvent is published on the broker and the admin live feed.
type BookingEvent struct {
	BookingID uint          `json:"bookingId"`
	TicketID  string        `json:"ticketId,omitempty"`
	ClaimKey  string        `json:"claimKey,omitempty"`
	Channel   Channel       `json:"channel"`
	TierName  string        `json:"tierName"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Status    BookingStatus `json:"status"`
	Name      string        `json:"name,omitempty"`
	At        time.Time     `json:"at"`
}

// NotificationRetry asks the retry worker to resend one failed delivery.
type NotificationRetry struct {
	BookingID uint                `json:"bookingId"`
	Recipient Recipient           `json:"recipient"`
	Channel   NotificationChannel `json:"channel"`
	Attempt   int                 `json:"attempt"`
}

type ManualPaymentRequestBody struct {
	MpesaCode   string  `json:"mpesaCode" binding:"required,claimcode"`
	PhoneNumber string  `json:"phoneNumber" binding:"required"`
	Name        string  `json:"name"`
	Email       string  `json:"email" binding:"omitempty,email"`
	EventName   string  `json:"eventName"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	TierName    string  `json:"tierName" binding:"omitempty,tier"`
}

type PushInitiateRequestBody struct {
	PhoneNumber string  `json:"phoneNumber" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	TierName    string  `json:"tierName" binding:"omitempty,tier"`
	EventName   string  `json:"eventName"`
	Name        string  `json:"name"`
	Email       string  `json:"email" binding:"omitempty,email"`
}

type PushCallbackBody struct {
	ConversationID string `json:"output_ConversationID"`
	TransactionID  string `json:"output_TransactionID"`
	ResponseCode   string `json:"output_ResponseCode"`
	ResponseDesc   string `json:"output_ResponseDesc"`
	CustomerMSISDN string `json:"input_CustomerMSISDN"`
	Amount         string `json:"input_Amount"`
}

type CardConfirmRequestBody struct {
	PaymentIntentID string  `json:"paymentIntentId" binding:"required"`
	AmountKES       float64 `json:"amountKES" binding:"required,gt=0"`
	AmountUSD       float64 `json:"amountUSD"`
	PhoneNumber     string  `json:"phoneNumber"`
	Email           string  `json:"email" binding:"omitempty,email"`
	Name            string  `json:"name"`
	TierName        string  `json:"tierName" binding:"omitempty,tier"`
	EventName       string  `json:"eventName"`
	Status          string  `json:"status"`
}

type CardIntentRequestBody struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	TierName    string  `json:"tierName" binding:"omitempty,tier"`
	EventName   string  `json:"eventName"`
	PhoneNumber string  `json:"phoneNumber"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Name        string  `json:"name"`
}

type ThirdPartyConfirmRequestBody struct {
	TrackingID  string  `json:"trackingId" binding:"required"`
	Provider    string  `json:"provider" binding:"omitempty,oneof=intasend flutterwave omise"`
	EventName   string  `json:"eventName"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PhoneNumber string  `json:"phoneNumber" binding:"required"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Name        string  `json:"name"`
	TierName    string  `json:"tierName" binding:"omitempty,tier"`
}

type BookingIDRequestBody struct {
	BookingID uint `json:"bookingId" binding:"required"`
}

type BookingQueryFilters struct {
	Status string `form:"status"`
	Tier   string `form:"tier"`
	Limit  int    `form:"limit"`
}

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required"`
}
