package common

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/judy2649/the-grey-pegeant/src/notify"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeRetrier struct {
	calls []types.NotificationRetry
	err   error
}

func (f *fakeRetrier) RetryNotification(ctx context.Context, r types.NotificationRetry) (notify.Delivery, error) {
	f.calls = append(f.calls, r)
	if f.err != nil {
		return notify.Delivery{}, f.err
	}
	return notify.Delivery{Recipient: r.Recipient, Channel: r.Channel, Outcome: types.NOTIFICATION_SENT}, nil
}

type RetrySuite struct {
	suite.Suite
	Mock     sqlmock.Sqlmock
	Retrier  *fakeRetrier
	Consumer *NotificationRetryConsumer
}

func (s *RetrySuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	s.Mock = mock
	s.Retrier = &fakeRetrier{}
	s.Consumer = &NotificationRetryConsumer{Retrier: s.Retrier, DB: gdb, Source: "sqs"}
}

func (s *RetrySuite) TearDownTest() {
	assert.NoError(s.T(), s.Mock.ExpectationsWereMet())
}

const envelope = `{"topic":"notification.retry","payload":{"bookingId":7,"recipient":"user","channel":"sms","attempt":2}}`

func (s *RetrySuite) TestHandleEnvelope() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectExec(`INSERT INTO "processed_messages" .* ON CONFLICT DO NOTHING`).
		WithArgs("retry:7:user:sms:2", "sqs", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectCommit()

	err := s.Consumer.Handle(context.Background(), []byte(envelope))

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), []types.NotificationRetry{{BookingID: 7, Recipient: types.RECIPIENT_USER, Channel: types.NOTIFY_SMS, Attempt: 2}}, s.Retrier.calls)
}

func (s *RetrySuite) TestHandleSkipsProcessedMessage() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectExec(`INSERT INTO "processed_messages"`).WillReturnResult(sqlmock.NewResult(0, 0))
	s.Mock.ExpectCommit()

	err := s.Consumer.Handle(context.Background(), []byte(`{"bookingId":7,"recipient":"admin","channel":"email","attempt":2}`))

	assert.NoError(s.T(), err)
	assert.Empty(s.T(), s.Retrier.calls)
}

func (s *RetrySuite) TestHandleReleasesOnFailure() {
	s.Retrier.err = errors.New("booking lookup failed")
	s.Mock.ExpectBegin()
	s.Mock.ExpectExec(`INSERT INTO "processed_messages"`).WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectCommit()
	s.Mock.ExpectBegin()
	s.Mock.ExpectExec(`DELETE FROM "processed_messages" WHERE message_id = \$1`).
		WithArgs("retry:7:user:sms:2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectCommit()

	err := s.Consumer.Handle(context.Background(), []byte(envelope))

	assert.Error(s.T(), err)
}

func (s *RetrySuite) TestHandleDropsMalformed() {
	err := s.Consumer.Handle(context.Background(), []byte(`{"topic":"notification.retry","payload":{"attempt":2}}`))

	assert.NoError(s.T(), err)
	assert.Empty(s.T(), s.Retrier.calls)
}

func TestRetryRunner(t *testing.T) {
	suite.Run(t, new(RetrySuite))
}
