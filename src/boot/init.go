package boot

import (
	"context"
	"log"
	"os"
	"path"
	"time"

	"github.com/judy2649/the-grey-pegeant/src/common"
	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/db"
	"github.com/judy2649/the-grey-pegeant/src/engine"
	"github.com/judy2649/the-grey-pegeant/src/lib"
	awslib "github.com/judy2649/the-grey-pegeant/src/lib/aws"
	"github.com/judy2649/the-grey-pegeant/src/lib/checkout"
	"github.com/judy2649/the-grey-pegeant/src/lib/mailer"
	"github.com/judy2649/the-grey-pegeant/src/lib/mpesa"
	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/notify"
	"github.com/judy2649/the-grey-pegeant/src/store"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/utils"
	"github.com/judy2649/the-grey-pegeant/src/verifier"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(models.All()...)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitBroker builds the event publisher selected by BROKER. The Pusher admin
// feed is added whenever it is configured. The returned func closes connections.
func InitBroker(cfg *config.Config) (lib.MultiPublisher, func()) {
	var pubs lib.MultiPublisher
	var closers []func()
	switch cfg.Broker {
	case "sqs":
		pubs = append(pubs, &awslib.SQSPublisher{Queues: map[string]string{
			types.TopicBookingConfirmed:  utils.WithSuffix(cfg.BookingsQueue),
			types.TopicNotificationRetry: utils.WithSuffix(cfg.RetryQueue),
		}})
	case "kafka":
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			lib.KafkaCreateTopics(ctx, cfg.KafkaBroker, types.TopicBookingConfirmed, types.TopicBookingFailed, types.TopicNotificationRetry)
		}()
		p, err := lib.NewKafkaPublisher(cfg.KafkaBroker, "ticket-api")
		if err != nil {
			log.Printf("[Kafka] publisher unavailable: %s\n", err.Error())
			break
		}
		pubs = append(pubs, p)
		closers = append(closers, p.Close)
	case "amqp":
		p, err := lib.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("[AMQP] publisher unavailable: %s\n", err.Error())
			break
		}
		pubs = append(pubs, p)
		closers = append(closers, func() { p.Close() })
	}
	if pc := lib.GetPusherClient(); pc != nil {
		pubs = append(pubs, &lib.AdminFeed{Client: pc})
	}
	log.Printf("[Broker] %s with %d publishers\n", cfg.Broker, len(pubs))
	return pubs, func() {
		for _, c := range closers {
			c()
		}
	}
}

func checkoutProviders(cfg *config.Config) []checkout.Provider {
	var ps []checkout.Provider
	if cfg.IntaSendPublishableKey != "" {
		ps = append(ps, checkout.NewIntaSend(cfg.IntaSendPublishableKey, cfg.IntaSendEnv, cfg.ProviderTimeout))
	}
	if cfg.FlutterwaveSecretKey != "" {
		ps = append(ps, checkout.NewFlutterwave(cfg.FlutterwaveSecretKey, cfg.ProviderTimeout))
	}
	if cfg.OmisePublicKey != "" && cfg.OmiseSecretKey != "" {
		o, err := checkout.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey, cfg.ProviderTimeout)
		if err != nil {
			log.Printf("[Omise] client unavailable: %s\n", err.Error())
		} else {
			ps = append(ps, o)
		}
	}
	return ps
}

func NewGateway(cfg *config.Config) *notify.Gateway {
	g := &notify.Gateway{
		AdminPhone: cfg.AdminPhone,
		AdminEmail: cfg.AdminEmail,
		Timeout:    cfg.ProviderTimeout,
	}
	switch cfg.SMSTransport {
	case "sns":
		g.SMS = awslib.NewSNSSMSSender(cfg.ATSenderID)
	default:
		g.SMS = notify.NewAfricasTalking(cfg.ATAPIKey, cfg.ATUsername, cfg.ATSenderID, cfg.ProviderTimeout)
	}
	switch cfg.EmailTransport {
	case "ses":
		g.Email = &mailer.SESMailer{From: cfg.EmailFrom}
	default:
		g.Email = &mailer.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		}
	}
	return g
}

// NewEngine wires the reconciliation engine to the store, the provider clients
// and the notification transports described by cfg.
func NewEngine(cfg *config.Config, gdb *gorm.DB, events lib.EventPublisher) *engine.Engine {
	st := store.New(gdb)

	mp := mpesa.New(cfg.MpesaAPIKey, cfg.MpesaPublicKey, cfg.MpesaServiceProviderCode, cfg.MpesaEnv, cfg.ProviderTimeout)
	manual := &verifier.ManualCodeVerifier{Production: cfg.IsProduction()}
	if mp.Configured() {
		manual.Provider = mp
	}
	card := &verifier.CardVerifier{}
	if si := lib.NewStripeIntents(); si != nil {
		card.Intents = si
	}
	registry := verifier.NewRegistry(
		&verifier.PushVerifier{Pending: st},
		manual,
		card,
		verifier.NewCheckoutVerifier("intasend", checkoutProviders(cfg)...),
	)

	e := engine.New(cfg, st, st, registry, NewGateway(cfg))
	if events != nil {
		e.Events = events
	}
	if rdb := lib.GetRedisClient(); rdb != nil {
		e.Lock = lib.NewClaimLock(rdb, cfg.ClaimLockTTL)
	}
	if cfg.TicketsBucket != "" {
		e.Archive = awslib.NewTicketArchive(cfg.TicketsBucket)
	}
	if mp.Configured() {
		e.Push = mp
	}
	e.QRDir = path.Join(os.TempDir(), "tickets")
	return e
}

func InitScheduler(e *engine.Engine) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob("expire-pending", time.Minute, func() {
		e.ExpirePending(context.Background())
	}); err != nil {
		log.Printf("Error scheduling expire-pending: %s\n", err.Error())
		return
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}

// InitConsumers starts the notification retry worker on the configured broker.
func InitConsumers(ctx context.Context, cfg *config.Config, e *engine.Engine, gdb *gorm.DB) {
	common.StartConsumers(ctx, cfg, &common.NotificationRetryConsumer{
		Retrier: e,
		DB:      gdb,
		Source:  cfg.Broker,
	})
}
