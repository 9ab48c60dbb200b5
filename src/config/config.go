package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

var API_ENV = os.Getenv("API_ENV")

type Config struct {
	Env      string `envconfig:"API_ENV" default:"local"`
	Capacity int64  `envconfig:"CAPACITY" default:"600"`

	TierPriceNormal float64 `envconfig:"TIER_PRICE_NORMAL" default:"200"`
	TierPriceVIP    float64 `envconfig:"TIER_PRICE_VIP" default:"500"`
	TierPriceVVIP   float64 `envconfig:"TIER_PRICE_VVIP" default:"1000"`
	Currency        string  `envconfig:"CURRENCY" default:"KES"`

	AdminPhone string `envconfig:"ADMIN_PHONE" default:"254794173314"`
	AdminEmail string `envconfig:"ADMIN_EMAIL"`

	CallbackSecret         string        `envconfig:"CALLBACK_SECRET"`
	ManualRequiresApproval bool          `envconfig:"MANUAL_REQUIRES_APPROVAL" default:"false"`
	PendingTTL             time.Duration `envconfig:"PENDING_TTL" default:"15m"`
	ClaimLockTTL           time.Duration `envconfig:"CLAIM_LOCK_TTL" default:"2m"`
	ProviderTimeout        time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`

	RedisURL string `envconfig:"REDIS_URL"`

	MpesaAPIKey              string `envconfig:"MPESA_API_KEY"`
	MpesaPublicKey           string `envconfig:"MPESA_PUBLIC_KEY"`
	MpesaServiceProviderCode string `envconfig:"MPESA_SERVICE_PROVIDER_CODE"`
	MpesaEnv                 string `envconfig:"MPESA_ENV" default:"sandbox"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	IntaSendPublishableKey string `envconfig:"INTASEND_PUBLISHABLE_KEY"`
	IntaSendEnv            string `envconfig:"INTASEND_ENV" default:"sandbox"`
	FlutterwaveSecretKey   string `envconfig:"FLUTTERWAVE_SECRET_KEY"`
	OmisePublicKey         string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey         string `envconfig:"OMISE_SECRET_KEY"`

	SMSTransport   string `envconfig:"SMS_TRANSPORT" default:"africastalking"`
	ATAPIKey       string `envconfig:"AT_API_KEY"`
	ATUsername     string `envconfig:"AT_USERNAME" default:"sandbox"`
	ATSenderID     string `envconfig:"AT_SENDER_ID"`
	EmailTransport string `envconfig:"EMAIL_TRANSPORT" default:"smtp"`
	EmailFrom      string `envconfig:"EMAIL_FROM"`
	EmailFromName  string `envconfig:"EMAIL_FROM_NAME" default:"The Grey Pageant"`
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`

	Broker          string `envconfig:"BROKER" default:"none"`
	KafkaBroker     string `envconfig:"KAFKA_BROKER"`
	AMQPURL         string `envconfig:"AMQP_URL"`
	AMQPExchange    string `envconfig:"AMQP_EXCHANGE" default:"tickets"`
	BookingsQueue   string `envconfig:"BOOKINGS_QUEUE" default:"BookingConfirmed"`
	RetryQueue      string `envconfig:"NOTIFICATIONS_RETRY_QUEUE" default:"NotificationsToRetry"`
	PusherAppID     string `envconfig:"PUSHER_APP_ID"`
	PusherKey       string `envconfig:"PUSHER_KEY"`
	PusherSecret    string `envconfig:"PUSHER_SECRET"`
	PusherCluster   string `envconfig:"PUSHER_CLUSTER"`
	TicketsBucket   string `envconfig:"S3_TICKETS_BUCKET"`
	AWSSecretID     string `envconfig:"AWS_SECRET_ID"`
	OTLPEndpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	MaintenanceMode bool   `envconfig:"MAINTENANCE_MODE" default:"false"`
}

var (
	current *Config
	mu      sync.Mutex
)

// Load reads the environment into a Config.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	c.AdminPhone = strings.TrimPrefix(c.AdminPhone, "+")
	return &c, nil
}

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return current
	}
	c, err := Load()
	if err != nil {
		log.Fatalf("[Config] error loading configuration: %s\n", err.Error())
	}
	current = c
	return c
}

// Set replaces the process-wide configuration. Tests use it to install fixtures.
func Set(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = c
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TierPrices returns the minimum accepted amount per canonical tier name.
func (c *Config) TierPrices() map[string]float64 {
	return map[string]float64{
		"Normal": c.TierPriceNormal,
		"VIP":    c.TierPriceVIP,
		"VVIP":   c.TierPriceVVIP,
	}
}

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	if DATABASE_TIMEZONE == "" {
		DATABASE_TIMEZONE = "Africa/Nairobi"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}
