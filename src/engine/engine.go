package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/lib/mpesa"
	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/notify"
	"github.com/judy2649/the-grey-pegeant/src/store"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/utils"
	"github.com/judy2649/the-grey-pegeant/src/verifier"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/judy2649/the-grey-pegeant/src/engine")

// ClaimLocker guards a claim key while it is being reconciled.
type ClaimLocker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type TicketArchive interface {
	Configured() bool
	Upload(ctx context.Context, key string, file string) (string, error)
}

type PushProvider interface {
	C2BPayment(ctx context.Context, in mpesa.C2BInput) (*mpesa.Response, error)
}

// Engine turns payment claims into ticketed bookings.
type Engine struct {
	Config    *config.Config
	Store     store.PaymentRecordStore
	Pending   store.PendingStore
	Verifiers verifier.Registry
	Notifier  *notify.Gateway
	Capacity  *CapacityGuard

	Lock    ClaimLocker
	Events  Publisher
	Archive TicketArchive
	Push    PushProvider
	QRDir   string

	Now func() time.Time
}

func New(cfg *config.Config, s store.PaymentRecordStore, p store.PendingStore, r verifier.Registry, g *notify.Gateway) *Engine {
	return &Engine{
		Config:    cfg,
		Store:     s,
		Pending:   p,
		Verifiers: r,
		Notifier:  g,
		Capacity:  &CapacityGuard{Store: s, Capacity: cfg.Capacity},
		Now:       time.Now,
	}
}

type Result struct {
	BookingID     uint                `json:"bookingId"`
	TicketID      string              `json:"ticketId,omitempty"`
	Status        types.BookingStatus `json:"status"`
	Notifications notify.Report       `json:"notifications,omitempty"`
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// normalize canonicalises the claim in place and checks its shape.
func (e *Engine) normalize(claim *types.PaymentClaim) error {
	raw := strings.TrimSpace(claim.ClaimKey)
	claim.ClaimKey = utils.NormalizeClaimKey(raw)
	// provider ids for cards and checkouts are case sensitive
	if claim.Reference == "" && (claim.Channel == types.CARD || claim.Channel == types.THIRD_PARTY_CHECKOUT) {
		claim.Reference = raw
	}
	claim.TierName = utils.NormalizeTier(claim.TierName)
	claim.Email = strings.TrimSpace(claim.Email)
	claim.Name = strings.TrimSpace(claim.Name)
	if claim.Currency == "" {
		claim.Currency = e.Config.Currency
	}
	if claim.EventName == "" {
		claim.EventName = config.DefaultEventName
	}
	if claim.ClaimKey == "" {
		return types.NewError(types.KindInvalidClaim, "Transaction reference is required", nil)
	}
	if claim.Channel == types.MANUAL_CODE && !utils.IsClaimCode(claim.ClaimKey) {
		return types.NewError(types.KindInvalidClaim, "Transaction code must be 10 letters or digits", nil)
	}
	if claim.Phone != "" {
		phone, err := utils.NormalizePhone(claim.Phone)
		if err != nil {
			return types.NewError(types.KindInvalidClaim, "Invalid phone number", err)
		}
		claim.Phone = phone
	}
	switch claim.Channel {
	case types.CARD:
		if claim.Phone == "" && claim.Email == "" {
			return types.NewError(types.KindInvalidClaim, "Phone number or email is required", nil)
		}
	default:
		if claim.Phone == "" {
			return types.NewError(types.KindInvalidClaim, "Phone number is required", nil)
		}
	}
	return nil
}

// checkAmount rejects claims below the configured price of a known tier.
func (e *Engine) checkAmount(tier string, amount float64) error {
	price, ok := e.Config.TierPrices()[tier]
	if !ok {
		return nil
	}
	if amount < price {
		return types.NewError(types.KindInsufficientAmount,
			fmt.Sprintf("Amount %.0f is below the %s price of %.0f", amount, tier, price), nil)
	}
	return nil
}

// ValidateAmount applies the tier price gate without reconciling anything.
func (e *Engine) ValidateAmount(tier string, amount float64) error {
	return e.checkAmount(utils.NormalizeTier(tier), amount)
}

func (e *Engine) statusFor(ch types.Channel) types.BookingStatus {
	switch ch {
	case types.MANUAL_CODE:
		if e.Config.ManualRequiresApproval {
			return types.BOOKING_PENDING
		}
		return types.BOOKING_CONFIRMED
	default:
		return types.BOOKING_PAID
	}
}

// Reconcile validates claim, verifies it with its channel's provider and, when
// accepted, commits exactly one booking for its claim key before notifying.
func (e *Engine) Reconcile(ctx context.Context, claim types.PaymentClaim) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "reconcile", trace.WithAttributes(attribute.String("channel", string(claim.Channel))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := e.normalize(&claim); err != nil {
		return nil, err
	}
	if err := e.checkAmount(claim.TierName, claim.Amount); err != nil {
		return nil, err
	}
	v, err := e.Verifiers.For(claim.Channel)
	if err != nil {
		return nil, err
	}

	if e.Lock != nil {
		ok, lerr := e.Lock.Acquire(ctx, claim.ClaimKey)
		switch {
		case lerr != nil:
			log.Printf("[Reconcile] claim lock unavailable, relying on store uniqueness: %s\n", lerr.Error())
		case !ok:
			return nil, types.NewError(types.KindDuplicateClaim, "This transaction code is already being processed", nil)
		default:
			defer e.Lock.Release(context.WithoutCancel(ctx), claim.ClaimKey)
		}
	}

	var (
		vres  *verifier.Result
		verr  error
		taken int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		existing, err := e.Store.FindByClaimKey(gctx, claim.ClaimKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return types.ErrDuplicateClaim
		}
		return nil
	})
	g.Go(func() error {
		vctx := gctx
		if e.Config.ProviderTimeout > 0 {
			var cancel context.CancelFunc
			vctx, cancel = context.WithTimeout(gctx, e.Config.ProviderTimeout)
			defer cancel()
		}
		vctx, vspan := tracer.Start(vctx, "verify")
		defer vspan.End()
		vres, verr = v.Verify(vctx, claim)
		return nil
	})
	g.Go(func() error {
		n, err := e.Capacity.Taken(gctx)
		taken = n
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, types.ErrDuplicateClaim) {
			log.Printf("[Reconcile] duplicate claim %s\n", claim.ClaimKey)
		}
		return nil, err
	}

	if err := e.decide(v, claim, vres, verr); err != nil {
		return nil, err
	}
	status := e.statusFor(claim.Channel)
	if status.CountsTowardCapacity() && taken >= e.Capacity.Capacity {
		return nil, types.ErrCapacityExceeded
	}

	key := claim.ClaimKey
	booking := &models.Booking{
		ClaimKey:  &key,
		Channel:   claim.Channel,
		Provider:  claim.Provider,
		Reference: claim.Reference,
		Phone:     claim.Phone,
		Email:     claim.Email,
		Name:      claim.Name,
		TierName:  claim.TierName,
		EventName: claim.EventName,
		Amount:    claim.Amount,
		Currency:  claim.Currency,
		Status:    status,
	}
	if vres != nil && booking.Reference == "" {
		booking.Reference = vres.Reference
	}
	if status.CountsTowardCapacity() {
		now := e.now()
		booking.VerifiedAt = &now
	}
	if err := e.Store.Commit(ctx, booking, e.Capacity.Capacity, utils.GenerateTicketID); err != nil {
		return nil, err
	}
	log.Printf("[Reconcile] booking %d committed as %s with ticket %q\n", booking.ID, booking.Status, booking.Ticket())

	res = &Result{BookingID: booking.ID, TicketID: booking.Ticket(), Status: booking.Status}
	if status.CountsTowardCapacity() {
		res.Notifications = e.notifyBooking(ctx, booking, false)
		e.publish(ctx, types.TopicBookingConfirmed, booking)
	}
	return res, nil
}

// decide applies the channel's strictness to the verification outcome.
func (e *Engine) decide(v verifier.Verifier, claim types.PaymentClaim, vres *verifier.Result, verr error) error {
	if verr != nil {
		var re *types.ReconcileError
		if errors.As(verr, &re) && re.Kind == types.KindInvalidClaim {
			return verr
		}
		if v.Strict() {
			log.Printf("[Reconcile] %s verification error for %s: %s\n", claim.Channel, claim.ClaimKey, verr.Error())
			return types.NewError(types.KindVerificationFailed, "", verr)
		}
		log.Printf("[Reconcile] WARNING %s verification error ignored for %s: %s\n", claim.Channel, claim.ClaimKey, verr.Error())
		return nil
	}
	if vres == nil || vres.Confirmed {
		return nil
	}
	if v.Strict() {
		msg := ""
		if vres.Note != "" {
			msg = "Payment could not be verified: " + vres.Note
		}
		return types.NewError(types.KindVerificationFailed, msg, nil)
	}
	log.Printf("[Reconcile] WARNING %s claim %s not confirmed by provider, accepting: %s\n", claim.Channel, claim.ClaimKey, vres.Note)
	return nil
}

func (e *Engine) publish(ctx context.Context, topic string, b *models.Booking) {
	if e.Events == nil {
		return
	}
	ev := types.BookingEvent{
		BookingID: b.ID,
		TicketID:  b.Ticket(),
		ClaimKey:  b.Claim(),
		Channel:   b.Channel,
		TierName:  b.TierName,
		Amount:    b.Amount,
		Currency:  b.Currency,
		Status:    b.Status,
		Name:      b.Name,
		At:        e.now(),
	}
	if err := e.Events.Publish(context.WithoutCancel(ctx), topic, ev); err != nil {
		log.Printf("[Reconcile] error publishing %s for booking %d: %s\n", topic, b.ID, err.Error())
	}
}
