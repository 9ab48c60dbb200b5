package types

import (
	"errors"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidClaim       ErrorKind = "InvalidClaim"
	KindInsufficientAmount ErrorKind = "InsufficientAmount"
	KindDuplicateClaim     ErrorKind = "DuplicateClaim"
	KindVerificationFailed ErrorKind = "VerificationFailed"
	KindCapacityExceeded   ErrorKind = "CapacityExceeded"
	KindNotFound           ErrorKind = "NotFound"
	KindStorage            ErrorKind = "Storage"
	KindTransport          ErrorKind = "Transport"
)

var (
	ErrInvalidClaim       = &ReconcileError{Kind: KindInvalidClaim, Message: "Invalid payment claim"}
	ErrInsufficientAmount = &ReconcileError{Kind: KindInsufficientAmount, Message: "Amount is below the ticket price"}
	ErrDuplicateClaim     = &ReconcileError{Kind: KindDuplicateClaim, Message: "This transaction code has already been used"}
	ErrVerificationFailed = &ReconcileError{Kind: KindVerificationFailed, Message: "Payment could not be verified with the provider"}
	ErrCapacityExceeded   = &ReconcileError{Kind: KindCapacityExceeded, Message: "Tickets are sold out"}
	ErrNotFound           = &ReconcileError{Kind: KindNotFound, Message: "Booking not found"}
	ErrStorage            = &ReconcileError{Kind: KindStorage, Message: "Internal server error"}
	ErrTransport          = &ReconcileError{Kind: KindTransport, Message: "Internal server error"}
	ErrInvalidPhoneFormat = errors.New("invalid phone format")
)

// ReconcileError is the single error type surfaced by reconciliation and admin operations.
// errors.Is matches on Kind, so wrapped instances compare equal to the sentinels above.
type ReconcileError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ReconcileError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

func (e *ReconcileError) Is(target error) bool {
	t, ok := target.(*ReconcileError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an error of the given kind. An empty message keeps the kind's default.
func NewError(kind ErrorKind, message string, err error) *ReconcileError {
	if message == "" {
		message = defaultMessage(kind)
	}
	return &ReconcileError{Kind: kind, Message: message, Err: err}
}

func defaultMessage(kind ErrorKind) string {
	for _, s := range []*ReconcileError{
		ErrInvalidClaim, ErrInsufficientAmount, ErrDuplicateClaim, ErrVerificationFailed,
		ErrCapacityExceeded, ErrNotFound, ErrStorage, ErrTransport,
	} {
		if s.Kind == kind {
			return s.Message
		}
	}
	return "Internal server error"
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	var re *ReconcileError
	if !errors.As(err, &re) {
		return http.StatusInternalServerError
	}
	switch re.Kind {
	case KindInvalidClaim, KindInsufficientAmount, KindDuplicateClaim, KindVerificationFailed, KindCapacityExceeded:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-safe message for err. Internal failures never leak detail.
func PublicMessage(err error) string {
	var re *ReconcileError
	if !errors.As(err, &re) {
		return "Internal server error"
	}
	if HTTPStatus(re) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return re.Message
}
