package service

import (
	"errors"

	"github.com/iliyamo/household-ledger/internal/auth"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindDependency Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "dependency"
	}
}

// Error is a classified domain failure. Code is a stable machine-readable
// identifier, Message is safe to show to clients and Err keeps the cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so wrapped copies still
// compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// wrap returns a copy of sentinel carrying cause.
func wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Err: cause}
}

var (
	ErrNotRegistered     = newError(KindAuthorization, "not_registered", "user is not registered")
	ErrAlreadyRegistered = newError(KindConflict, "already_registered", "user is already registered")

	ErrNotMember  = newError(KindAuthorization, "not_member", "not a member of this household")
	ErrNotCreator = newError(KindAuthorization, "not_creator", "only the household creator can do this")
	ErrNotOwner   = newError(KindAuthorization, "not_owner", "transaction belongs to another user")

	ErrHouseholdNotFound   = newError(KindNotFound, "household_not_found", "household not found")
	ErrTransactionNotFound = newError(KindNotFound, "transaction_not_found", "transaction not found")
	ErrUserNotFound        = newError(KindNotFound, "user_not_found", "user not found")

	ErrInviteNotFound = newError(KindNotFound, "invite_not_found", "invite code not found")
	ErrInviteInactive = newError(KindValidation, "invite_inactive", "invite is no longer active")
	ErrInviteExpired  = newError(KindValidation, "invite_expired", "invite has expired")
	ErrAlreadyMember  = newError(KindConflict, "already_member", "already a member of this household")
	ErrCodeCollision  = newError(KindConflict, "code_collision", "could not allocate a unique invite code")

	ErrInvalidPeriod = newError(KindValidation, "invalid_period", "period must be one of daily, weekly, monthly, yearly")
	ErrInvalidDate   = newError(KindValidation, "invalid_date", "dates must be formatted YYYY-MM-DD")
	ErrInvalidExpiry = newError(KindValidation, "invalid_expiry", "expires_in_days must be between 1 and 365")
	ErrInvalidInput  = newError(KindValidation, "invalid_input", "invalid input")

	ErrStorage = newError(KindDependency, "storage_error", "storage unavailable")
)

// dependency wraps an unexpected storage or broker error.
func dependency(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return wrap(ErrStorage, err)
}

// invalid returns a validation error with a specific message.
func invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Code: ErrInvalidInput.Code, Message: msg}
}

// KindOf classifies err. Token pipeline failures are authentication
// errors; anything unclassified is a dependency failure.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	var ae *auth.Error
	if errors.As(err, &ae) {
		return KindAuthentication
	}
	return KindDependency
}
