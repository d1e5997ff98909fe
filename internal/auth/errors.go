// Package auth turns a bearer token into a verified identity.  It owns the
// three leaf stages of the request pipeline: pulling the token out of the
// Authorization header, resolving the identity provider's signing key and
// validating the token's signature and claims.  Nothing in this package
// touches the database.
package auth

import (
	"errors"
	"fmt"
)

// Reason classifies why a token was rejected.  Reasons are returned to
// clients, logged and counted, so their string values are stable.
type Reason string

const (
	ReasonMissingHeader   Reason = "missing_header"
	ReasonMalformedScheme Reason = "malformed_scheme"
	ReasonMissingToken    Reason = "missing_token"
	ReasonExtraTokenParts Reason = "extra_token_parts"

	ReasonKeySetUnreachable Reason = "key_set_unreachable"
	ReasonNoMatchingKey     Reason = "no_matching_key"

	ReasonTokenExpired        Reason = "token_expired"
	ReasonInvalidAudience     Reason = "invalid_audience"
	ReasonInvalidIssuer       Reason = "invalid_issuer"
	ReasonMalformedToken      Reason = "malformed_token"
	ReasonSignatureInvalid    Reason = "signature_invalid"
	ReasonKeyResolutionFailed Reason = "key_resolution_failed"
)

var messages = map[Reason]string{
	ReasonMissingHeader:       "Authorization header is missing",
	ReasonMalformedScheme:     "Authorization header must start with Bearer",
	ReasonMissingToken:        "Token not found",
	ReasonExtraTokenParts:     "Authorization header must be Bearer token",
	ReasonKeySetUnreachable:   "Unable to fetch signing keys",
	ReasonNoMatchingKey:       "Unable to find appropriate key",
	ReasonTokenExpired:        "Token expired",
	ReasonInvalidAudience:     "Invalid audience",
	ReasonInvalidIssuer:       "Invalid issuer",
	ReasonMalformedToken:      "Malformed token",
	ReasonSignatureInvalid:    "Invalid token signature",
	ReasonKeyResolutionFailed: "Unable to resolve signing key",
}

// Error is an authentication failure.  Err holds the underlying cause, if
// any, so callers can still match it with errors.Is.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Message is the client-facing text for the reason.
func (e *Error) Message() string {
	if m, ok := messages[e.Reason]; ok {
		return m
	}
	return string(e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same reason, so a wrapped copy carrying a
// cause still compares equal to the package sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

func newError(r Reason, cause error) *Error { return &Error{Reason: r, Err: cause} }

var (
	ErrMissingHeader   = &Error{Reason: ReasonMissingHeader}
	ErrMalformedScheme = &Error{Reason: ReasonMalformedScheme}
	ErrMissingToken    = &Error{Reason: ReasonMissingToken}
	ErrExtraTokenParts = &Error{Reason: ReasonExtraTokenParts}

	ErrKeySetUnreachable = &Error{Reason: ReasonKeySetUnreachable}
	ErrNoMatchingKey     = &Error{Reason: ReasonNoMatchingKey}

	ErrTokenExpired        = &Error{Reason: ReasonTokenExpired}
	ErrInvalidAudience     = &Error{Reason: ReasonInvalidAudience}
	ErrInvalidIssuer       = &Error{Reason: ReasonInvalidIssuer}
	ErrMalformedToken      = &Error{Reason: ReasonMalformedToken}
	ErrSignatureInvalid    = &Error{Reason: ReasonSignatureInvalid}
	ErrKeyResolutionFailed = &Error{Reason: ReasonKeyResolutionFailed}
)

// ReasonOf returns the reason of the outermost *Error in err's chain, or
// ReasonMalformedToken when err did not come from this package.
func ReasonOf(err error) Reason {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ReasonMalformedToken
}

// MessageOf returns the client-facing message for err's reason.
func MessageOf(err error) string {
	return (&Error{Reason: ReasonOf(err)}).Message()
}
