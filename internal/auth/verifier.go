package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified claim set of an access token.
type Claims struct {
	jwt.RegisteredClaims
	Scope       string   `json:"scope,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Identity is the authenticated caller, as established by the provider.
// It says nothing about whether the caller is a registered application user.
type Identity struct {
	Subject string
	Claims  *Claims
}

// VerifierConfig describes what a token must look like to be accepted.
type VerifierConfig struct {
	// Domain is the provider tenant, e.g. "example.eu.auth0.com".
	Domain string
	// Issuer overrides the issuer derived from Domain ("https://{domain}/").
	Issuer     string
	Audience   string
	Algorithms []string
}

// IssuerURL returns the issuer a token must carry.
func (c VerifierConfig) IssuerURL() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	d := strings.TrimSuffix(strings.TrimSpace(c.Domain), "/")
	d = strings.TrimPrefix(d, "https://")
	return "https://" + d + "/"
}

// Verifier validates RS-signed access tokens against the provider's keys.
type Verifier struct {
	keys       KeySetResolver
	issuer     string
	audience   string
	algorithms []string
	now        func() time.Time
}

// NewVerifier returns a Verifier.  With no algorithms configured only RS256
// is accepted.
func NewVerifier(cfg VerifierConfig, keys KeySetResolver) *Verifier {
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = []string{"RS256"}
	}
	return &Verifier{
		keys:       keys,
		issuer:     cfg.IssuerURL(),
		audience:   cfg.Audience,
		algorithms: algs,
		now:        time.Now,
	}
}

var errMissingKID = errors.New("token header has no kid")

// Verify checks the token's signature, issuer, audience, exp, nbf, iat and
// sub with zero leeway.  Failures are *Error values carrying one of
// ReasonTokenExpired, ReasonInvalidAudience, ReasonInvalidIssuer,
// ReasonMalformedToken, ReasonSignatureInvalid or ReasonKeyResolutionFailed.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods(v.algorithms),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(v.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKID
		}
		return v.keys.Resolve(ctx, kid)
	})
	if err != nil {
		return nil, classify(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, newError(ReasonMalformedToken, errors.New("token has no subject"))
	}
	return claims, nil
}

// classify maps a jwt parse error onto exactly one reason.  Key resolution
// is checked first because jwt wraps keyfunc failures as unverifiable.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrNoMatchingKey), errors.Is(err, ErrKeySetUnreachable):
		return newError(ReasonKeyResolutionFailed, err)
	case errors.Is(err, errMissingKID):
		return newError(ReasonMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newError(ReasonMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return newError(ReasonSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(ReasonTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return newError(ReasonInvalidAudience, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return newError(ReasonInvalidIssuer, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return newError(ReasonKeyResolutionFailed, err)
	default:
		return newError(ReasonMalformedToken, err)
	}
}
