package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/logger"
)

// KeySetResolver finds the public key the identity provider used to sign a
// token, given the token's (unverified) key id.
type KeySetResolver interface {
	Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// JWKSURL derives the well-known key set location from a provider domain.
func JWKSURL(domain string) string {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), "/")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
}

// JWKSOptions configures a JWKSResolver.  Only URL is required.
type JWKSOptions struct {
	URL string

	// CacheTTL is how long a fetched key set is trusted before the next
	// lookup refetches it.  Default 10 minutes.
	CacheTTL time.Duration

	// MinRefresh bounds how often an unknown kid may force a refetch.
	// Default 30 seconds.
	MinRefresh time.Duration

	// HTTPClient defaults to a client with a 5 second timeout.
	HTTPClient *http.Client

	// Redis, when set, holds a shared copy of the raw key set document so
	// that several instances do not each hit the provider.
	Redis    *redis.Client
	RedisKey string
}

// JWKSResolver fetches and caches the provider's JSON Web Key Set.  Keys
// rotate rarely, so lookups are served from memory; an unknown kid forces
// a refetch, rate limited by MinRefresh.
type JWKSResolver struct {
	opts   JWKSOptions
	client *http.Client
	log    *zap.Logger
	now    func() time.Time

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastForced  time.Time
	fetchSerial sync.Mutex
}

// NewJWKSResolver builds a resolver; no network traffic happens until the
// first Resolve call.
func NewJWKSResolver(opts JWKSOptions) *JWKSResolver {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.MinRefresh <= 0 {
		opts.MinRefresh = 30 * time.Second
	}
	if opts.RedisKey == "" {
		opts.RedisKey = "jwks:" + opts.URL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &JWKSResolver{
		opts:   opts,
		client: client,
		log:    logger.WithModule("jwks"),
		now:    time.Now,
	}
}

// Resolve returns the RSA public key with the given kid.  A cached set that
// has gone stale is refreshed first; if that refresh fails the stale keys
// are still used.
func (r *JWKSResolver) Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	keys, fresh := r.cached()
	if !fresh {
		refreshed, err := r.refresh(ctx, false)
		switch {
		case err == nil:
			keys = refreshed
		case keys == nil:
			return nil, err
		default:
			r.log.Warn("jwks refresh failed, serving stale keys", zap.Error(err))
		}
	}
	if k, ok := keys[kid]; ok {
		return k, nil
	}

	if !r.allowForced() {
		return nil, newError(ReasonNoMatchingKey, fmt.Errorf("kid %q", kid))
	}
	keys, err := r.refresh(ctx, true)
	if err != nil {
		return nil, err
	}
	if k, ok := keys[kid]; ok {
		return k, nil
	}
	return nil, newError(ReasonNoMatchingKey, fmt.Errorf("kid %q", kid))
}

func (r *JWKSResolver) cached() (map[string]*rsa.PublicKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.keys == nil {
		return nil, false
	}
	return r.keys, r.now().Sub(r.fetchedAt) < r.opts.CacheTTL
}

func (r *JWKSResolver) allowForced() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if !r.lastForced.IsZero() && now.Sub(r.lastForced) < r.opts.MinRefresh {
		return false
	}
	r.lastForced = now
	return true
}

// refresh loads the key set and installs it.  When forced, the shared Redis
// copy is skipped because it is at least as old as what triggered the miss.
func (r *JWKSResolver) refresh(ctx context.Context, forced bool) (map[string]*rsa.PublicKey, error) {
	r.fetchSerial.Lock()
	defer r.fetchSerial.Unlock()

	// Another caller may have refreshed while we waited.
	if !forced {
		if keys, fresh := r.cached(); fresh {
			return keys, nil
		}
	}

	var raw []byte
	if !forced && r.opts.Redis != nil {
		if bs, err := r.opts.Redis.Get(ctx, r.opts.RedisKey).Bytes(); err == nil {
			raw = bs
		} else if !errors.Is(err, redis.Nil) {
			r.log.Debug("jwks redis read failed", zap.Error(err))
		}
	}
	fromShared := raw != nil
	if raw == nil {
		bs, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		raw = bs
	}

	keys, err := ParseRSAKeySet(raw)
	if err != nil {
		if fromShared {
			// A corrupt shared copy should not block verification.
			_ = r.opts.Redis.Del(ctx, r.opts.RedisKey).Err()
		}
		return nil, newError(ReasonKeySetUnreachable, err)
	}

	if !fromShared && r.opts.Redis != nil {
		if err := r.opts.Redis.SetEx(ctx, r.opts.RedisKey, raw, r.opts.CacheTTL).Err(); err != nil {
			r.log.Debug("jwks redis write failed", zap.Error(err))
		}
	}

	r.mu.Lock()
	r.keys = keys
	r.fetchedAt = r.now()
	r.mu.Unlock()

	r.log.Debug("jwks loaded", zap.Int("keys", len(keys)), zap.Bool("shared", fromShared))
	return keys, nil
}

func (r *JWKSResolver) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.URL, nil)
	if err != nil {
		return nil, newError(ReasonKeySetUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, newError(ReasonKeySetUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(ReasonKeySetUnreachable, fmt.Errorf("GET %s: status %d", r.opts.URL, resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, newError(ReasonKeySetUnreachable, err)
	}
	return body, nil
}

// keyUses reads the "use" parameter of every key in a JWKS document.
// keyfunc keeps it private, and NewJSON applies no use whitelist.
type keyUses struct {
	Keys []struct {
		KID string `json:"kid"`
		Use string `json:"use"`
	} `json:"keys"`
}

// signingKey reports whether a key may verify signatures: its use is
// "sig" or omitted.
func signingKey(use string) bool {
	switch keyfunc.JWKUse(use) {
	case keyfunc.UseSignature, keyfunc.UseOmitted:
		return true
	}
	return false
}

// ParseRSAKeySet decodes a JWKS document and returns its RSA signing keys
// by kid.  The base64url modulus and exponent of each key are turned into
// an *rsa.PublicKey; keys of other types and encryption keys are skipped.
func ParseRSAKeySet(raw []byte) (map[string]*rsa.PublicKey, error) {
	var doc keyUses
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("jwks: invalid JSON: %w", err)
	}
	set, err := keyfunc.NewJSON(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	// Later entries replace earlier ones with the same kid, as in keyfunc.
	uses := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		uses[k.KID] = k.Use
	}
	out := make(map[string]*rsa.PublicKey)
	for kid, k := range set.ReadOnlyKeys() {
		if !signingKey(uses[kid]) {
			continue
		}
		if pub, ok := k.(*rsa.PublicKey); ok {
			out[kid] = pub
		}
	}
	return out, nil
}
