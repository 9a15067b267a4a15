// ABOUTME: Bearer token verification yielding a stable subject and email
// ABOUTME: Auth0 RS256 verification against a cached JWKS, plus a local dev verifier
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidHeader means the token names no key present in the JWKS
	ErrInvalidHeader = errors.New("Invalid header")
	// ErrInvalidToken means the signature, audience, issuer or expiry check failed
	ErrInvalidToken = errors.New("Invalid token")
	// ErrMissingSub means the token verified but carries no subject
	ErrMissingSub = errors.New("Token missing sub")
)

// Identity is the verified caller
type Identity struct {
	Subject string
	Email   string
}

// Verifier authenticates a raw bearer token
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type Auth0Config struct {
	Domain     string
	Audience   string
	JWKSURL    string
	HTTPClient *http.Client
	CacheTTL   time.Duration
	// MinRefreshInterval bounds how often an unknown kid can trigger a JWKS fetch
	MinRefreshInterval time.Duration
}

// Auth0Verifier checks RS256 tokens issued by https://<domain>/
type Auth0Verifier struct {
	issuer   string
	audience string
	jwks     *jwksCache
}

func NewAuth0Verifier(cfg Auth0Config) (*Auth0Verifier, error) {
	if strings.TrimSpace(cfg.Domain) == "" {
		return nil, fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = "https://" + cfg.Domain + "/.well-known/jwks.json"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if cfg.MinRefreshInterval <= 0 {
		cfg.MinRefreshInterval = time.Minute
	}
	return &Auth0Verifier{
		issuer:   "https://" + cfg.Domain + "/",
		audience: cfg.Audience,
		jwks:     newJWKSCache(cfg.HTTPClient, cfg.JWKSURL, cfg.CacheTTL, cfg.MinRefreshInterval),
	}, nil
}

func (v *Auth0Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.jwks.getKey(ctx, kid)
	})
	switch {
	case err == nil:
	case errors.Is(err, errJWKSUnavailable):
		return Identity{}, err
	case errors.Is(err, ErrInvalidHeader):
		return Identity{}, ErrInvalidHeader
	default:
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return Identity{}, ErrMissingSub
	}
	email, _ := claims["email"].(string)
	return Identity{Subject: sub, Email: email}, nil
}

// DevVerifier accepts any non-empty token as the subject "dev|<token>".
// It exists for local runs with AUTH_DISABLED set.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	id := Identity{Subject: "dev|" + token}
	if strings.Contains(token, "@") {
		id.Email = token
	}
	return id, nil
}

var errJWKSUnavailable = errors.New("jwks unavailable")

type jwksCache struct {
	httpClient  *http.Client
	url         string
	ttl         time.Duration
	minInterval time.Duration
	now         func() time.Time

	// refreshMu serializes fetches so a burst of unknown kids costs one request
	refreshMu sync.Mutex

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	attemptedAt time.Time
	lastErr     error
}

func newJWKSCache(httpClient *http.Client, url string, ttl, minInterval time.Duration) *jwksCache {
	return &jwksCache{
		httpClient:  httpClient,
		url:         url,
		ttl:         ttl,
		minInterval: minInterval,
		now:         time.Now,
		keys:        map[string]*rsa.PublicKey{},
	}
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// getKey returns the key for kid, refreshing when kid is unknown or the set is
// stale. At most one fetch is attempted per minInterval.
func (j *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	j.mu.RLock()
	key := j.keys[kid]
	stale := j.now().Sub(j.fetchedAt) > j.ttl
	j.mu.RUnlock()

	if key != nil && !stale {
		return key, nil
	}
	if err := j.refresh(ctx); err != nil {
		if key != nil {
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", errJWKSUnavailable, err)
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if key = j.keys[kid]; key == nil {
		return nil, ErrInvalidHeader
	}
	return key, nil
}

// refresh fetches the key set unless an attempt was made within minInterval,
// in which case it reports that attempt's outcome.
func (j *jwksCache) refresh(ctx context.Context) error {
	j.refreshMu.Lock()
	defer j.refreshMu.Unlock()

	j.mu.RLock()
	attempted, lastErr := j.attemptedAt, j.lastErr
	j.mu.RUnlock()
	if !attempted.IsZero() && j.now().Sub(attempted) < j.minInterval {
		return lastErr
	}

	keys, err := j.fetch(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.attemptedAt = j.now()
	j.lastErr = err
	if err == nil {
		j.keys = keys
		j.fetchedAt = j.attemptedAt
	}
	return err
}

func (j *jwksCache) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return nil, err
	}
	res, err := j.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("jwks fetch failed: %s", res.Status)
	}

	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return nil, err
	}

	keys := map[string]*rsa.PublicKey{}
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		if pub, err := rsaFromModExp(k.N, k.E); err == nil {
			keys[k.Kid] = pub
		}
	}
	return keys, nil
}

func rsaFromModExp(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, fmt.Errorf("decode n: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, fmt.Errorf("decode e: %w", err)
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, errors.New("zero exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
