package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenEndpoint is the IAM token exchange endpoint.
const DefaultTokenEndpoint = "https://iam.api.cloud.yandex.net/iam/v1/tokens"

// expiryMargin is subtracted from the remote expiry before caching so a
// token is never served right at its deadline.
const expiryMargin = 5 * time.Minute

// TokenSource yields a valid IAM token for a service account. Nodes depend
// on this interface so tests can substitute a static token.
type TokenSource interface {
	Token(ctx context.Context, key *ServiceAccountKey) (string, error)
}

// StaticTokenSource returns a fixed, caller-supplied IAM token.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context, *ServiceAccountKey) (string, error) {
	return string(s), nil
}

// Process-wide token source shared by every node execution, so a minted
// token outlives the Execute call that minted it. Set once at startup.
var (
	defaultTokens   TokenSource
	defaultTokensMu sync.Mutex
)

// SetDefaultTokenSource wires the token source executions fall back to when
// a node has none injected.
func SetDefaultTokenSource(source TokenSource) {
	defaultTokensMu.Lock()
	defer defaultTokensMu.Unlock()

	defaultTokens = source
}

// DefaultTokenSource returns the process-wide token source, creating a
// memory-cached minter on first use.
func DefaultTokenSource(logger *slog.Logger) TokenSource {
	defaultTokensMu.Lock()
	defer defaultTokensMu.Unlock()

	if defaultTokens == nil {
		defaultTokens = NewTokenMinter(logger, nil)
	}

	return defaultTokens
}

// TokenMinter exchanges a service-account key for a short-lived IAM bearer
// token: it signs a PS256 JWT with the key's private key and posts it to the
// IAM endpoint. Minted tokens are cached per key id.
type TokenMinter struct {
	Endpoint   string
	HTTPClient *http.Client

	cache  TokenCache
	logger *slog.Logger
	now    func() time.Time
}

func NewTokenMinter(logger *slog.Logger, cache TokenCache) *TokenMinter {
	if cache == nil {
		cache = NewMemoryCache()
	}

	return &TokenMinter{
		Endpoint:   DefaultTokenEndpoint,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		logger:     logger.With("module", "iam"),
		now:        time.Now,
	}
}

// Token returns a valid IAM token for the service account, minting one if
// the cache has no live entry.
func (m *TokenMinter) Token(ctx context.Context, key *ServiceAccountKey) (string, error) {
	cacheKey := "yc:iam:" + key.AccessKeyID

	if token, ok := m.cache.Get(ctx, cacheKey); ok {
		return token, nil
	}

	signed, err := m.signedClaim(key)
	if err != nil {
		return "", err
	}

	token, expiresAt, err := m.exchange(ctx, signed)
	if err != nil {
		return "", err
	}

	ttl := expiresAt.Sub(m.now()) - expiryMargin
	if ttl > 0 {
		m.cache.Set(ctx, cacheKey, token, ttl)
	}

	m.logger.DebugContext(ctx, "Minted IAM token", "service_account_id", key.ServiceAccountID)

	return token, nil
}

// signedClaim builds the PS256 JWT the IAM endpoint accepts: issuer is the
// service account, audience is the token endpoint, kid is the key id.
func (m *TokenMinter) signedClaim(key *ServiceAccountKey) (string, error) {
	rsaKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse service account private key: %w", err)
	}

	issuedAt := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    key.ServiceAccountID,
		Audience:  jwt.ClaimStrings{m.Endpoint},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodPS256, claims)
	token.Header["kid"] = key.AccessKeyID

	signed, err := token.SignedString(rsaKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign IAM claim: %w", err)
	}

	return signed, nil
}

func (m *TokenMinter) exchange(ctx context.Context, signedJWT string) (string, time.Time, error) {
	payload, err := json.Marshal(map[string]string{"jwt": signedJWT})
	if err != nil {
		return "", time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("IAM token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("IAM token exchange returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		IAMToken  string    `json:"iamToken"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	if parsed.IAMToken == "" {
		return "", time.Time{}, fmt.Errorf("IAM token exchange returned an empty token")
	}

	return parsed.IAMToken, parsed.ExpiresAt, nil
}
