package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowhost/yandexcloud-nodes/pkg/log"
)

func testServiceAccountKey(t *testing.T) *ServiceAccountKey {
	t.Helper()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	require.NoError(t, err)

	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	return &ServiceAccountKey{
		ServiceAccountID: "aje-test-account",
		AccessKeyID:      "key-test-id",
		PrivateKey:       string(pemKey),
	}
}

func TestTokenMinter_MintsAndCaches(t *testing.T) {
	key := testServiceAccountKey(t)

	var exchanges int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++

		var body struct {
			JWT string `json:"jwt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body.JWT)

		// The claim must be PS256-signed with kid set to the key id.
		parsed, _, err := jwt.NewParser().ParseUnverified(body.JWT, &jwt.RegisteredClaims{})
		require.NoError(t, err)
		assert.Equal(t, "PS256", parsed.Header["alg"])
		assert.Equal(t, key.AccessKeyID, parsed.Header["kid"])

		claims := parsed.Claims.(*jwt.RegisteredClaims)
		assert.Equal(t, key.ServiceAccountID, claims.Issuer)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"iamToken":  "t1.test-token",
			"expiresAt": time.Now().Add(12 * time.Hour).Format(time.RFC3339),
		})
	}))
	defer server.Close()

	minter := NewTokenMinter(log.Discard(), nil)
	minter.Endpoint = server.URL

	token, err := minter.Token(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "t1.test-token", token)

	// Second call is served from the cache.
	token, err = minter.Token(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "t1.test-token", token)
	assert.Equal(t, 1, exchanges)
}

func TestDefaultTokenSource_SharedAcrossCalls(t *testing.T) {
	t.Cleanup(func() { SetDefaultTokenSource(nil) })

	SetDefaultTokenSource(nil)

	// The lazily created minter must be returned on every call: a fresh
	// minter per call would carry a fresh cache and never hit.
	first := DefaultTokenSource(log.Discard())
	second := DefaultTokenSource(log.Discard())
	assert.Same(t, first, second)
}

func TestDefaultTokenSource_Override(t *testing.T) {
	t.Cleanup(func() { SetDefaultTokenSource(nil) })

	SetDefaultTokenSource(StaticTokenSource("t1.fixed"))

	token, err := DefaultTokenSource(log.Discard()).Token(context.Background(), testServiceAccountKey(t))
	require.NoError(t, err)
	assert.Equal(t, "t1.fixed", token)
}

func TestTokenMinter_ExchangeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid jwt"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	minter := NewTokenMinter(log.Discard(), nil)
	minter.Endpoint = server.URL

	_, err := minter.Token(context.Background(), testServiceAccountKey(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestTokenMinter_BadPrivateKey(t *testing.T) {
	minter := NewTokenMinter(log.Discard(), nil)

	_, err := minter.Token(context.Background(), &ServiceAccountKey{
		ServiceAccountID: "aje",
		AccessKeyID:      "key",
		PrivateKey:       "not a pem",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private key")
}
