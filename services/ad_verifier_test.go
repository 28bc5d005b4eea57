package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier() *AdVerifier {
	return &AdVerifier{
		client: &http.Client{Timeout: time.Second},
		keys:   map[string]*ecdsa.PublicKey{},
	}
}

func signParams(t *testing.T, priv *ecdsa.PrivateKey, params map[string]string) string {
	t.Helper()
	digest := sha256.Sum256([]byte(canonicalMessage(params)))
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(sig)
}

func keyDirectoryJSON(t *testing.T, keyID int64, pub *ecdsa.PublicKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	pemData := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	body, err := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"keyId":  keyID,
			"pem":    string(pemData),
			"base64": base64.StdEncoding.EncodeToString(der),
		}},
	})
	require.NoError(t, err)
	return body
}

func TestVerifySignature(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	v := newTestVerifier()
	v.keys["42"] = &priv.PublicKey

	params := map[string]string{
		"ad_network":    "5450213213286189855",
		"ad_unit":       "1234567890",
		"reward_amount": "10",
		"reward_item":   "point",
		"timestamp":     "1500000000000",
		"user_id":       "user-1",
		"key_id":        "42",
	}
	sig := signParams(t, priv, params)
	params["signature"] = sig

	assert.True(t, v.Verify(params, "42", sig))

	// Unknown key id fails closed.
	assert.False(t, v.Verify(params, "43", sig))

	// Tampered parameter breaks the signature.
	params["reward_amount"] = "9999"
	assert.False(t, v.Verify(params, "42", sig))
}

func TestVerifyRejectsGarbageSignature(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	v := newTestVerifier()
	v.keys["1"] = &priv.PublicKey

	params := map[string]string{"user_id": "u", "reward_amount": "5"}
	assert.False(t, v.Verify(params, "1", "not-base64!!"))
	assert.False(t, v.Verify(params, "1", base64.RawURLEncoding.EncodeToString([]byte("junk"))))
}

func TestCanonicalMessageSortsAndExcludes(t *testing.T) {
	msg := canonicalMessage(map[string]string{
		"user_id":   "u1",
		"timestamp": "1",
		"signature": "s",
		"key_id":    "9",
		"ad_unit":   "a",
	})
	assert.Equal(t, "ad_unit=a&timestamp=1&user_id=u1", msg)
}

func TestRefreshKeysKeepsCacheOnFailure(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	body := keyDirectoryJSON(t, 7, &priv.PublicKey)

	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	v := newTestVerifier()
	v.keyURL = srv.URL
	require.NoError(t, v.RefreshKeys(context.Background()))

	params := map[string]string{"user_id": "u1", "reward_amount": "10"}
	sig := signParams(t, priv, params)
	require.True(t, v.Verify(params, "7", sig))

	// A failed refresh must leave the previous key set usable.
	fail = true
	require.Error(t, v.RefreshKeys(context.Background()))
	assert.True(t, v.Verify(params, "7", sig))
}

func TestConsumeIsSingleUse(t *testing.T) {
	v := newTestVerifier()
	v.Record("u1", 25, time.Now().UnixMilli())

	ent, ok := v.Consume("u1")
	require.True(t, ok)
	assert.Equal(t, 25, ent.RewardAmount)

	_, ok = v.Consume("u1")
	assert.False(t, ok, "an entitlement must be claimable exactly once")
}

func TestConsumedEntitlementCanBeRestored(t *testing.T) {
	v := newTestVerifier()
	ts := time.Now().UnixMilli()
	v.Record("u1", 25, ts)

	ent, ok := v.Consume("u1")
	require.True(t, ok)

	// A caller whose credit failed records the entry back unchanged.
	v.Record(ent.UserID, ent.RewardAmount, ent.Timestamp)

	ent, ok = v.Consume("u1")
	require.True(t, ok)
	assert.Equal(t, 25, ent.RewardAmount)
	assert.Equal(t, ts, ent.Timestamp)
}

func TestConsumeConcurrentClaimersGetOneSuccess(t *testing.T) {
	v := newTestVerifier()
	v.Record("u1", 25, time.Now().UnixMilli())

	const claimers = 16
	var wg sync.WaitGroup
	results := make(chan bool, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := v.Consume("u1")
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}

func TestConsumeIgnoresStaleEntries(t *testing.T) {
	v := newTestVerifier()
	stale := time.Now().Add(-6 * time.Minute).UnixMilli()
	v.Record("u1", 25, stale)

	_, ok := v.Consume("u1")
	assert.False(t, ok)
}

func TestConsumeOnlyMatchesUser(t *testing.T) {
	v := newTestVerifier()
	v.Record("u1", 25, time.Now().UnixMilli())

	_, ok := v.Consume("u2")
	assert.False(t, ok)

	ent, ok := v.Consume("u1")
	require.True(t, ok)
	assert.Equal(t, 25, ent.RewardAmount)
}

func TestPruneDropsExpiredEntries(t *testing.T) {
	v := newTestVerifier()
	v.Record("old", 5, time.Now().Add(-10*time.Minute).UnixMilli())
	v.Record("fresh", 10, time.Now().UnixMilli())

	v.Prune()

	_, ok := v.Consume("old")
	assert.False(t, ok)
	ent, ok := v.Consume("fresh")
	require.True(t, ok)
	assert.Equal(t, 10, ent.RewardAmount)
}
