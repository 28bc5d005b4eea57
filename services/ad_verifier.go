// services/ad_verifier.go
package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultVerifierKeyURL is AdMob's public key directory for rewarded-ad
// server-side verification callbacks.
const DefaultVerifierKeyURL = "https://www.gstatic.com/admob/reward/verifier-keys.json"

// EntitlementWindow is how long a verified ad watch stays claimable.
const EntitlementWindow = 5 * time.Minute

// AdEntitlement is one verified "user watched an ad" record, kept in
// memory only. Timestamp is the callback timestamp in milliseconds.
type AdEntitlement struct {
	UserID       string
	RewardAmount int
	Timestamp    int64
}

// AdVerifier validates AdMob SSV callbacks and bookkeeps one-time point
// entitlements. All access to the key cache and the entitlement log is
// guarded by the mutex so two concurrent consumers cannot both claim
// the same entry.
type AdVerifier struct {
	keyURL string
	client *http.Client

	mu      sync.Mutex
	keys    map[string]*ecdsa.PublicKey
	entries []AdEntitlement
}

// NewAdVerifier builds a verifier and performs the initial key fetch.
// A failed fetch is logged and left for the refresh worker to retry;
// until keys arrive every verification fails closed.
func NewAdVerifier() *AdVerifier {
	keyURL := os.Getenv("ADMOB_KEY_URL")
	if keyURL == "" {
		keyURL = DefaultVerifierKeyURL
	}

	v := &AdVerifier{
		keyURL: keyURL,
		client: &http.Client{Timeout: 10 * time.Second},
		keys:   map[string]*ecdsa.PublicKey{},
	}

	if err := v.RefreshKeys(context.Background()); err != nil {
		log.Printf("⚠️  Initial AdMob key fetch failed: %v", err)
	}
	return v
}

// RefreshKeys fetches the key directory and swaps in the new key set.
// On any failure the previously cached set stays in place.
func (v *AdVerifier) RefreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", v.keyURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create key request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch verifier keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verifier key directory returned status %d", resp.StatusCode)
	}

	var directory struct {
		Keys []struct {
			KeyID  int64  `json:"keyId"`
			Pem    string `json:"pem"`
			Base64 string `json:"base64"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&directory); err != nil {
		return fmt.Errorf("failed to decode verifier keys: %w", err)
	}
	if len(directory.Keys) == 0 {
		return fmt.Errorf("verifier key directory is empty")
	}

	keys := make(map[string]*ecdsa.PublicKey, len(directory.Keys))
	for _, k := range directory.Keys {
		pub, err := parseECPublicKey(k.Pem)
		if err != nil {
			log.Printf("Skipping unparsable verifier key %d: %v", k.KeyID, err)
			continue
		}
		keys[strconv.FormatInt(k.KeyID, 10)] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("no usable verifier keys in directory")
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()
	return nil
}

func parseECPublicKey(pemData string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	ecKey, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is %T, not an EC public key", pub)
	}
	return ecKey, nil
}

// Verify checks an SSV callback signature. The canonical message is
// every callback parameter except key_id and signature, sorted by
// name, joined as k=v pairs with &. Unknown key ids and bad signatures
// both return false, never an error.
func (v *AdVerifier) Verify(params map[string]string, keyID, signature string) bool {
	v.mu.Lock()
	key, ok := v.keys[keyID]
	v.mu.Unlock()
	if !ok {
		return false
	}

	sig, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(signature, "="))
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(canonicalMessage(params)))
	return ecdsa.VerifyASN1(key, digest[:], sig)
}

func canonicalMessage(params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		if name == "key_id" || name == "signature" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + params[name]
	}
	return strings.Join(pairs, "&")
}

// Record appends a verified entitlement to the log.
func (v *AdVerifier) Record(userID string, rewardAmount int, timestampMillis int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, AdEntitlement{
		UserID:       userID,
		RewardAmount: rewardAmount,
		Timestamp:    timestampMillis,
	})
}

// Consume removes and returns the first fresh entitlement for the
// user. Scan and removal happen under one lock acquisition, so a given
// entry can be claimed by at most one caller. A caller that fails to
// apply the credit may Record the returned entitlement again to keep
// it claimable.
func (v *AdVerifier) Consume(userID string) (AdEntitlement, bool) {
	now := time.Now().Unix()

	v.mu.Lock()
	defer v.mu.Unlock()
	for i, e := range v.entries {
		if e.UserID != userID {
			continue
		}
		if now-e.Timestamp/1000 >= int64(EntitlementWindow/time.Second) {
			continue
		}
		v.entries = append(v.entries[:i], v.entries[i+1:]...)
		return e, true
	}
	return AdEntitlement{}, false
}

// Prune drops every entry older than the entitlement window. Run on a
// schedule to bound memory.
func (v *AdVerifier) Prune() {
	now := time.Now().Unix()

	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.entries[:0]
	for _, e := range v.entries {
		if now-e.Timestamp/1000 < int64(EntitlementWindow/time.Second) {
			kept = append(kept, e)
		}
	}
	v.entries = kept
}
