package workers

import (
	"context"
	"log"
	"time"

	"ecofootprint-service/services"
)

// PollVerifierKeys refreshes the AdMob verifier key cache on a fixed
// cadence. AdMob rotates keys without notice; a failed fetch keeps the
// cached set in place and retries on the next tick.
func PollVerifierKeys(ctx context.Context, verifier *services.AdVerifier, pollInterval time.Duration) {
	log.Println("Starting AdMob verifier key polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("AdMob key polling stopped.")
			return
		case <-ticker.C:
			if err := verifier.RefreshKeys(ctx); err != nil {
				log.Printf("❌ AdMob key refresh failed (keeping cached set): %v", err)
				continue
			}
			log.Println("✅ AdMob verifier keys refreshed")
		}
	}
}
