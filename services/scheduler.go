// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSweepScheduler runs the recurring maintenance jobs: finishing
// expired challenges and pruning stale ad entitlements. Sweeps log and
// continue past individual failures.
func (s *ChallengeService) StartSweepScheduler(verifier *AdVerifier) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: finish challenges whose end date has passed
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.SweepExpiredChallenges(time.Now())
		}),
	)

	// Every minute: drop expired ad entitlements to bound memory
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			verifier.Prune()
		}),
	)

	log.Println("✅ Sweep scheduler started (challenge expiry + ad log prune)")
}
