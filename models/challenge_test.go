package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalStatesMatchPredicate(t *testing.T) {
	all := []ChallengeState{
		ChallengeStatePending,
		ChallengeStateActive,
		ChallengeStateInactive,
		ChallengeStateFinished,
		ChallengeStateFailed,
	}
	for _, state := range all {
		inFilter := false
		for _, terminal := range TerminalChallengeStates {
			if terminal == state {
				inFilter = true
			}
		}
		assert.Equal(t, state.Terminal(), inFilter, string(state))
	}
}
