package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "up_to_date", StateUpToDate.String())
	assert.Equal(t, "rolled_back", StateRolledBack.String())
	assert.Equal(t, "rollback_failed", StateRollbackFailed.String())
	assert.Equal(t, "state(99)", State(99).String())
}

func TestStateTerminal(t *testing.T) {
	terminal := []State{StateUpToDate, StateHealthy, StateFailed, StateRolledBack, StateRollbackFailed}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}

	intermediate := []State{StatePending, StateImagePulled, StateSnapshotted, StateReplaced, StateHealthChecking, StateRollingBack}
	for _, s := range intermediate {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}

func TestTransitionAllowsEnumeratedMoves(t *testing.T) {
	s := transition(StatePending, StateImagePulled)
	s = transition(s, StateSnapshotted)
	s = transition(s, StateReplaced)
	s = transition(s, StateHealthChecking)
	assert.Equal(t, StateHealthy, transition(s, StateHealthy))
}

func TestTransitionPanicsOnIllegalMove(t *testing.T) {
	assert.Panics(t, func() { transition(StatePending, StateHealthy) })
	assert.Panics(t, func() { transition(StateHealthy, StatePending) })
	assert.Panics(t, func() { transition(StateRolledBack, StateRollingBack) })
}
