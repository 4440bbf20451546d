package vote

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreshold(t *testing.T) {
	cases := []struct {
		eligible int
		expected int
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{9, 5},
	}

	for _, tt := range cases {
		assert.Equal(t, tt.expected, Threshold(tt.eligible), "eligible=%d", tt.eligible)
	}
}

func TestCast_FirstVoteApprovesWithTwoListeners(t *testing.T) {
	tr := NewTracker()

	outcome, have, needed := tr.Cast(ActionSkip, "", "user-1", 2)

	assert.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, 1, have)
	assert.Equal(t, 1, needed)
}

func TestCast_FiveListenersNeedThreeVoters(t *testing.T) {
	tr := NewTracker()

	outcome, have, needed := tr.Cast(ActionSkip, "", "user-1", 5)
	assert.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, 1, have)
	assert.Equal(t, 3, needed)

	outcome, have, _ = tr.Cast(ActionSkip, "", "user-2", 5)
	assert.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, 2, have)

	outcome, have, _ = tr.Cast(ActionSkip, "", "user-3", 5)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, 3, have)
}

func TestCast_DuplicateVoterNotCountedTwice(t *testing.T) {
	tr := NewTracker()

	tr.Cast(ActionSkip, "", "user-1", 5)
	outcome, have, _ := tr.Cast(ActionSkip, "", "user-1", 5)

	assert.Equal(t, OutcomeAlreadyVoted, outcome)
	assert.Equal(t, 1, have)
}

func TestCast_ThresholdRecomputedPerVote(t *testing.T) {
	tr := NewTracker()

	// Five listeners when the session opens.
	outcome, _, needed := tr.Cast(ActionStop, "", "user-1", 5)
	assert.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, 3, needed)

	// Two listeners left the channel; the second vote now carries.
	outcome, have, needed := tr.Cast(ActionStop, "", "user-2", 3)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, 2, have)
	assert.Equal(t, 2, needed)
}

func TestCast_SessionTornDownAfterApproval(t *testing.T) {
	tr := NewTracker()

	tr.Cast(ActionSkip, "", "user-1", 3)
	outcome, _, _ := tr.Cast(ActionSkip, "", "user-2", 3)
	assert.Equal(t, OutcomeApproved, outcome)

	// A fresh vote opens a new session rather than re-approving.
	outcome, have, _ := tr.Cast(ActionSkip, "", "user-3", 3)
	assert.Equal(t, OutcomeRecorded, outcome)
	assert.Equal(t, 1, have)
}

func TestCast_TargetsAreSeparateSessions(t *testing.T) {
	tr := NewTracker()

	tr.Cast(ActionRemove, "2", "user-1", 5)
	_, have, _ := tr.Cast(ActionRemove, "4", "user-2", 5)

	assert.Equal(t, 1, have)
	assert.True(t, tr.Open(ActionRemove))
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Cast(ActionSkip, "", "user-1", 5)

	tr.Reset(ActionSkip)

	assert.False(t, tr.Open(ActionSkip))
}

func TestResetAll(t *testing.T) {
	tr := NewTracker()
	tr.Cast(ActionSkip, "", "user-1", 5)
	tr.Cast(ActionStop, "", "user-1", 5)
	tr.Cast(ActionRemove, "1", "user-1", 5)

	tr.ResetAll()

	for _, action := range []Action{ActionSkip, ActionStop, ActionRemove} {
		assert.False(t, tr.Open(action), action.String())
	}
}

func TestCancelMoot_StopCancelsSkip(t *testing.T) {
	tr := NewTracker()
	tr.Cast(ActionSkip, "", "user-1", 5)
	tr.Cast(ActionShuffle, "", "user-1", 5)

	tr.CancelMoot(ActionStop)

	assert.False(t, tr.Open(ActionSkip))
	assert.False(t, tr.Open(ActionShuffle))
}

func TestCancelMoot_SkipLeavesStopAlone(t *testing.T) {
	tr := NewTracker()
	tr.Cast(ActionStop, "", "user-1", 5)

	tr.CancelMoot(ActionSkip)

	assert.True(t, tr.Open(ActionStop))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "skip", ActionSkip.String())
	assert.Equal(t, "disconnect", ActionDisconnect.String())
	assert.Equal(t, "unknown", fmt.Sprint(Action(99)))
}
