package vote

// Action identifies the player operation a vote session gates.
type Action int

const (
	ActionSkip Action = iota
	ActionStop
	ActionPause
	ActionShuffle
	ActionClear
	ActionRemove
	ActionDisconnect
	ActionLoop
)

var actionNames = map[Action]string{
	ActionSkip:       "skip",
	ActionStop:       "stop",
	ActionPause:      "pause",
	ActionShuffle:    "shuffle",
	ActionClear:      "clear",
	ActionRemove:     "remove",
	ActionDisconnect: "disconnect",
	ActionLoop:       "loop",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Outcome is the result of casting a single vote.
type Outcome int

const (
	// OutcomeRecorded means the vote was counted but the threshold is not met yet.
	OutcomeRecorded Outcome = iota
	// OutcomeAlreadyVoted means this voter already has a counted vote for the action.
	OutcomeAlreadyVoted
	// OutcomeApproved means this vote met the threshold; the session is torn down
	// and the caller performs the action exactly once.
	OutcomeApproved
)

// Threshold computes the number of distinct voters needed for approval from
// the current eligible-listener count. With two or fewer listeners a single
// vote carries.
func Threshold(eligible int) int {
	if eligible <= 2 {
		return 1
	}
	return (eligible + 1) / 2
}

type sessionKey struct {
	action Action
	// target disambiguates sessions within one action kind: a pending-queue
	// index for Remove, a mode name for Loop, empty otherwise.
	target string
}

// Tracker accumulates votes for one guild, scoped to the current track.
// It does no locking; the owning session serializes access.
type Tracker struct {
	sessions map[sessionKey]map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[sessionKey]map[string]struct{})}
}

// Cast records a vote and resolves it against the threshold computed from
// the eligible-listener count at this moment. Listeners joining or leaving
// between votes moves the bar for the same open session.
func (t *Tracker) Cast(action Action, target, voterID string, eligible int) (Outcome, int, int) {
	key := sessionKey{action: action, target: target}
	voters, ok := t.sessions[key]
	if !ok {
		voters = make(map[string]struct{})
		t.sessions[key] = voters
	}

	needed := Threshold(eligible)
	if _, dup := voters[voterID]; dup {
		return OutcomeAlreadyVoted, len(voters), needed
	}

	voters[voterID] = struct{}{}
	have := len(voters)
	if have >= needed {
		delete(t.sessions, key)
		return OutcomeApproved, have, needed
	}
	return OutcomeRecorded, have, needed
}

// Reset cancels every open session for one action kind, regardless of target.
func (t *Tracker) Reset(action Action) {
	for key := range t.sessions {
		if key.action == action {
			delete(t.sessions, key)
		}
	}
}

// ResetAll cancels every open session. Called when the current track
// changes, since outstanding votes refer to a track that no longer plays.
func (t *Tracker) ResetAll() {
	t.sessions = make(map[sessionKey]map[string]struct{})
}

// mootedBy lists the sessions an approved action makes pointless.
var mootedBy = map[Action][]Action{
	ActionSkip:       {ActionSkip, ActionPause, ActionRemove},
	ActionStop:       {ActionSkip, ActionPause, ActionShuffle, ActionClear, ActionRemove, ActionStop},
	ActionClear:      {ActionShuffle, ActionRemove, ActionClear},
	ActionDisconnect: {ActionSkip, ActionPause, ActionShuffle, ActionClear, ActionRemove, ActionStop, ActionDisconnect},
}

// CancelMoot tears down sessions left meaningless by an approved action,
// e.g. an approved Stop cancels a pending Skip vote.
func (t *Tracker) CancelMoot(approved Action) {
	for _, action := range mootedBy[approved] {
		t.Reset(action)
	}
}

// Open reports whether any session for the action currently holds votes.
func (t *Tracker) Open(action Action) bool {
	for key, voters := range t.sessions {
		if key.action == action && len(voters) > 0 {
			return true
		}
	}
	return false
}
