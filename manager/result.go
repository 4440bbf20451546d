package manager

// ResultKind classifies the outcome of one user intent.
type ResultKind int

const (
	// ResultApplied means the action was performed.
	ResultApplied ResultKind = iota
	// ResultVoteRecorded means the vote was counted but more are needed.
	ResultVoteRecorded
	// ResultRejected means the intent was refused; Reason says why.
	ResultRejected
)

// Result is returned for every intent the presentation layer submits.
type Result struct {
	Kind   ResultKind
	Have   int
	Needed int
	Reason string
}

func Applied() Result {
	return Result{Kind: ResultApplied}
}

func VoteRecorded(have, needed int) Result {
	return Result{Kind: ResultVoteRecorded, Have: have, Needed: needed}
}

func Rejected(reason string) Result {
	return Result{Kind: ResultRejected, Reason: reason}
}
