package update

import "fmt"

// State is the per-service update progression. Transitions are enumerated
// in the table below; anything else is a bug, not an operator error.
type State int

const (
	StatePending State = iota
	StateImagePulled
	StateUpToDate
	StateSnapshotted
	StateReplaced
	StateHealthChecking
	StateHealthy
	StateFailed
	StateRollingBack
	StateRolledBack
	StateRollbackFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateImagePulled:
		return "image_pulled"
	case StateUpToDate:
		return "up_to_date"
	case StateSnapshotted:
		return "snapshotted"
	case StateReplaced:
		return "replaced"
	case StateHealthChecking:
		return "health_checking"
	case StateHealthy:
		return "healthy"
	case StateFailed:
		return "failed"
	case StateRollingBack:
		return "rolling_back"
	case StateRolledBack:
		return "rolled_back"
	case StateRollbackFailed:
		return "rollback_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the update run for a service is over.
func (s State) Terminal() bool {
	switch s {
	case StateUpToDate, StateHealthy, StateFailed, StateRolledBack, StateRollbackFailed:
		return true
	}
	return false
}

var transitions = map[State][]State{
	StatePending:        {StateImagePulled},
	StateImagePulled:    {StateUpToDate, StateSnapshotted, StateFailed},
	StateSnapshotted:    {StateReplaced, StateFailed, StateRollingBack},
	StateReplaced:       {StateHealthChecking},
	StateHealthChecking: {StateHealthy, StateFailed, StateRollingBack},
	StateRollingBack:    {StateRolledBack, StateRollbackFailed},
}

// transition moves the machine to next, panicking on a transition the
// table does not enumerate. Rollback triggers are part of the table, not
// scattered conditionals.
func transition(from, to State) State {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return to
		}
	}
	panic(fmt.Sprintf("illegal update state transition %s -> %s", from, to))
}
