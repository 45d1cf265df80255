package notify

// State is a step of delivering one notification.
type State int

const (
	StateConnecting State = iota
	StatePublishing
	StateSucceeded
	StateFailedRetryable
	StateFailedTerminal
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StatePublishing:
		return "publishing"
	case StateSucceeded:
		return "succeeded"
	case StateFailedRetryable:
		return "failed_retryable"
	case StateFailedTerminal:
		return "failed_terminal"
	default:
		return "unknown"
	}
}

// Terminal reports whether delivery is over.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailedTerminal
}

// Event is what happened while in a state.
type Event int

const (
	EventConnected Event = iota
	EventConnectFailed
	EventPublished
	EventPublishFailed
	EventDelayElapsed
)

// Transition returns the state following s on ev. attempt is the 1-based
// number of the attempt in progress. A failure on the last attempt is terminal.
// Events that make no sense in s leave it unchanged.
func Transition(s State, ev Event, attempt, maxAttempts int) State {
	switch s {
	case StateConnecting:
		switch ev {
		case EventConnected:
			return StatePublishing
		case EventConnectFailed:
			return failure(attempt, maxAttempts)
		}
	case StatePublishing:
		switch ev {
		case EventPublished:
			return StateSucceeded
		case EventPublishFailed:
			return failure(attempt, maxAttempts)
		}
	case StateFailedRetryable:
		if ev == EventDelayElapsed {
			return StateConnecting
		}
	}
	return s
}

func failure(attempt, maxAttempts int) State {
	if attempt < maxAttempts {
		return StateFailedRetryable
	}
	return StateFailedTerminal
}
