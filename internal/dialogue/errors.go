package dialogue

import "errors"

// Error kinds surfaced to the action boundary. Match them with errors.Is.
var (
	ErrMissingInput      = errors.New("missing input")
	ErrInvalidTurns      = errors.New("invalid turn count")
	ErrRemoteCallFailure = errors.New("remote call failed")
	ErrEmptyTranscript   = errors.New("no chat history returned")
	ErrInvalidAgent      = errors.New("invalid agent")
	ErrUnexpectedFailure = errors.New("unexpected failure")
)

// Status is the lifecycle state of one exchange.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusCompletedNatural
	StatusCompletedLimit
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusCompletedNatural:
		return "completed_natural"
	case StatusCompletedLimit:
		return "completed_limit"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusCompletedNatural || s == StatusCompletedLimit || s == StatusFailed
}

// StatusOf maps the outcome of RunDialogue to its final state.
func StatusOf(result *ChatResult, err error) Status {
	switch {
	case err != nil:
		return StatusFailed
	case result == nil:
		return StatusNotStarted
	case result.EndedNaturally:
		return StatusCompletedNatural
	default:
		return StatusCompletedLimit
	}
}
