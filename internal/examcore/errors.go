package examcore

import "errors"

// Domain errors for the exam session core.
var (
	// ErrNoQuestions is returned when a session is created with an empty
	// question set.
	ErrNoQuestions = errors.New("session has no questions")

	// ErrIndexOutOfRange is returned for a question index outside the
	// session's question list. Callers are expected to prevent this.
	ErrIndexOutOfRange = errors.New("question index out of range")

	// ErrInvalidOption is returned when an answer's option index is outside
	// [0,3]. This is a contract violation by the caller, not user input.
	ErrInvalidOption = errors.New("option index must be between 0 and 3")

	// ErrAlreadySubmitting signals that a submission is already in flight or
	// finished. Callers absorb it silently — it means the first trigger won.
	ErrAlreadySubmitting = errors.New("submission already initiated")

	// ErrNotFailed is returned by Retry when the session is not in the
	// Failed state.
	ErrNotFailed = errors.New("session is not in a failed state")

	// ErrNoActiveSession is returned by the manager when a student has no
	// live session.
	ErrNoActiveSession = errors.New("no active exam session")
)
