package examcore

import (
	"context"
	"sync"
)

// Trigger identifies what initiated a submission.
type Trigger string

const (
	TriggerManual  Trigger = "manual"
	TriggerTimeout Trigger = "timeout"
	TriggerRetry   Trigger = "retry"
)

// Result is the scored outcome of a submitted attempt.
type Result struct {
	Score      int  `json:"score"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Passed     bool `json:"passed"`
}

// Submitter is the external submission endpoint. It is called at most once
// per session (plus explicit retries after a failure), always with the same
// frozen answers snapshot.
type Submitter interface {
	SubmitExam(ctx context.Context, subjectID int64, studentID int, answers map[int64]int) (*Result, error)
}

// SubmitFunc adapts a plain function to the Submitter interface.
type SubmitFunc func(ctx context.Context, subjectID int64, studentID int, answers map[int64]int) (*Result, error)

// SubmitExam implements Submitter.
func (f SubmitFunc) SubmitExam(ctx context.Context, subjectID int64, studentID int, answers map[int64]int) (*Result, error) {
	return f(ctx, subjectID, studentID, answers)
}

// Coordinator owns the session lifecycle and guarantees at-most-one outbound
// submission per session regardless of trigger. The snapshot captured on the
// first Submitting entry is authoritative for every retry — answer writes
// after that point are no-ops at the ledger.
type Coordinator struct {
	session   *Session
	countdown *Countdown
	submitter Submitter

	mu       sync.Mutex
	snapshot map[int64]int
	result   *Result
	lastErr  error

	done     chan struct{}
	doneOnce sync.Once
}

// NewCoordinator wires a session to its submission endpoint and moves it
// into InProgress. The caller owns starting the countdown.
func NewCoordinator(session *Session, submitter Submitter) *Coordinator {
	c := &Coordinator{
		session:   session,
		submitter: submitter,
		done:      make(chan struct{}),
	}
	session.start()
	return c
}

// Session returns the underlying session.
func (c *Coordinator) Session() *Session {
	return c.session
}

// State returns the session's lifecycle state.
func (c *Coordinator) State() State {
	return c.session.State()
}

// Done is closed when the session reaches Submitted.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Result returns the scored result once the session is Submitted, or nil.
func (c *Coordinator) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// LastError returns the error from the most recent failed submission.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Submit drives the InProgress → Submitting transition and calls the
// submission endpoint. The state flag is flipped synchronously before the
// endpoint call, so a second trigger — the user clicking submit the same
// instant the timer hits zero — gets ErrAlreadySubmitting and nothing else
// happens. That error is informational, not user-facing.
func (c *Coordinator) Submit(ctx context.Context, trigger Trigger) (*Result, error) {
	snapshot, err := c.session.beginSubmit()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	if c.countdown != nil {
		c.countdown.Stop()
	}

	return c.dispatch(ctx)
}

// Retry re-enters Submitting from Failed on explicit user action, reusing
// the snapshot frozen at the original submit attempt. It never re-reads the
// ledger.
func (c *Coordinator) Retry(ctx context.Context) (*Result, error) {
	if err := c.session.beginRetry(); err != nil {
		return nil, err
	}
	return c.dispatch(ctx)
}

// dispatch performs the outbound call with the frozen snapshot. The session
// is already in Submitting; no lock is held across the network call.
func (c *Coordinator) dispatch(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	snapshot := c.snapshot
	c.mu.Unlock()

	result, err := c.submitter.SubmitExam(ctx, c.session.SubjectID, c.session.StudentID, snapshot)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.session.finishSubmit(false)
		return nil, err
	}

	c.mu.Lock()
	c.result = result
	c.lastErr = nil
	c.mu.Unlock()
	c.session.finishSubmit(true)
	c.doneOnce.Do(func() { close(c.done) })

	return result, nil
}

// attachCountdown links the countdown so Submit can stop ticking.
func (c *Coordinator) attachCountdown(cd *Countdown) {
	c.countdown = cd
}

// Countdown returns the attached countdown, or nil if none was created.
func (c *Coordinator) Countdown() *Countdown {
	return c.countdown
}
