package examcore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// countingSubmitter records every outbound call and its answers snapshot.
type countingSubmitter struct {
	mu        sync.Mutex
	calls     int32
	snapshots []map[int64]int
	result    *Result
	err       error
}

func (s *countingSubmitter) SubmitExam(_ context.Context, _ int64, _ int, answers map[int64]int) (*Result, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	s.snapshots = append(s.snapshots, answers)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &Result{}, nil
}

func (s *countingSubmitter) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func newTestCoordinator(t *testing.T, sub Submitter) *Coordinator {
	t.Helper()
	sess, err := NewSession(7, 42, sampleQuestions(2), 600)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return NewCoordinator(sess, sub)
}

func TestSubmitTransitions(t *testing.T) {
	sub := &countingSubmitter{result: &Result{Score: 1, Total: 2, Percentage: 50}}
	coord := newTestCoordinator(t, sub)

	if coord.State() != StateInProgress {
		t.Fatalf("state = %s, want %s", coord.State(), StateInProgress)
	}

	res, err := coord.Submit(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if coord.State() != StateSubmitted {
		t.Errorf("state = %s, want %s", coord.State(), StateSubmitted)
	}
	if res.Percentage != 50 {
		t.Errorf("percentage = %d, want 50", res.Percentage)
	}

	select {
	case <-coord.Done():
	default:
		t.Error("Done channel not closed after Submitted")
	}
}

func TestSubmitAtMostOnce(t *testing.T) {
	sub := &countingSubmitter{}
	coord := newTestCoordinator(t, sub)

	if _, err := coord.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := coord.Submit(context.Background(), TriggerTimeout); err != ErrAlreadySubmitting {
		t.Fatalf("second Submit = %v, want ErrAlreadySubmitting", err)
	}
	if sub.callCount() != 1 {
		t.Errorf("endpoint called %d times, want 1", sub.callCount())
	}
}

// Both triggers fire at the same instant from separate goroutines; the guard
// must let exactly one through.
func TestSubmitConcurrentTriggers(t *testing.T) {
	for i := 0; i < 100; i++ {
		sub := &countingSubmitter{}
		coord := newTestCoordinator(t, sub)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for _, trigger := range []Trigger{TriggerManual, TriggerTimeout} {
			wg.Add(1)
			go func(tr Trigger) {
				defer wg.Done()
				<-start
				_, _ = coord.Submit(context.Background(), tr)
			}(trigger)
		}
		close(start)
		wg.Wait()

		if sub.callCount() != 1 {
			t.Fatalf("endpoint called %d times, want 1", sub.callCount())
		}
		if coord.State() != StateSubmitted {
			t.Fatalf("state = %s, want %s", coord.State(), StateSubmitted)
		}
	}
}

func TestFailedThenRetryReusesSnapshot(t *testing.T) {
	sub := &countingSubmitter{err: errors.New("network down")}
	coord := newTestCoordinator(t, sub)

	sess := coord.Session()
	if err := sess.SetAnswer(1, 2); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	if _, err := coord.Submit(context.Background(), TriggerManual); err == nil {
		t.Fatal("expected submission error")
	}
	if coord.State() != StateFailed {
		t.Fatalf("state = %s, want %s", coord.State(), StateFailed)
	}
	if coord.LastError() == nil {
		t.Error("LastError is nil after failure")
	}

	// Writes between failure and retry must not reach the frozen snapshot.
	if err := sess.SetAnswer(1, 0); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := sess.SetAnswer(2, 1); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	sub.err = nil
	if _, err := coord.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if coord.State() != StateSubmitted {
		t.Errorf("state = %s, want %s", coord.State(), StateSubmitted)
	}

	if len(sub.snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(sub.snapshots))
	}
	first, second := sub.snapshots[0], sub.snapshots[1]
	if len(second) != len(first) {
		t.Fatalf("retry snapshot %v differs from original %v", second, first)
	}
	for qid, opt := range first {
		if second[qid] != opt {
			t.Errorf("retry snapshot[%d] = %d, want %d", qid, second[qid], opt)
		}
	}
}

func TestRetryRequiresFailedState(t *testing.T) {
	sub := &countingSubmitter{}
	coord := newTestCoordinator(t, sub)

	if _, err := coord.Retry(context.Background()); err != ErrNotFailed {
		t.Fatalf("Retry in InProgress = %v, want ErrNotFailed", err)
	}

	if _, err := coord.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := coord.Retry(context.Background()); err != ErrNotFailed {
		t.Fatalf("Retry in Submitted = %v, want ErrNotFailed", err)
	}
}

// Submitting early with an empty ledger is allowed; everything scores wrong.
func TestSubmitEarlyWithNoAnswers(t *testing.T) {
	sub := &countingSubmitter{}
	coord := newTestCoordinator(t, sub)

	if _, err := coord.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(sub.snapshots[0]) != 0 {
		t.Errorf("snapshot = %v, want empty", sub.snapshots[0])
	}
}
