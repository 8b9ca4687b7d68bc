package examcore

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestManagerStartDiscardsUnsubmitted(t *testing.T) {
	m := NewManager(zerolog.Nop())
	sub := &countingSubmitter{}

	sess1, _ := NewSession(1, 42, sampleQuestions(1), 600)
	coord1 := NewCoordinator(sess1, sub)
	m.Start(42, coord1)

	sess2, _ := NewSession(2, 42, sampleQuestions(1), 600)
	coord2 := NewCoordinator(sess2, sub)
	m.Start(42, coord2)

	if _, err := m.Get(42, 1); err != ErrNoActiveSession {
		t.Errorf("old session still reachable, err = %v", err)
	}
	got, err := m.Get(42, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != coord2 {
		t.Error("Get returned the wrong coordinator")
	}

	// The discarded attempt never produced a submission call.
	if sub.callCount() != 0 {
		t.Errorf("discard triggered %d submissions, want 0", sub.callCount())
	}
}

func TestManagerGetUnknownStudent(t *testing.T) {
	m := NewManager(zerolog.Nop())
	if _, err := m.Get(7, 1); err != ErrNoActiveSession {
		t.Errorf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestManagerRemove(t *testing.T) {
	m := NewManager(zerolog.Nop())
	sub := &countingSubmitter{}

	sess, _ := NewSession(1, 42, sampleQuestions(1), 600)
	coord := NewCoordinator(sess, sub)
	m.Start(42, coord)

	if _, err := coord.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	m.Remove(42, coord)

	if _, err := m.Get(42, 1); err != ErrNoActiveSession {
		t.Errorf("session still present after Remove, err = %v", err)
	}

	// Removing a stale coordinator must not drop a newer session.
	sess2, _ := NewSession(1, 42, sampleQuestions(1), 600)
	coord2 := NewCoordinator(sess2, sub)
	m.Start(42, coord2)
	m.Remove(42, coord)
	if _, err := m.Get(42, 1); err != nil {
		t.Errorf("newer session dropped by stale Remove: %v", err)
	}
}
