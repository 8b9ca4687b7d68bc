package examcore

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCountdownExpiryAutoSubmitsOnce(t *testing.T) {
	sub := &countingSubmitter{}
	sess, _ := NewSession(7, 42, sampleQuestions(1), 3)
	coord := NewCoordinator(sess, sub)
	cd := NewCountdownInterval(coord, time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		cd.Run(context.Background())
		close(done)
	}()

	select {
	case <-coord.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never triggered auto-submission")
	}
	<-done

	if sub.callCount() != 1 {
		t.Errorf("endpoint called %d times, want 1", sub.callCount())
	}
	if coord.State() != StateSubmitted {
		t.Errorf("state = %s, want %s", coord.State(), StateSubmitted)
	}
	if sess.TimeRemaining() != 0 {
		t.Errorf("remaining = %d, want 0", sess.TimeRemaining())
	}
}

func TestCountdownStopsWhenStateLeavesInProgress(t *testing.T) {
	sub := &countingSubmitter{}
	sess, _ := NewSession(7, 42, sampleQuestions(1), 10000)
	coord := NewCoordinator(sess, sub)
	cd := NewCountdownInterval(coord, time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		cd.Run(context.Background())
		close(done)
	}()

	if _, err := coord.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown kept running after Submitting")
	}

	frozen := sess.TimeRemaining()
	time.Sleep(20 * time.Millisecond)
	if got := sess.TimeRemaining(); got != frozen {
		t.Errorf("remaining moved from %d to %d after submission", frozen, got)
	}
	if sub.callCount() != 1 {
		t.Errorf("endpoint called %d times, want 1", sub.callCount())
	}
}

func TestCountdownContextCancel(t *testing.T) {
	sub := &countingSubmitter{}
	sess, _ := NewSession(7, 42, sampleQuestions(1), 10000)
	coord := NewCoordinator(sess, sub)
	cd := NewCountdownInterval(coord, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cd.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not stop on context cancel")
	}
	if sub.callCount() != 0 {
		t.Errorf("endpoint called %d times, want 0", sub.callCount())
	}
}

func TestCountdownPublishesTicks(t *testing.T) {
	sub := &countingSubmitter{}
	sess, _ := NewSession(7, 42, sampleQuestions(1), 5)
	coord := NewCoordinator(sess, sub)
	cd := NewCountdownInterval(coord, time.Millisecond, zerolog.Nop())

	go cd.Run(context.Background())

	var last = sess.TimeRemaining()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case remaining := <-cd.Ticks():
			if remaining > last {
				t.Fatalf("tick went up: %d after %d", remaining, last)
			}
			last = remaining
			if remaining == 0 {
				return
			}
		case <-deadline:
			t.Fatal("never observed a zero tick")
		}
	}
}
