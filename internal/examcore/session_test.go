package examcore

import (
	"testing"
)

func sampleQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:      int64(i + 1),
			Text:    "question",
			Options: [4]string{"a", "b", "c", "d"},
		}
	}
	return qs
}

func TestNewSession(t *testing.T) {
	t.Run("empty question set", func(t *testing.T) {
		if _, err := NewSession(1, 1, nil, 600); err != ErrNoQuestions {
			t.Fatalf("expected ErrNoQuestions, got %v", err)
		}
	})

	t.Run("initial state", func(t *testing.T) {
		s, err := NewSession(1, 1, sampleQuestions(3), 600)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		if s.State() != StateNotStarted {
			t.Errorf("state = %s, want %s", s.State(), StateNotStarted)
		}
		if s.TimeRemaining() != 600 {
			t.Errorf("remaining = %d, want 600", s.TimeRemaining())
		}
		if s.AnsweredCount() != 0 {
			t.Errorf("answered = %d, want 0", s.AnsweredCount())
		}
	})
}

func TestSessionQuestionIndex(t *testing.T) {
	s, _ := NewSession(1, 1, sampleQuestions(2), 600)

	tests := []struct {
		name    string
		index   int
		wantID  int64
		wantErr error
	}{
		{name: "first", index: 0, wantID: 1},
		{name: "last", index: 1, wantID: 2},
		{name: "negative", index: -1, wantErr: ErrIndexOutOfRange},
		{name: "past end", index: 2, wantErr: ErrIndexOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := s.Question(tc.index)
			if err != tc.wantErr {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if err == nil && q.ID != tc.wantID {
				t.Errorf("id = %d, want %d", q.ID, tc.wantID)
			}
		})
	}
}

func TestSetAnswer(t *testing.T) {
	t.Run("invalid option index", func(t *testing.T) {
		s, _ := NewSession(1, 1, sampleQuestions(1), 600)
		s.start()
		for _, opt := range []int{-1, 4, 99} {
			if err := s.SetAnswer(1, opt); err != ErrInvalidOption {
				t.Errorf("SetAnswer(1, %d) = %v, want ErrInvalidOption", opt, err)
			}
		}
	})

	t.Run("overwrite keeps only the latest value", func(t *testing.T) {
		s, _ := NewSession(1, 1, sampleQuestions(1), 600)
		s.start()
		if err := s.SetAnswer(1, 0); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
		if err := s.SetAnswer(1, 3); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
		snap := s.Snapshot()
		if len(snap) != 1 || snap[1] != 3 {
			t.Errorf("snapshot = %v, want {1:3}", snap)
		}
	})

	t.Run("no-op before start and after freeze", func(t *testing.T) {
		s, _ := NewSession(1, 1, sampleQuestions(1), 600)
		if err := s.SetAnswer(1, 2); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
		if s.AnsweredCount() != 0 {
			t.Error("answer recorded before session started")
		}

		s.start()
		if _, err := s.beginSubmit(); err != nil {
			t.Fatalf("beginSubmit: %v", err)
		}
		if err := s.SetAnswer(1, 2); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
		if s.AnsweredCount() != 0 {
			t.Error("ledger accepted a write while frozen")
		}
	})
}

func TestTickMonotonic(t *testing.T) {
	s, _ := NewSession(1, 1, sampleQuestions(1), 3)
	s.start()

	prev := s.TimeRemaining()
	for i := 0; i < 10; i++ {
		remaining, _ := s.tick()
		if remaining > prev {
			t.Fatalf("time increased from %d to %d", prev, remaining)
		}
		if remaining < 0 {
			t.Fatalf("time went negative: %d", remaining)
		}
		prev = remaining
	}
	if prev != 0 {
		t.Errorf("remaining = %d, want 0", prev)
	}
}

func TestTickExpiryFiresOnce(t *testing.T) {
	s, _ := NewSession(1, 1, sampleQuestions(1), 2)
	s.start()

	expiries := 0
	for i := 0; i < 6; i++ {
		if _, expired := s.tick(); expired {
			expiries++
		}
	}
	if expiries != 1 {
		t.Errorf("expiry fired %d times, want exactly 1", expiries)
	}
}

func TestTickFrozenOutsideInProgress(t *testing.T) {
	s, _ := NewSession(1, 1, sampleQuestions(1), 100)
	s.start()
	if _, err := s.beginSubmit(); err != nil {
		t.Fatalf("beginSubmit: %v", err)
	}

	before := s.TimeRemaining()
	for i := 0; i < 5; i++ {
		if _, expired := s.tick(); expired {
			t.Fatal("expiry fired while Submitting")
		}
	}
	if got := s.TimeRemaining(); got != before {
		t.Errorf("remaining changed from %d to %d while Submitting", before, got)
	}
}
