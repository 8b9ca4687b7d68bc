package examcore

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		answers      map[int64]int
		key          map[int64]int
		passingScore int
		want         Result
	}{
		{
			name:         "all correct",
			answers:      map[int64]int{1: 1, 2: 1},
			key:          map[int64]int{1: 1, 2: 1},
			passingScore: 70,
			want:         Result{Score: 2, Total: 2, Percentage: 100, Passed: true},
		},
		{
			name:         "partially answered counts full total",
			answers:      map[int64]int{1: 1},
			key:          map[int64]int{1: 1, 2: 1},
			passingScore: 70,
			want:         Result{Score: 1, Total: 2, Percentage: 50, Passed: false},
		},
		{
			name:         "unanswered scores zero over full total",
			answers:      map[int64]int{},
			key:          map[int64]int{1: 0, 2: 3, 3: 2},
			passingScore: 50,
			want:         Result{Score: 0, Total: 3, Percentage: 0, Passed: false},
		},
		{
			name:         "wrong answers count as incorrect",
			answers:      map[int64]int{1: 0, 2: 2},
			key:          map[int64]int{1: 1, 2: 2},
			passingScore: 50,
			want:         Result{Score: 1, Total: 2, Percentage: 50, Passed: true},
		},
		{
			name:         "percentage rounds to nearest",
			answers:      map[int64]int{1: 1, 2: 1},
			key:          map[int64]int{1: 1, 2: 1, 3: 1},
			passingScore: 70,
			want:         Result{Score: 2, Total: 3, Percentage: 67, Passed: false},
		},
		{
			name:         "answer for unknown question is ignored",
			answers:      map[int64]int{99: 1},
			key:          map[int64]int{1: 1},
			passingScore: 0,
			want:         Result{Score: 0, Total: 1, Percentage: 0, Passed: true},
		},
		{
			name:         "empty key",
			answers:      map[int64]int{1: 1},
			key:          map[int64]int{},
			passingScore: 70,
			want:         Result{Score: 0, Total: 0, Percentage: 0, Passed: false},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.answers, tc.key, tc.passingScore)
			if got != tc.want {
				t.Errorf("Score() = %+v, want %+v", got, tc.want)
			}
		})
	}
}
