package examcore

import "math"

// Score grades a frozen answers snapshot against the authoritative answer
// key. The total is the full question set for the subject — unanswered
// questions count as incorrect, never as excluded.
func Score(answers map[int64]int, key map[int64]int, passingScore int) Result {
	correct := 0
	for qid, want := range key {
		if got, ok := answers[qid]; ok && got == want {
			correct++
		}
	}

	total := len(key)
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return Result{
		Score:      correct,
		Total:      total,
		Percentage: percentage,
		Passed:     percentage >= passingScore,
	}
}
