package domain

import "testing"

func TestQuestionEarned(t *testing.T) {
	q := Question{Number: 1, Value: 25}
	if got := q.Earned(); got != 0 {
		t.Fatalf("unanswered question earned %d, want 0", got)
	}
	q.Correct = true
	if got := q.Earned(); got != 25 {
		t.Fatalf("correct question earned %d, want 25", got)
	}
}

func TestRoundNextToOpen(t *testing.T) {
	r := NewRound(1, 3)
	if got := r.NextToOpen(); got != 1 {
		t.Fatalf("fresh round next to open %d, want 1", got)
	}
	r.Questions[0].BeenOpen = true
	r.Questions[1].BeenOpen = true
	if got := r.NextToOpen(); got != 3 {
		t.Fatalf("next to open %d, want 3", got)
	}
	r.Questions[2].BeenOpen = true
	if got := r.NextToOpen(); got != 0 {
		t.Fatalf("exhausted round next to open %d, want 0", got)
	}
}

func TestRoundTotals(t *testing.T) {
	r := NewRound(2, 3)
	r.Questions[0].Value = 10
	r.Questions[0].Correct = true
	r.Questions[1].Value = 20
	r.Questions[2].Value = 30
	r.Questions[2].Correct = true
	if got := r.TotalValue(); got != 60 {
		t.Fatalf("total value %d, want 60", got)
	}
	if got := r.TotalEarned(); got != 40 {
		t.Fatalf("total earned %d, want 40", got)
	}
}

func TestRoundCloneIsDeep(t *testing.T) {
	r := NewRound(1, 2)
	r.AnswerQueue = append(r.AnswerQueue, Answer{QNumber: 1, Status: StatusNotCalledIn})

	clone := r.Clone()
	clone.Questions[0].Value = 99
	clone.AnswerQueue[0].Status = StatusCorrect

	if r.Questions[0].Value != 0 {
		t.Fatalf("clone mutation leaked into original question")
	}
	if r.AnswerQueue[0].Status != StatusNotCalledIn {
		t.Fatalf("clone mutation leaked into original queue")
	}
}

func TestNewContestShape(t *testing.T) {
	c := NewContest("contest-1", 12, 3, 8)
	if c.CurrentRound != 1 {
		t.Fatalf("current round %d, want 1", c.CurrentRound)
	}
	if len(c.Rounds) != 3 {
		t.Fatalf("rounds %d, want 3", len(c.Rounds))
	}
	for i, r := range c.Rounds {
		if r.Number != i+1 {
			t.Fatalf("round %d numbered %d", i, r.Number)
		}
		if r.Version != 1 {
			t.Fatalf("round %d starts at version %d, want 1", r.Number, r.Version)
		}
		if len(r.Questions) != 8 {
			t.Fatalf("round %d has %d questions, want 8", r.Number, len(r.Questions))
		}
		if r.Questions[0].Round != r.Number {
			t.Fatalf("question round copy %d, want %d", r.Questions[0].Round, r.Number)
		}
	}
}

func TestAnswerStatusValid(t *testing.T) {
	for _, s := range []AnswerStatus{StatusNotCalledIn, StatusCalling, StatusIncorrect, StatusPartial, StatusCorrect} {
		if !s.Valid() {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if AnswerStatus("Duplicate").Valid() {
		t.Fatalf("unknown status accepted")
	}
}
