package app

import (
	"sync"

	"trivia-contest-service/internal/domain"
)

// liveRound owns the mutable state of one round behind a single mutex, the
// same granularity at which the sync protocol re-sends data.
type liveRound struct {
	mu    sync.Mutex
	state domain.Round
}

func newLiveRound(number, nQuestions int) *liveRound {
	return &liveRound{state: domain.NewRound(number, nQuestions)}
}

// mutate runs fn under the round lock and bumps the version counter only
// when fn commits. A rejected call leaves the version untouched so polling
// clients are not woken for nothing.
func (r *liveRound) mutate(fn func(*domain.Round) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(&r.state); err != nil {
		return err
	}
	r.state.Version++
	return nil
}

// snapshot returns a deep copy safe to hand to clients and serializers.
func (r *liveRound) snapshot() domain.Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

func (r *liveRound) version() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Version
}

// restore replaces the round's data wholesale from a saved snapshot. The
// version counter is carried forward past both the live and saved values so
// every client sees the round as changed on its next poll.
func (r *liveRound) restore(saved domain.Round) {
	r.mu.Lock()
	defer r.mu.Unlock()
	number := r.state.Number
	version := r.state.Version
	if saved.Version > version {
		version = saved.Version
	}
	r.state = saved.Clone()
	r.state.Number = number
	r.state.Version = version + 1
	// The round back-reference is not serialized; refill it.
	for i := range r.state.Questions {
		r.state.Questions[i].Round = number
		r.state.Questions[i].Number = i + 1
	}
}

func questionAt(r *domain.Round, qNumber int) (*domain.Question, error) {
	if qNumber < 1 || qNumber > len(r.Questions) {
		return nil, domain.ErrQuestionOutOfRange
	}
	return &r.Questions[qNumber-1], nil
}

func answerAt(r *domain.Round, queueIndex int) (*domain.Answer, error) {
	if queueIndex < 0 || queueIndex >= len(r.AnswerQueue) {
		return nil, domain.ErrQueueIndexOutOfRange
	}
	return &r.AnswerQueue[queueIndex], nil
}
