package app

import (
	"sync"

	"trivia-contest-service/internal/domain"
)

// Trivia is the single authoritative contest aggregate. All rounds are
// pre-allocated at construction; the current-round pointer only advances
// during normal operation. There is deliberately no cross-round transaction:
// concurrent workflow calls against the same round serialize on that round's
// lock, and that is the strongest consistency the protocol needs.
type Trivia struct {
	id     string
	rounds []*liveRound

	mu      sync.Mutex
	teams   int
	current int
}

// NewTrivia builds the aggregate for a contest with nRounds rounds of
// nQuestions questions each.
func NewTrivia(id string, teams, nRounds, nQuestions int) *Trivia {
	rounds := make([]*liveRound, nRounds)
	for i := range rounds {
		rounds[i] = newLiveRound(i+1, nQuestions)
	}
	return &Trivia{id: id, rounds: rounds, teams: teams, current: 1}
}

func (t *Trivia) round(number int) (*liveRound, error) {
	if number < 1 || number > len(t.rounds) {
		return nil, domain.ErrRoundOutOfRange
	}
	return t.rounds[number-1], nil
}

// CurrentRound returns the current round number.
func (t *Trivia) CurrentRound() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// currentLive returns the live round the workflow surface targets.
func (t *Trivia) currentLive() *liveRound {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rounds[t.current-1]
}

// advance moves the current-round pointer forward by one. A request past the
// last round is a no-op, not an error.
func (t *Trivia) advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current < len(t.rounds) {
		t.current++
	}
}

// changed returns deep copies of every round whose version differs from the
// client's cached value. Missing vector entries count as zero (first
// contact); a vector longer than the round count is rejected.
func (t *Trivia) changed(clientVersions []int64) ([]domain.Round, error) {
	if len(clientVersions) > len(t.rounds) {
		return nil, domain.ErrVersionVectorTooLong
	}
	var out []domain.Round
	for i, r := range t.rounds {
		var cached int64
		if i < len(clientVersions) {
			cached = clientVersions[i]
		}
		if r.version() != cached {
			out = append(out, r.snapshot())
		}
	}
	return out, nil
}

// cumulativeValue sums question values over rounds 1..rNumber.
func (t *Trivia) cumulativeValue(rNumber int) (int, error) {
	if rNumber < 1 || rNumber > len(t.rounds) {
		return 0, domain.ErrRoundOutOfRange
	}
	total := 0
	for _, r := range t.rounds[:rNumber] {
		total += r.snapshot().TotalValue()
	}
	return total, nil
}

// cumulativeEarned sums earned points over rounds 1..rNumber.
func (t *Trivia) cumulativeEarned(rNumber int) (int, error) {
	if rNumber < 1 || rNumber > len(t.rounds) {
		return 0, domain.ErrRoundOutOfRange
	}
	total := 0
	for _, r := range t.rounds[:rNumber] {
		total += r.snapshot().TotalEarned()
	}
	return total, nil
}

// scoreConflict reports whether the announced score for a round disagrees
// with the internally computed cumulative earned score. It is derived on
// every call, so correcting either side clears it with no explicit reset.
func (t *Trivia) scoreConflict(rNumber int) (bool, error) {
	r, err := t.round(rNumber)
	if err != nil {
		return false, err
	}
	snap := r.snapshot()
	if !snap.Announced {
		return false, nil
	}
	earned, err := t.cumulativeEarned(rNumber)
	if err != nil {
		return false, err
	}
	return snap.AnnouncedScore != earned, nil
}

// snapshot deep-copies the whole aggregate into its serializable form.
func (t *Trivia) snapshot() domain.Contest {
	t.mu.Lock()
	teams, current := t.teams, t.current
	t.mu.Unlock()

	rounds := make([]domain.Round, len(t.rounds))
	for i, r := range t.rounds {
		rounds[i] = r.snapshot()
	}
	return domain.Contest{ID: t.id, Teams: teams, CurrentRound: current, Rounds: rounds}
}

// restore replaces contest state wholesale from a saved snapshot. Rounds
// beyond the snapshot (or beyond the contest) keep their live state; each
// restored round's version is bumped so clients re-fetch it.
func (t *Trivia) restore(saved domain.Contest) {
	for i, r := range t.rounds {
		if i < len(saved.Rounds) {
			r.restore(saved.Rounds[i])
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if saved.Teams > 0 {
		t.teams = saved.Teams
	}
	if saved.CurrentRound >= 1 && saved.CurrentRound <= len(t.rounds) {
		t.current = saved.CurrentRound
	}
}
