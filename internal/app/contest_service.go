package app

import (
	"context"
	"time"

	"trivia-contest-service/internal/domain"
)

// PresenceRepository records which users have recently issued calls
// (in-memory, Redis, etc).
type PresenceRepository interface {
	Touch(ctx context.Context, user string) error
	Active(ctx context.Context, window time.Duration) ([]string, error)
}

// SnapshotRepository persists and reloads whole-contest snapshots.
type SnapshotRepository interface {
	Save(ctx context.Context, snap domain.Contest) error
	Load(ctx context.Context, contestID string) (domain.Contest, error)
}

// ContestService is the only surface through which contest state changes.
// Every workflow call validates coarse bounds, performs the mutation through
// the owning round, and relies on that round's single version bump.
type ContestService struct {
	trivia    *Trivia
	presence  PresenceRepository
	snapshots SnapshotRepository
	now       func() time.Time
}

func NewContestService(trivia *Trivia, presence PresenceRepository, snapshots SnapshotRepository) *ContestService {
	return &ContestService{trivia: trivia, presence: presence, snapshots: snapshots, now: time.Now}
}

// NewContestServiceWithClock is test-only for deterministic timestamps.
func NewContestServiceWithClock(trivia *Trivia, presence PresenceRepository, snapshots SnapshotRepository, now func() time.Time) *ContestService {
	return &ContestService{trivia: trivia, presence: presence, snapshots: snapshots, now: now}
}

// touch records workflow activity for the user list; a presence failure
// never fails the workflow call itself.
func (s *ContestService) touch(ctx context.Context, user string) {
	if user == "" {
		return
	}
	_ = s.presence.Touch(ctx, user)
}

// GetChangedRounds returns deep copies of every round whose version differs
// from the client's cached vector. Repeating the poll until it comes back
// empty converges the client on the server copy; a mutation racing a poll is
// caught on the next one.
func (s *ContestService) GetChangedRounds(_ context.Context, clientVersions []int64) ([]domain.Round, error) {
	return s.trivia.changed(clientVersions)
}

// CurrentRound is reported separately from the change set because advancing
// the pointer does not by itself change any round's version.
func (s *ContestService) CurrentRound() int {
	return s.trivia.CurrentRound()
}

// UserList returns users who issued a workflow call within the window.
func (s *ContestService) UserList(ctx context.Context, window time.Duration) ([]string, error) {
	return s.presence.Active(ctx, window)
}

// NextToOpen suggests the lowest never-opened question of the current round.
func (s *ContestService) NextToOpen() int {
	return s.trivia.currentLive().snapshot().NextToOpen()
}

// OpenQuestion opens a question slot in the current round, recording its
// point value and text.
func (s *ContestService) OpenQuestion(ctx context.Context, user string, qNumber, value int, text string) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		q, err := questionAt(r, qNumber)
		if err != nil {
			return err
		}
		q.Open = true
		q.BeenOpen = true
		q.Value = value
		q.Text = text
		return nil
	})
}

// CloseQuestion closes a question in the current round, recording the
// official answer. Correctness defaults to false.
func (s *ContestService) CloseQuestion(ctx context.Context, user string, qNumber int, answerText string) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		q, err := questionAt(r, qNumber)
		if err != nil {
			return err
		}
		q.Open = false
		q.AnswerText = answerText
		return nil
	})
}

// MarkQuestionCorrect closes a question with credit, recording the answer
// text and who earned it.
func (s *ContestService) MarkQuestionCorrect(ctx context.Context, user string, qNumber int, answerText, submitter, operator string) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		q, err := questionAt(r, qNumber)
		if err != nil {
			return err
		}
		creditQuestion(q, answerText, submitter, operator)
		return nil
	})
}

// MarkQuestionIncorrect flips the correctness flag off without touching the
// open/closed state. Used to take back mistaken credit.
func (s *ContestService) MarkQuestionIncorrect(ctx context.Context, user string, qNumber int) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		q, err := questionAt(r, qNumber)
		if err != nil {
			return err
		}
		q.Correct = false
		return nil
	})
}

// EditQuestion rewrites an already-opened question's value and text in
// place, leaving its open/correct state alone.
func (s *ContestService) EditQuestion(ctx context.Context, user string, qNumber, value int, text string) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		q, err := questionAt(r, qNumber)
		if err != nil {
			return err
		}
		q.Value = value
		q.Text = text
		return nil
	})
}

// ResetQuestion returns a question slot to its never-opened state.
func (s *ContestService) ResetQuestion(ctx context.Context, user string, qNumber int) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		q, err := questionAt(r, qNumber)
		if err != nil {
			return err
		}
		*q = domain.Question{Round: r.Number, Number: q.Number}
		return nil
	})
}

// RemapQuestion moves a question's recorded state from one slot to another
// within the current round, resetting the source slot and re-pointing queue
// entries, all under one version bump.
func (s *ContestService) RemapQuestion(ctx context.Context, user string, from, to int) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		src, err := questionAt(r, from)
		if err != nil {
			return err
		}
		dst, err := questionAt(r, to)
		if err != nil {
			return err
		}
		if from == to {
			return nil
		}
		*dst = *src
		dst.Number = to
		*src = domain.Question{Round: r.Number, Number: from}
		for i := range r.AnswerQueue {
			if r.AnswerQueue[i].QNumber == from {
				r.AnswerQueue[i].QNumber = to
			}
		}
		return nil
	})
}

// ProposeAnswer appends a proposed answer to the current round's queue and
// returns its permanent queue index.
func (s *ContestService) ProposeAnswer(ctx context.Context, user string, qNumber int, text, submitter string, confidence int) (int, error) {
	s.touch(ctx, user)
	if confidence < 1 {
		confidence = -1
	}
	queueIndex := -1
	err := s.trivia.currentLive().mutate(func(r *domain.Round) error {
		if _, err := questionAt(r, qNumber); err != nil {
			return err
		}
		r.AnswerQueue = append(r.AnswerQueue, domain.Answer{
			QNumber:    qNumber,
			Status:     domain.StatusNotCalledIn,
			Timestamp:  s.now(),
			AnswerText: text,
			Submitter:  submitter,
			Confidence: confidence,
		})
		queueIndex = len(r.AnswerQueue) - 1
		return nil
	})
	return queueIndex, err
}

// CallIn marks a queue entry as being phoned in by caller.
func (s *ContestService) CallIn(ctx context.Context, user string, queueIndex int, caller string) error {
	s.touch(ctx, user)
	return s.markAnswer(queueIndex, domain.StatusCalling, caller, "")
}

// MarkIncorrect records a rejected call-in. The caller field is cleared on
// the entry; the caller argument only feeds the activity list.
func (s *ContestService) MarkIncorrect(ctx context.Context, user string, queueIndex int, caller string) error {
	s.touch(ctx, user)
	s.touch(ctx, caller)
	return s.markAnswer(queueIndex, domain.StatusIncorrect, "", "")
}

// MarkPartial records partial credit for a call-in.
func (s *ContestService) MarkPartial(ctx context.Context, user string, queueIndex int, caller string) error {
	s.touch(ctx, user)
	s.touch(ctx, caller)
	return s.markAnswer(queueIndex, domain.StatusPartial, "", "")
}

// MarkCorrect records an accepted call-in and credits the answer's question
// in the same round mutation, so one poll cycle picks up both.
func (s *ContestService) MarkCorrect(ctx context.Context, user string, queueIndex int, caller, operator string) error {
	s.touch(ctx, user)
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		a, err := answerAt(r, queueIndex)
		if err != nil {
			return err
		}
		q, err := questionAt(r, a.QNumber)
		if err != nil {
			return err
		}
		a.Status = domain.StatusCorrect
		a.Caller = caller
		a.Operator = operator
		creditQuestion(q, a.AnswerText, a.Submitter, operator)
		return nil
	})
}

// MarkUncalled resets a queue entry to its initial state. Entries are never
// deleted, so this is how clerical mistakes are unwound.
func (s *ContestService) MarkUncalled(ctx context.Context, user string, queueIndex int) error {
	s.touch(ctx, user)
	return s.markAnswer(queueIndex, domain.StatusNotCalledIn, "", "")
}

// markAnswer applies one answer-status transition. No transition is rejected
// based on the current status; the last write wins.
func (s *ContestService) markAnswer(queueIndex int, status domain.AnswerStatus, caller, operator string) error {
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		a, err := answerAt(r, queueIndex)
		if err != nil {
			return err
		}
		a.Status = status
		a.Caller = caller
		a.Operator = operator
		return nil
	})
}

// SetSpeed flags the current round as a speed round.
func (s *ContestService) SetSpeed(ctx context.Context, user string) error {
	s.touch(ctx, user)
	return s.setSpeed(true)
}

// UnsetSpeed clears the current round's speed flag.
func (s *ContestService) UnsetSpeed(ctx context.Context, user string) error {
	s.touch(ctx, user)
	return s.setSpeed(false)
}

func (s *ContestService) setSpeed(on bool) error {
	return s.trivia.currentLive().mutate(func(r *domain.Round) error {
		r.Speed = on
		return nil
	})
}

// NewRound advances the current-round pointer. Past the last round it is a
// no-op, not an error.
func (s *ContestService) NewRound(ctx context.Context, user string) {
	s.touch(ctx, user)
	s.trivia.advance()
}

// SetAnnounced records the emcee-announced score and place for a round. The
// value may legitimately disagree with the computed score; see ScoreConflict.
func (s *ContestService) SetAnnounced(ctx context.Context, user string, rNumber, score, place int) error {
	s.touch(ctx, user)
	r, err := s.trivia.round(rNumber)
	if err != nil {
		return err
	}
	return r.mutate(func(r *domain.Round) error {
		r.Announced = true
		r.AnnouncedScore = score
		r.AnnouncedPlace = place
		return nil
	})
}

// SetDiscrepancyText records a free-text note about a scoring discrepancy.
func (s *ContestService) SetDiscrepancyText(ctx context.Context, user string, rNumber int, text string) error {
	s.touch(ctx, user)
	r, err := s.trivia.round(rNumber)
	if err != nil {
		return err
	}
	return r.mutate(func(r *domain.Round) error {
		r.DiscrepancyText = text
		return nil
	})
}

// CumulativeValue sums question values over rounds 1..rNumber.
func (s *ContestService) CumulativeValue(rNumber int) (int, error) {
	return s.trivia.cumulativeValue(rNumber)
}

// CumulativeEarned sums earned points over rounds 1..rNumber.
func (s *ContestService) CumulativeEarned(rNumber int) (int, error) {
	return s.trivia.cumulativeEarned(rNumber)
}

// ScoreConflict reports whether a round's announced score disagrees with the
// computed cumulative earned score. It is derived state, not an error.
func (s *ContestService) ScoreConflict(rNumber int) (bool, error) {
	return s.trivia.scoreConflict(rNumber)
}

// Snapshot deep-copies the whole contest.
func (s *ContestService) Snapshot() domain.Contest {
	return s.trivia.snapshot()
}

// SaveState persists the current contest snapshot.
func (s *ContestService) SaveState(ctx context.Context) error {
	return s.snapshots.Save(ctx, s.trivia.snapshot())
}

// LoadState replaces contest state from the saved snapshot and bumps every
// restored round's version so clients re-fetch everything.
func (s *ContestService) LoadState(ctx context.Context) error {
	saved, err := s.snapshots.Load(ctx, s.trivia.id)
	if err != nil {
		return err
	}
	s.trivia.restore(saved)
	return nil
}

// creditQuestion closes a question slot with credit.
func creditQuestion(q *domain.Question, answerText, submitter, operator string) {
	q.Open = false
	q.BeenOpen = true
	q.Correct = true
	q.AnswerText = answerText
	q.Submitter = submitter
	q.Operator = operator
}
