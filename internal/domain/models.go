package domain

import "time"

// Answer is one entry in a round's answer queue. Its queue index is its
// identity; entries are never removed, only re-marked.
type Answer struct {
	QNumber    int          `json:"qNumber"`
	Status     AnswerStatus `json:"status"`
	Timestamp  time.Time    `json:"timestamp"`
	AnswerText string       `json:"answerText"`
	Submitter  string       `json:"submitter"`
	// Confidence is the submitter's 1..5 self-rating, or -1 when unset.
	Confidence int    `json:"confidence"`
	Caller     string `json:"caller"`
	Operator   string `json:"operator"`
}

// Question is one question slot within a round. Round is the number of the
// owning round, copied at construction; it exists for display lookups only.
type Question struct {
	Round      int    `json:"-"`
	Number     int    `json:"number"`
	BeenOpen   bool   `json:"beenOpen"`
	Open       bool   `json:"open"`
	Value      int    `json:"value"`
	Text       string `json:"text"`
	AnswerText string `json:"answerText"`
	Correct    bool   `json:"correct"`
	Submitter  string `json:"submitter"`
	Operator   string `json:"operator"`
}

// Earned returns the question's point value if it has been answered
// correctly, otherwise 0.
func (q Question) Earned() int {
	if q.Correct {
		return q.Value
	}
	return 0
}

// Round is the serializable state of one contest round: its question slots,
// its answer queue, per-round flags, and the version counter the sync
// protocol compares.
type Round struct {
	Number          int        `json:"number"`
	Speed           bool       `json:"speed"`
	Announced       bool       `json:"announced"`
	AnnouncedScore  int        `json:"announcedScore"`
	AnnouncedPlace  int        `json:"announcedPlace"`
	DiscrepancyText string     `json:"discrepancyText"`
	Version         int64      `json:"version"`
	Questions       []Question `json:"questions"`
	AnswerQueue     []Answer   `json:"answerQueue"`
}

// NewRound builds an empty round with question slots 1..nQuestions. The
// version starts at 1 so a first-contact client (all-zero vector) sees every
// round as changed.
func NewRound(number, nQuestions int) Round {
	questions := make([]Question, nQuestions)
	for i := range questions {
		questions[i] = Question{Round: number, Number: i + 1}
	}
	return Round{Number: number, Version: 1, Questions: questions}
}

// TotalValue is the sum of point values across all questions in the round.
func (r Round) TotalValue() int {
	total := 0
	for _, q := range r.Questions {
		total += q.Value
	}
	return total
}

// TotalEarned is the sum of earned points across all questions in the round.
func (r Round) TotalEarned() int {
	total := 0
	for _, q := range r.Questions {
		total += q.Earned()
	}
	return total
}

// NextToOpen returns the lowest question number that has never been opened,
// or 0 when every slot has been open at least once. It is a suggestion for
// operators, not an ordering constraint.
func (r Round) NextToOpen() int {
	for _, q := range r.Questions {
		if !q.BeenOpen {
			return q.Number
		}
	}
	return 0
}

// Clone returns a deep copy of the round; the sync protocol hands clones to
// clients so their copies never alias live server state.
func (r Round) Clone() Round {
	out := r
	out.Questions = append([]Question(nil), r.Questions...)
	out.AnswerQueue = append([]Answer(nil), r.AnswerQueue...)
	return out
}

// Contest is the serializable state of the whole contest, mirroring the
// persisted snapshot layout.
type Contest struct {
	ID           string  `json:"id"`
	Teams        int     `json:"teams"`
	CurrentRound int     `json:"currentRound"`
	Rounds       []Round `json:"rounds"`
}

// NewContest pre-allocates all rounds for a contest; the current round
// starts at 1 and only ever advances.
func NewContest(id string, teams, nRounds, nQuestions int) Contest {
	rounds := make([]Round, nRounds)
	for i := range rounds {
		rounds[i] = NewRound(i+1, nQuestions)
	}
	return Contest{ID: id, Teams: teams, CurrentRound: 1, Rounds: rounds}
}
