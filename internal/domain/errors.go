package domain

import "errors"

var (
	// ErrRoundOutOfRange is returned when a round number falls outside 1..nRounds.
	ErrRoundOutOfRange = errors.New("round number out of range")
	// ErrQuestionOutOfRange is returned when a question number falls outside
	// the round's question slots.
	ErrQuestionOutOfRange = errors.New("question number out of range")
	// ErrQueueIndexOutOfRange is returned when an answer queue index does not
	// name an existing entry.
	ErrQueueIndexOutOfRange = errors.New("answer queue index out of range")
	// ErrVersionVectorTooLong is returned when a sync request carries more
	// version entries than the contest has rounds.
	ErrVersionVectorTooLong = errors.New("version vector longer than round count")
	// ErrContestNotFound indicates no saved snapshot exists for the contest.
	ErrContestNotFound = errors.New("contest snapshot not found")
)
