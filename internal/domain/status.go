package domain

// AnswerStatus is the workflow state of a proposed answer. The set is closed;
// transitions are driven only by the explicit workflow operations and any
// status may be overwritten by a later operation (last writer wins).
type AnswerStatus string

const (
	// StatusNotCalledIn is the initial state of every proposed answer, and
	// the state an answer returns to when an operator resets it.
	StatusNotCalledIn AnswerStatus = "NotCalledIn"
	// StatusCalling means a caller has picked the answer up and is phoning
	// it in.
	StatusCalling AnswerStatus = "Calling"
	// StatusIncorrect means the answer was called in and rejected.
	StatusIncorrect AnswerStatus = "Incorrect"
	// StatusPartial means the answer was called in and received partial
	// credit.
	StatusPartial AnswerStatus = "Partial"
	// StatusCorrect means the answer was called in and accepted.
	StatusCorrect AnswerStatus = "Correct"
)

// Valid reports whether s is one of the five known statuses.
func (s AnswerStatus) Valid() bool {
	switch s {
	case StatusNotCalledIn, StatusCalling, StatusIncorrect, StatusPartial, StatusCorrect:
		return true
	}
	return false
}
