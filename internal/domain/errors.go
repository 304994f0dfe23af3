package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionSubmitted is returned when a mutation reaches a submitted session.
	ErrSessionSubmitted = errors.New("quiz session already submitted")
	// ErrQuizNotFound indicates the answer key could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrReportNotFound indicates no report was stored for the session.
	ErrReportNotFound = errors.New("report not found")
	// ErrQuestionOutOfRange indicates a navigation target outside the question set.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrInvalidOption indicates a selected option is not offered by the question.
	ErrInvalidOption = errors.New("option not offered by question")
	// ErrAnswerKeyShort indicates the answer source has fewer values than questions.
	ErrAnswerKeyShort = errors.New("answer key has too few entries")
	// ErrAnswerKeyMalformed indicates an answer source line is not a valid option.
	ErrAnswerKeyMalformed = errors.New("answer key entry is malformed")
)
