package domain

import (
	"fmt"
	"time"
)

// Option is a numeric answer choice. NoAnswer marks an unanswered slot.
type Option int

const NoAnswer Option = 0

// DefaultOptions is the fixed option set offered by every question.
var DefaultOptions = []Option{1, 2, 3, 4, 5}

// ReportFileName is the name of the downloadable report artifact.
const ReportFileName = "quiz-report.txt"

// ImageRef maps a pre-shuffle question index to its image resource.
func ImageRef(index int) string {
	return fmt.Sprintf("questions/%d.PNG", index+1)
}

// Question is an image-based question with exactly one correct option.
type Question struct {
	ID       int      `json:"id"` // pre-shuffle index
	ImageRef string   `json:"imageRef"`
	Options  []Option `json:"options"`
	Correct  Option   `json:"-"`
}

// Offers reports whether opt belongs to the question's option set.
func (q Question) Offers(opt Option) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// QuestionSet is the shuffled, immutable question order of one session.
type QuestionSet struct {
	questions []Question
}

func NewQuestionSet(questions []Question) QuestionSet {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return QuestionSet{questions: qs}
}

func (s QuestionSet) Len() int { return len(s.questions) }

func (s QuestionSet) At(i int) Question { return s.questions[i] }

// CorrectAnswers lists the correct option of each question in presentation order.
func (s QuestionSet) CorrectAnswers() []Option {
	out := make([]Option, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Correct
	}
	return out
}

// AnswerKey is a raw newline-delimited answer source as stored in a backend.
// Answers is filled by caches that parse on load.
type AnswerKey struct {
	QuizID  string   `json:"quizId"`
	Body    string   `json:"body"`
	Answers []Option `json:"-"`
}

// QuestionView is what a view needs to render the current question.
type QuestionView struct {
	Index    int      `json:"index"`
	Number   int      `json:"number"`
	ImageRef string   `json:"imageRef"`
	Options  []Option `json:"options"`
	Selected Option   `json:"selected,omitempty"`
	Guessed  bool     `json:"guessed"`
}

// PaletteEntry is the per-question status shown in the navigation palette.
type PaletteEntry struct {
	Number   int  `json:"number"`
	Answered bool `json:"answered"`
	Guessed  bool `json:"guessed"`
}

// Snapshot is a read-only copy of session state for rendering.
type Snapshot struct {
	SessionID string         `json:"sessionId"`
	QuizID    string         `json:"quizId"`
	Total     int            `json:"total"`
	Current   QuestionView   `json:"current"`
	Remaining int            `json:"remaining"`
	Clock     string         `json:"clock"`
	Paused    bool           `json:"paused"`
	Submitted bool           `json:"submitted"`
	Palette   []PaletteEntry `json:"palette"`
	TakenAt   time.Time      `json:"takenAt"`
}

// FormatClock renders remaining seconds as M:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Attempt is the final per-question state used for scoring.
type Attempt struct {
	Selected []Option
	Guessed  []bool
	Seconds  []int
}

// Summary aggregates the outcome of an attempt.
type Summary struct {
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Wrong       int     `json:"wrong"`
	Attempted   int     `json:"attempted"`
	Unattempted int     `json:"unattempted"`
	Percentage  float64 `json:"percentage"`
}

// ReportRow is one missed or guessed question in the review sheet.
type ReportRow struct {
	Number  int    `json:"number"`
	Answer  Option `json:"answer"`
	Correct Option `json:"correct"`
	Seconds int    `json:"seconds"`
	Guessed bool   `json:"guessed"`
}

// Report is the plain-text review sheet produced at submission.
type Report struct {
	SessionID string      `json:"sessionId"`
	FileName  string      `json:"fileName"`
	Summary   Summary     `json:"summary"`
	Rows      []ReportRow `json:"rows"`
	Body      string      `json:"body"`
}

// Result is what submission yields; it never changes once produced.
type Result struct {
	Summary     Summary   `json:"summary"`
	Report      Report    `json:"report"`
	Auto        bool      `json:"auto"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// EventType names a session change notification.
type EventType string

const (
	EventQuestion  EventType = "question"
	EventAnswer    EventType = "answer"
	EventGuess     EventType = "guess"
	EventPaused    EventType = "paused"
	EventResumed   EventType = "resumed"
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
)

// Event is pushed to session subscribers after every state change.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
	Result   *Result   `json:"result,omitempty"`
}
