package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"countdown-quiz/internal/clock"
	"countdown-quiz/internal/domain"
	"github.com/rs/zerolog"
)

// TickPeriod is how often the countdown advances.
const TickPeriod = time.Second

// SessionOptions are fixed at construction.
type SessionOptions struct {
	SecondsPerQuestion int
	Clock              clock.Clock
	Logger             zerolog.Logger
}

// Session is the state machine of one quiz attempt. Every intent and tick
// runs to completion under mu, one at a time.
type Session struct {
	id        string
	quizID    string
	questions domain.QuestionSet
	correct   []domain.Option
	clock     clock.Clock
	log       zerolog.Logger
	startedAt time.Time

	mu        sync.Mutex
	current   int
	selected  []domain.Option
	guessed   []bool
	spent     []time.Duration
	remaining int
	// paused gates both the countdown and per-question accounting.
	paused    bool
	anchor    time.Time
	anchored  bool
	submitted bool
	// finished is set once the submit hooks have returned.
	finished  bool
	result    domain.Result

	driver      *clock.Driver
	onSubmit    []func(domain.Result)
	subscribers map[chan domain.Event]struct{}
}

// NewSession builds a session over a ready question set and loads question 0.
func NewSession(id, quizID string, questions domain.QuestionSet, opts SessionOptions) (*Session, error) {
	if questions.Len() == 0 {
		return nil, fmt.Errorf("new session: %w", domain.ErrQuestionOutOfRange)
	}
	if opts.SecondsPerQuestion <= 0 {
		return nil, errors.New("new session: seconds per question must be positive")
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real{}
	}

	n := questions.Len()
	s := &Session{
		id:          id,
		quizID:      quizID,
		questions:   questions,
		correct:     questions.CorrectAnswers(),
		clock:       c,
		log:         opts.Logger.With().Str("session", id).Str("quiz", quizID).Logger(),
		selected:    make([]domain.Option, n),
		guessed:     make([]bool, n),
		spent:       make([]time.Duration, n),
		remaining:   n * opts.SecondsPerQuestion,
		subscribers: make(map[chan domain.Event]struct{}),
	}
	s.startedAt = c.Now()

	s.mu.Lock()
	s.loadLocked(0, s.startedAt)
	s.mu.Unlock()
	return s, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) QuizID() string { return s.quizID }
func (s *Session) Len() int       { return s.questions.Len() }

// StartClock launches the once-per-second countdown. Calling it again, or
// after submission, does nothing.
func (s *Session) StartClock(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver != nil || s.submitted {
		return
	}
	s.driver = clock.Start(ctx, s.clock, TickPeriod, s.Tick)
}

// StopClock cancels the countdown without submitting and waits for the tick
// goroutine to exit. It must not be called from a submit hook.
func (s *Session) StopClock() {
	s.mu.Lock()
	d := s.driver
	s.mu.Unlock()
	if d == nil {
		return
	}
	d.Stop()
	<-d.Done()
}

// LoadQuestion makes index the current question.
func (s *Session) LoadQuestion(index int) (domain.QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return domain.QuestionView{}, domain.ErrSessionSubmitted
	}
	if !s.inRange(index) {
		return domain.QuestionView{}, fmt.Errorf("load question %d of %d: %w", index, s.questions.Len(), domain.ErrQuestionOutOfRange)
	}
	s.loadLocked(index, s.clock.Now())
	return s.viewLocked(index), nil
}

// Next moves forward one question; at the last question it stays put.
func (s *Session) Next() (domain.QuestionView, error) {
	return s.step(1)
}

// Prev moves back one question; at the first question it stays put.
func (s *Session) Prev() (domain.QuestionView, error) {
	return s.step(-1)
}

func (s *Session) step(delta int) (domain.QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return domain.QuestionView{}, domain.ErrSessionSubmitted
	}
	target := s.current + delta
	if !s.inRange(target) {
		return s.viewLocked(s.current), nil
	}
	s.loadLocked(target, s.clock.Now())
	return s.viewLocked(target), nil
}

// SelectOption records opt as the answer to question index.
func (s *Session) SelectOption(index int, opt domain.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return domain.ErrSessionSubmitted
	}
	if !s.inRange(index) {
		return fmt.Errorf("select option for question %d: %w", index, domain.ErrQuestionOutOfRange)
	}
	if !s.questions.At(index).Offers(opt) {
		return fmt.Errorf("select option %d for question %d: %w", opt, index, domain.ErrInvalidOption)
	}
	s.selected[index] = opt
	s.broadcastLocked(domain.EventAnswer, nil)
	return nil
}

// SetGuessed stores the guess flag for question index; last write wins.
func (s *Session) SetGuessed(index int, guessed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return domain.ErrSessionSubmitted
	}
	if !s.inRange(index) {
		return fmt.Errorf("set guessed for question %d: %w", index, domain.ErrQuestionOutOfRange)
	}
	s.guessed[index] = guessed
	s.broadcastLocked(domain.EventGuess, nil)
	return nil
}

// Pause stops both the countdown and the current question's timer.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return domain.ErrSessionSubmitted
	}
	s.pauseLocked(s.clock.Now())
	return nil
}

// Resume restarts the countdown and reopens the current question's timer.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return domain.ErrSessionSubmitted
	}
	s.resumeLocked(s.clock.Now())
	return nil
}

// TogglePause flips between running and paused and reports the new state.
func (s *Session) TogglePause() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return s.paused, domain.ErrSessionSubmitted
	}
	now := s.clock.Now()
	if s.paused {
		s.resumeLocked(now)
	} else {
		s.pauseLocked(now)
	}
	return s.paused, nil
}

// Tick advances the countdown by one second and submits at zero.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.submitted || s.paused {
		s.mu.Unlock()
		return
	}
	s.remaining--
	if s.remaining > 0 {
		s.broadcastLocked(domain.EventTick, nil)
		s.mu.Unlock()
		return
	}
	s.remaining = 0
	s.log.Info().Msg("time is up, submitting")
	result, fired := s.submitLocked(true)
	hooks := s.onSubmit
	s.mu.Unlock()

	if fired {
		s.finishSubmit(hooks, result)
	}
}

// Submit finalizes the session. Later calls return the same result and
// change nothing.
func (s *Session) Submit() domain.Result {
	s.mu.Lock()
	result, fired := s.submitLocked(false)
	hooks := s.onSubmit
	s.mu.Unlock()

	if fired {
		s.finishSubmit(hooks, result)
	}
	return result
}

// OnSubmit registers fn to run once after submission, outside the session
// lock. If the session is already submitted fn runs immediately.
func (s *Session) OnSubmit(fn func(domain.Result)) {
	s.mu.Lock()
	if s.submitted {
		result := s.result
		s.mu.Unlock()
		fn(result)
		return
	}
	s.onSubmit = append(s.onSubmit, fn)
	s.mu.Unlock()
}

// Result returns the submission result once the session is submitted.
func (s *Session) Result() (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.submitted
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// TimeSpent is the flushed time of question index; the open interval of the
// current question is not included.
func (s *Session) TimeSpent(index int) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inRange(index) {
		return 0
	}
	return s.spent[index]
}

// OpenInterval is the unflushed time of the current question.
func (s *Session) OpenInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.anchored {
		return 0
	}
	if d := s.clock.Now().Sub(s.anchor); d > 0 {
		return d
	}
	return 0
}

// Snapshot copies the state a view needs to render.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of change events starting with the current
// state. The caller must invoke cancel to release it.
func (s *Session) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := domain.Event{Type: domain.EventQuestion, Snapshot: s.snapshotLocked()}
	if s.finished {
		result := s.result
		initial = domain.Event{Type: domain.EventSubmitted, Snapshot: initial.Snapshot, Result: &result}
	}
	ch <- initial
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) inRange(index int) bool {
	return index >= 0 && index < s.questions.Len()
}

func (s *Session) loadLocked(index int, now time.Time) {
	s.flushLocked(now)
	s.current = index
	if !s.paused {
		s.anchor = now
		s.anchored = true
	}
	s.broadcastLocked(domain.EventQuestion, nil)
}

func (s *Session) pauseLocked(now time.Time) {
	if s.paused {
		return
	}
	s.flushLocked(now)
	s.anchored = false
	s.paused = true
	s.broadcastLocked(domain.EventPaused, nil)
}

func (s *Session) resumeLocked(now time.Time) {
	if !s.paused {
		return
	}
	s.paused = false
	s.anchor = now
	s.anchored = true
	s.broadcastLocked(domain.EventResumed, nil)
}

// flushLocked commits the open interval to the current question and moves the
// anchor to now. Negative intervals count as zero.
func (s *Session) flushLocked(now time.Time) {
	if !s.anchored {
		return
	}
	elapsed := now.Sub(s.anchor)
	if elapsed < 0 {
		s.log.Warn().
			Int("question", s.current).
			Dur("elapsed", elapsed).
			Msg("clock anomaly: negative interval clamped to zero")
		elapsed = 0
	}
	s.spent[s.current] += elapsed
	s.anchor = now
}

func (s *Session) submitLocked(auto bool) (domain.Result, bool) {
	if s.submitted {
		return s.result, false
	}
	s.driver.Stop()

	now := s.clock.Now()
	s.flushLocked(now)
	s.anchored = false

	report := GenerateReport(s.attemptLocked(), s.correct)
	report.SessionID = s.id
	s.result = domain.Result{
		Summary:     report.Summary,
		Report:      report,
		Auto:        auto,
		SubmittedAt: now,
	}
	s.submitted = true

	s.log.Info().
		Bool("auto", auto).
		Int("correct", report.Summary.Correct).
		Int("wrong", report.Summary.Wrong).
		Float64("percentage", report.Summary.Percentage).
		Msg("session submitted")

	return s.result, true
}

// finishSubmit runs the submit hooks and only then announces the submission,
// so subscribers never see it before the report is stored.
func (s *Session) finishSubmit(hooks []func(domain.Result), result domain.Result) {
	runHooks(hooks, result)

	s.mu.Lock()
	s.finished = true
	s.broadcastLocked(domain.EventSubmitted, &result)
	s.mu.Unlock()
}

func (s *Session) attemptLocked() domain.Attempt {
	n := s.questions.Len()
	attempt := domain.Attempt{
		Selected: make([]domain.Option, n),
		Guessed:  make([]bool, n),
		Seconds:  make([]int, n),
	}
	copy(attempt.Selected, s.selected)
	copy(attempt.Guessed, s.guessed)
	for i, d := range s.spent {
		attempt.Seconds[i] = int(d / time.Second)
	}
	return attempt
}

func (s *Session) viewLocked(index int) domain.QuestionView {
	q := s.questions.At(index)
	opts := make([]domain.Option, len(q.Options))
	copy(opts, q.Options)
	return domain.QuestionView{
		Index:    index,
		Number:   index + 1,
		ImageRef: q.ImageRef,
		Options:  opts,
		Selected: s.selected[index],
		Guessed:  s.guessed[index],
	}
}

func (s *Session) snapshotLocked() domain.Snapshot {
	palette := make([]domain.PaletteEntry, s.questions.Len())
	for i := range palette {
		palette[i] = domain.PaletteEntry{
			Number:   i + 1,
			Answered: s.selected[i] != domain.NoAnswer,
			Guessed:  s.guessed[i],
		}
	}
	return domain.Snapshot{
		SessionID: s.id,
		QuizID:    s.quizID,
		Total:     s.questions.Len(),
		Current:   s.viewLocked(s.current),
		Remaining: s.remaining,
		Clock:     domain.FormatClock(s.remaining),
		Paused:    s.paused,
		Submitted: s.submitted,
		Palette:   palette,
		TakenAt:   s.clock.Now(),
	}
}

func (s *Session) broadcastLocked(typ domain.EventType, result *domain.Result) {
	if len(s.subscribers) == 0 {
		return
	}
	evt := domain.Event{Type: typ, Snapshot: s.snapshotLocked(), Result: result}
	for ch := range s.subscribers {
		select {
		case ch <- evt:
		default:
			// Slow subscriber: drop the oldest event so the latest state wins.
			select {
			case <-ch:
			default:
			}
			ch <- evt
		}
	}
}

func runHooks(hooks []func(domain.Result), result domain.Result) {
	for _, fn := range hooks {
		fn(result)
	}
}
