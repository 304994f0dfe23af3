package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"countdown-quiz/internal/clock"
	"countdown-quiz/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// AnswerKeyRepository loads answer keys (from cache/backing store).
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error)
}

// ReportRepository keeps submitted reports available for download.
type ReportRepository interface {
	SaveReport(ctx context.Context, report domain.Report) error
	GetReport(ctx context.Context, sessionID string) (domain.Report, error)
}

// Options configure every session the service starts.
type Options struct {
	Questions          int
	SecondsPerQuestion int
	Clock              clock.Clock
	Shuffler           Shuffler
	Logger             zerolog.Logger
	NewID              func() string
}

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions SessionRepository
	answers  AnswerKeyRepository
	reports  ReportRepository
	opts     Options
	log      zerolog.Logger

	// shuffleMu guards opts.Shuffler; *rand.Rand is not safe for concurrent use.
	shuffleMu sync.Mutex
}

func NewQuizService(sessions SessionRepository, answers AnswerKeyRepository, reports ReportRepository, opts Options) *QuizService {
	if opts.Questions <= 0 {
		opts.Questions = 50
	}
	if opts.SecondsPerQuestion <= 0 {
		opts.SecondsPerQuestion = 180
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Shuffler == nil {
		opts.Shuffler = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &QuizService{
		sessions: sessions,
		answers:  answers,
		reports:  reports,
		opts:     opts,
		log:      opts.Logger,
	}
}

// Start loads the answer key for quizID, builds a shuffled session, and
// starts its countdown. Load and parse errors surface before any question is
// shown.
func (s *QuizService) Start(ctx context.Context, quizID string) (*Session, error) {
	key, err := s.answers.GetAnswerKey(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load answer key %q: %w", quizID, err)
	}
	answers := key.Answers
	if len(answers) != s.opts.Questions {
		answers, err = ParseAnswerKey(key.Body, s.opts.Questions)
		if err != nil {
			return nil, fmt.Errorf("parse answer key %q: %w", quizID, err)
		}
	}

	s.shuffleMu.Lock()
	set := BuildQuestionSet(answers, s.opts.Shuffler)
	s.shuffleMu.Unlock()

	session, err := NewSession(s.opts.NewID(), quizID, set, SessionOptions{
		SecondsPerQuestion: s.opts.SecondsPerQuestion,
		Clock:              s.opts.Clock,
		Logger:             s.log,
	})
	if err != nil {
		return nil, err
	}
	session.OnSubmit(s.storeReport)

	s.sessions.Put(session)
	session.StartClock(context.Background())

	s.log.Info().
		Str("session", session.ID()).
		Str("quiz", quizID).
		Int("questions", set.Len()).
		Msg("session started")
	return session, nil
}

// Session looks up a live session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Submit submits a live session; repeated calls return the same result.
func (s *QuizService) Submit(_ context.Context, sessionID string) (domain.Result, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.Result{}, err
	}
	return session.Submit(), nil
}

// Report returns the stored report of a submitted session.
func (s *QuizService) Report(ctx context.Context, sessionID string) (domain.Report, error) {
	return s.reports.GetReport(ctx, sessionID)
}

// Close stops a session's countdown and forgets it. A stored report stays
// available.
func (s *QuizService) Close(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.StopClock()
	s.sessions.Delete(sessionID)
}

func (s *QuizService) storeReport(result domain.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.reports.SaveReport(ctx, result.Report); err != nil {
		s.log.Error().Err(err).Str("session", result.Report.SessionID).Msg("store report failed")
		return
	}
	s.log.Debug().Str("session", result.Report.SessionID).Msg("report stored")
}
