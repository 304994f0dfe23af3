package app_test

import (
	"testing"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/clock"
	"countdown-quiz/internal/domain"
	"github.com/rs/zerolog"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// keepOrder never swaps, so questions stay in answer-source order.
type keepOrder struct{}

func (keepOrder) Intn(n int) int { return n - 1 }

func newTestSession(t *testing.T, body string, n, seconds int) (*app.Session, *clock.Manual) {
	t.Helper()
	answers, err := app.ParseAnswerKey(body, n)
	if err != nil {
		t.Fatalf("parse answers: %v", err)
	}
	c := clock.NewManual(epoch)
	session, err := app.NewSession("s-1", "quiz-1", app.BuildQuestionSet(answers, keepOrder{}), app.SessionOptions{
		SecondsPerQuestion: seconds,
		Clock:              c,
		Logger:             zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session, c
}

func mustLoad(t *testing.T, s *app.Session, index int) domain.QuestionView {
	t.Helper()
	view, err := s.LoadQuestion(index)
	if err != nil {
		t.Fatalf("load question %d: %v", index, err)
	}
	return view
}
