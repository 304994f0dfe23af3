package app_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/clock"
	"countdown-quiz/internal/domain"
	"countdown-quiz/internal/infra/memory"
	"github.com/rs/zerolog"
)

func TestStartAndSubmitStoresReport(t *testing.T) {
	ctx := context.Background()
	service, sessions, _ := newTestService()

	session, err := service.Start(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID() != "session-1" || session.Len() != 3 || session.Remaining() != 15 {
		t.Fatalf("unexpected session %s len=%d remaining=%d", session.ID(), session.Len(), session.Remaining())
	}
	if got, err := service.Session("session-1"); err != nil || got != session {
		t.Fatalf("expected session lookup, got %v", err)
	}

	if _, err := service.Report(ctx, "session-1"); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("expected no report before submit, got %v", err)
	}

	_ = session.SelectOption(0, 2)
	result, err := service.Submit(ctx, "session-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Summary.Correct != 1 || result.Summary.Unattempted != 2 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}

	report, err := service.Report(ctx, "session-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.FileName != domain.ReportFileName || !strings.Contains(report.Body, "Quiz Report") {
		t.Fatalf("unexpected report %+v", report)
	}

	service.Close(ctx, "session-1")
	if _, ok := sessions.Get("session-1"); ok {
		t.Fatalf("expected session dropped on close")
	}
	if _, err := service.Report(ctx, "session-1"); err != nil {
		t.Fatalf("expected report to outlive session, got %v", err)
	}
}

func TestStartFailsBeforeShowingQuestions(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	if _, err := service.Start(ctx, "unknown"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if _, err := service.Start(ctx, "short"); !errors.Is(err, domain.ErrAnswerKeyShort) {
		t.Fatalf("expected short key error, got %v", err)
	}
	if _, err := service.Start(ctx, "garbled"); !errors.Is(err, domain.ErrAnswerKeyMalformed) {
		t.Fatalf("expected malformed key error, got %v", err)
	}
	if _, err := service.Session("session-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected no sessions after failed starts, got %v", err)
	}
}

func TestTimeoutStoresReport(t *testing.T) {
	ctx := context.Background()
	service, _, c := newTestService()

	session, err := service.Start(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events, cancel := session.Subscribe()
	defer cancel()

	for i := 0; i < 15; i++ {
		c.Tick()
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-events:
			if evt.Type != domain.EventSubmitted {
				continue
			}
			if !evt.Result.Auto {
				t.Fatalf("expected automatic submission")
			}
			// Hooks finish before the event is published.
			if _, err := service.Report(ctx, session.ID()); err != nil {
				t.Fatalf("expected stored report, got %v", err)
			}
			return
		case <-deadline:
			t.Fatalf("expected submission at zero, remaining=%d", session.Remaining())
		}
	}
}

func TestCloseStopsCountdown(t *testing.T) {
	ctx := context.Background()
	service, _, c := newTestService()

	session, err := service.Start(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Tick()
	service.Close(ctx, session.ID())

	if n := c.Tick(); n != 0 {
		t.Fatalf("expected countdown stopped after close, tick delivered to %d", n)
	}
	if session.Remaining() != 14 || session.Submitted() {
		t.Fatalf("expected frozen countdown at 14s, got %d submitted=%v", session.Remaining(), session.Submitted())
	}
}

func TestUnknownSession(t *testing.T) {
	service, _, _ := newTestService()
	if _, err := service.Session("nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := service.Submit(context.Background(), "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	service.Close(context.Background(), "nope")
}

func newTestService() (*app.QuizService, *memory.SessionStore, *clock.Manual) {
	sessionStore := memory.NewSessionStore()
	answerRepo := memory.NewAnswerKeyRepository(memory.NewStaticAnswerKeyLoader(map[string]string{
		"quiz-1":  "2\n4\n1",
		"short":   "1\n2",
		"garbled": "1\nB\n3",
	}), 3, 5*time.Minute)
	c := clock.NewManual(epoch)
	ids := 0
	service := app.NewQuizService(sessionStore, answerRepo, memory.NewReportStore(), app.Options{
		Questions:          3,
		SecondsPerQuestion: 5,
		Clock:              c,
		Shuffler:           keepOrder{},
		Logger:             zerolog.Nop(),
		NewID: func() string {
			ids++
			return "session-" + strconv.Itoa(ids)
		},
	})
	return service, sessionStore, c
}
