package redis

import (
	"testing"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	set := app.BuildQuestionSet([]domain.Option{3}, nil)
	session, err := app.NewSession("s-1", "quiz-1", set, app.SessionOptions{SecondsPerQuestion: 10})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	store.Put(session)
	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s-1"); got != "quiz-1" {
		t.Fatalf("expected quiz id as marker value, got %q", got)
	}
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s-1")
	if mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreMarkerOutlivesCountdown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 10*time.Minute)

	answers := make([]domain.Option, 50)
	for i := range answers {
		answers[i] = 1
	}
	session, err := app.NewSession("s-long", "quiz-1", app.BuildQuestionSet(answers, nil), app.SessionOptions{SecondsPerQuestion: 180})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if session.Remaining() != 9000 {
		t.Fatalf("expected 9000s countdown, got %d", session.Remaining())
	}

	store.Put(session)
	mr.FastForward(11 * time.Minute)
	if !mr.Exists("quiz:session:s-long") {
		t.Fatalf("expected marker to survive past the slack while the countdown runs")
	}
	mr.FastForward(9000 * time.Second)
	if mr.Exists("quiz:session:s-long") {
		t.Fatalf("expected marker to expire after countdown plus slack")
	}
}
