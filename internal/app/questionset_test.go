package app_test

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
)

func TestParseAnswerKey(t *testing.T) {
	answers, err := app.ParseAnswerKey("2\r\n4\r\n1\r\n5\n", 3)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []domain.Option{2, 4, 1}
	for i := range want {
		if answers[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, answers)
		}
	}
}

func TestParseAnswerKeyFailures(t *testing.T) {
	cases := []struct {
		body string
		want error
	}{
		{"", domain.ErrAnswerKeyShort},
		{"1\n2", domain.ErrAnswerKeyShort},
		{"1\nx\n3", domain.ErrAnswerKeyMalformed},
		{"1\n\n3", domain.ErrAnswerKeyMalformed},
		{"1\n7\n3", domain.ErrAnswerKeyMalformed},
		{"0\n1\n3", domain.ErrAnswerKeyMalformed},
	}
	for _, tc := range cases {
		if _, err := app.ParseAnswerKey(tc.body, 3); !errors.Is(err, tc.want) {
			t.Fatalf("body %q: expected %v, got %v", tc.body, tc.want, err)
		}
	}
}

func TestBuildQuestionSetWithoutShuffle(t *testing.T) {
	set := app.BuildQuestionSet([]domain.Option{3, 1}, nil)
	if set.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", set.Len())
	}
	q := set.At(1)
	if q.ID != 1 || q.ImageRef != "questions/2.PNG" || q.Correct != 1 {
		t.Fatalf("unexpected question %+v", q)
	}
	if len(q.Options) != 5 || q.Options[0] != 1 || q.Options[4] != 5 {
		t.Fatalf("unexpected options %v", q.Options)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	answers := make([]domain.Option, 50)
	for i := range answers {
		answers[i] = domain.Option(i%5 + 1)
	}
	set := app.BuildQuestionSet(answers, rand.New(rand.NewSource(42)))

	seen := make(map[int]bool, set.Len())
	moved := false
	for pos := 0; pos < set.Len(); pos++ {
		q := set.At(pos)
		if seen[q.ID] {
			t.Fatalf("question %d appears twice", q.ID)
		}
		seen[q.ID] = true
		if q.ImageRef != domain.ImageRef(q.ID) || q.Correct != answers[q.ID] {
			t.Fatalf("pair broken by shuffle: %+v", q)
		}
		if q.ID != pos {
			moved = true
		}
	}
	if len(seen) != len(answers) {
		t.Fatalf("expected %d distinct questions, got %d", len(answers), len(seen))
	}
	if !moved {
		t.Fatalf("expected seeded shuffle to move at least one question")
	}

	got := set.CorrectAnswers()
	want := append([]domain.Option(nil), answers...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("correct answers are not a permutation of the source")
		}
	}
}
