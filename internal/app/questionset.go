package app

import (
	"fmt"
	"strconv"
	"strings"

	"countdown-quiz/internal/domain"
)

// Shuffler supplies the random indices used by the load-time shuffle.
// *rand.Rand satisfies it.
type Shuffler interface {
	Intn(n int) int
}

// ParseAnswerKey reads the first n answers from a newline-delimited source.
// Lines beyond n are ignored.
func ParseAnswerKey(body string, n int) ([]domain.Option, error) {
	body = strings.TrimSpace(body)
	var lines []string
	if body != "" {
		lines = strings.Split(body, "\n")
	}
	if len(lines) < n {
		return nil, fmt.Errorf("%w: want %d, got %d", domain.ErrAnswerKeyShort, n, len(lines))
	}

	answers := make([]domain.Option, n)
	for i := 0; i < n; i++ {
		raw := strings.TrimSpace(lines[i])
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d %q is not an integer", domain.ErrAnswerKeyMalformed, i+1, raw)
		}
		opt := domain.Option(v)
		if !isDefaultOption(opt) {
			return nil, fmt.Errorf("%w: line %d value %d outside options", domain.ErrAnswerKeyMalformed, i+1, v)
		}
		answers[i] = opt
	}
	return answers, nil
}

// BuildQuestionSet pairs each answer with the fixed option set and image
// reference, then shuffles once with Fisher-Yates. A nil shuffler keeps the
// source order.
func BuildQuestionSet(answers []domain.Option, shuffler Shuffler) domain.QuestionSet {
	questions := make([]domain.Question, len(answers))
	for i, correct := range answers {
		opts := make([]domain.Option, len(domain.DefaultOptions))
		copy(opts, domain.DefaultOptions)
		questions[i] = domain.Question{
			ID:       i,
			ImageRef: domain.ImageRef(i),
			Options:  opts,
			Correct:  correct,
		}
	}

	if shuffler != nil {
		for i := len(questions) - 1; i > 0; i-- {
			j := shuffler.Intn(i + 1)
			questions[i], questions[j] = questions[j], questions[i]
		}
	}
	return domain.NewQuestionSet(questions)
}

func isDefaultOption(opt domain.Option) bool {
	for _, o := range domain.DefaultOptions {
		if o == opt {
			return true
		}
	}
	return false
}
