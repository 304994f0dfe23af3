package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"countdown-quiz/internal/domain"
)

// AnswerKeyLoader reads {quizID}.txt answer sources from a directory.
type AnswerKeyLoader struct {
	dir string
}

func NewAnswerKeyLoader(dir string) *AnswerKeyLoader {
	return &AnswerKeyLoader{dir: dir}
}

func (l *AnswerKeyLoader) LoadAnswerKey(_ context.Context, quizID string) (domain.AnswerKey, error) {
	if quizID == "" || strings.ContainsAny(quizID, `/\`) || quizID == "." || quizID == ".." {
		return domain.AnswerKey{}, fmt.Errorf("quiz id %q: %w", quizID, domain.ErrQuizNotFound)
	}
	data, err := os.ReadFile(filepath.Join(l.dir, quizID+".txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.AnswerKey{}, fmt.Errorf("quiz id %q: %w", quizID, domain.ErrQuizNotFound)
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("read answer key: %w", err)
	}
	return domain.AnswerKey{QuizID: quizID, Body: string(data)}, nil
}
